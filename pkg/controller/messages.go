// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"context"
	"errors"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/link"
)

// UserMessage renders err for display. A crop the advisory service rejected
// and a service that could not be reached get distinct messages.
func UserMessage(err error) string {
	var transportErr *link.TransportError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, crop.ErrEmptyName):
		return "Enter a crop name."
	case errors.Is(err, crop.ErrRejected):
		return "That name was not recognized as a crop. Check the spelling and try again."
	case errors.Is(err, crop.ErrNotFoundOffline):
		return "The advisory service is unavailable and the crop is not in the offline list. Try again later."
	case errors.Is(err, advisory.ErrUnavailable):
		return "The advisory service is temporarily unavailable. Try again later."
	case errors.Is(err, irrigation.ErrPlanParse):
		return "The advisory plan could not be read. Using the rule-based schedule."
	case errors.Is(err, ErrForecastChanged):
		return "The forecast changed while the advisory plan was requested. Request it again."
	case errors.Is(err, irrigation.ErrNoForecast):
		return "No forecast yet. Refresh the forecast first."
	case errors.Is(err, link.ErrCapabilityDenied):
		return "Permission to access the device was denied."
	case errors.Is(err, link.ErrConnectInProgress):
		return "A connection attempt is already in progress."
	case errors.Is(err, link.ErrNotConnected):
		return "Not connected to the controller."
	case errors.As(err, &transportErr):
		return "Connection to the controller failed: " + transportErr.Err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out."
	default:
		return err.Error()
	}
}
