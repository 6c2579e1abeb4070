// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

type cropRequest struct {
	Name string `json:"name" binding:"required"`
}

type statusResponse struct {
	State   string `json:"state"`
	Reading any    `json:"reading"`
	Stats   any    `json:"stats"`
	Season  string `json:"season"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) getStatus(c *gin.Context) {
	resp := statusResponse{
		State:  link.Disconnected.String(),
		Season: h.service.Season().String(),
	}
	if h.link != nil {
		resp.State = h.link.State().String()
		resp.Reading = h.link.Reading()
		resp.Stats = h.link.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getForecast(c *gin.Context) {
	forecast := h.service.Forecast()
	if forecast == nil {
		h.jsonError(c, http.StatusNotFound, "no forecast yet", "", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location":  h.service.Location(),
		"days":      forecast,
		"advisable": h.service.Advisability(),
	})
}

func (h *Handler) refreshForecast(c *gin.Context) {
	days, err := h.service.RefreshForecast(c.Request.Context())
	if err != nil {
		h.respondError(c, "forecast_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location":  h.service.Location(),
		"days":      days,
		"advisable": h.service.Advisability(),
	})
}

func (h *Handler) getPlan(c *gin.Context) {
	plan := h.service.Plan()
	if plan == nil {
		h.jsonError(c, http.StatusNotFound, "no plan yet", "", nil)
		return
	}
	resp := gin.H{
		"days":          plan,
		"watering_days": irrigation.WateringDays(plan),
	}
	if ap := h.service.AdvisoryPlan(); ap != nil {
		resp["advisory_summary"] = ap.Summary
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) requestAdvisoryPlan(c *gin.Context) {
	_, err := h.service.RequestAdvisoryPlan(c.Request.Context())
	if err != nil {
		h.respondError(c, "advisory_plan_failed", err)
		return
	}
	h.getPlan(c)
}

func (h *Handler) clearAdvisoryPlan(c *gin.Context) {
	h.service.ClearAdvisoryPlan()
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Settings())
}

func (h *Handler) putSettings(c *gin.Context) {
	var settings irrigation.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		h.jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "settings_bind_failed", err)
		return
	}
	if err := h.service.UpdateSettings(c.Request.Context(), settings); err != nil {
		h.respondError(c, "settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.service.Settings())
}

func (h *Handler) resetSettings(c *gin.Context) {
	if err := h.service.ResetSettings(c.Request.Context()); err != nil {
		h.respondError(c, "settings_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.service.Settings())
}

func (h *Handler) resolveCrop(c *gin.Context) {
	var req cropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "crop_bind_failed", err)
		return
	}
	res, err := h.service.ResolveCrop(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, "crop_resolve_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":  res.Profile,
		"source":   res.Source.String(),
		"settings": h.service.Settings(),
	})
}

func (h *Handler) syncDevice(c *gin.Context) {
	if err := h.service.SyncDevice(c.Request.Context()); err != nil {
		h.respondError(c, "device_sync_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

// respondError maps a domain error to an HTTP status and a user message
func (h *Handler) respondError(c *gin.Context, logKey string, err error) {
	h.jsonError(c, statusFor(err), controller.UserMessage(err), logKey, err)
}

func statusFor(err error) int {
	var transportErr *link.TransportError

	switch {
	case errors.Is(err, crop.ErrEmptyName),
		errors.Is(err, irrigation.ErrInvalidFrequency),
		errors.Is(err, irrigation.ErrInvalidThreshold),
		errors.Is(err, irrigation.ErrInvalidWateringTime),
		errors.Is(err, irrigation.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, crop.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, crop.ErrNotFoundOffline):
		return http.StatusNotFound
	case errors.Is(err, irrigation.ErrNoForecast),
		errors.Is(err, controller.ErrForecastChanged),
		errors.Is(err, link.ErrNotConnected),
		errors.Is(err, link.ErrConnectInProgress):
		return http.StatusConflict
	case errors.Is(err, advisory.ErrUnavailable),
		errors.Is(err, irrigation.ErrPlanParse):
		return http.StatusServiceUnavailable
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
