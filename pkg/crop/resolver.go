// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package crop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/logger"
)

var (
	// ErrEmptyName is returned for a blank crop name
	ErrEmptyName = errors.New("crop name is empty")

	// ErrRejected means the advisory service judged the name not to be a crop.
	// It is final; callers must not fall back to the offline table.
	ErrRejected = errors.New("not a recognized crop")

	// ErrNotFoundOffline means the advisory service could not answer and the
	// offline table has no match either.
	ErrNotFoundOffline = errors.New("crop not found in offline table")
)

// Source tells where a resolved profile came from
type Source int

const (
	SourceAdvisory Source = iota
	SourceOffline
)

func (s Source) String() string {
	if s == SourceOffline {
		return "offline"
	}
	return "advisory"
}

// Resolution is a resolved profile and its origin
type Resolution struct {
	Profile Profile
	Source  Source
}

// Resolver resolves crop names
type Resolver struct {
	gen advisory.Generator
	log *logger.Logger
}

// NewResolver creates a resolver. A nil generator resolves from the offline
// table only.
func NewResolver(gen advisory.Generator, log *logger.Logger) *Resolver {
	return &Resolver{gen: gen, log: logger.OrNop(log)}
}

// Resolve looks name up for season.
//
// The advisory answer wins when it is usable. A rejection is returned as
// ErrRejected. Service failures and unusable answers fall back to the offline
// table, which fails with ErrNotFoundOffline. Cancelling ctx returns its error.
func (r *Resolver) Resolve(ctx context.Context, name string, season irrigation.Season) (Resolution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resolution{}, ErrEmptyName
	}

	if r.gen != nil {
		profile, err := r.ask(ctx, name, season)
		switch {
		case err == nil:
			return Resolution{Profile: profile, Source: SourceAdvisory}, nil
		case errors.Is(err, ErrRejected):
			return Resolution{}, fmt.Errorf("%q: %w", name, ErrRejected)
		case ctx.Err() != nil:
			return Resolution{}, ctx.Err()
		default:
			r.log.Warnw("crop_advisory_fallback", "crop", name, "err", err)
		}
	}

	profile, ok := Lookup(name)
	if !ok {
		return Resolution{}, fmt.Errorf("%q: %w", name, ErrNotFoundOffline)
	}
	return Resolution{Profile: profile, Source: SourceOffline}, nil
}

func (r *Resolver) ask(ctx context.Context, name string, season irrigation.Season) (Profile, error) {
	text, err := r.gen.Generate(ctx, Prompt(name, season))
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(name, text)
}
