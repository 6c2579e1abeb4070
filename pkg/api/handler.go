// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package api serves the irrigator status and control surface over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the controller surface the handlers use
type Service interface {
	Location() weather.Location
	Season() irrigation.Season
	Forecast() []weather.ForecastDay
	Settings() irrigation.Settings
	Plan() []irrigation.DayDecision
	AdvisoryPlan() *irrigation.AdvisoryPlan
	Advisability() []bool

	UpdateSettings(ctx context.Context, settings irrigation.Settings) error
	ResetSettings(ctx context.Context) error
	ResolveCrop(ctx context.Context, name string) (crop.Resolution, error)
	RefreshForecast(ctx context.Context) ([]weather.ForecastDay, error)
	RequestAdvisoryPlan(ctx context.Context) (*irrigation.AdvisoryPlan, error)
	ClearAdvisoryPlan()
	SyncDevice(ctx context.Context) error
}

// Link is the device connection as seen by the handlers
type Link interface {
	State() link.State
	Reading() irrlink.SensorReading
	Stats() irrlink.Statistics
	WatchReadings(buffer int) (<-chan irrlink.SensorReading, func())
}

// Handler wires the HTTP layer to the controller and the link
type Handler struct {
	service  Service
	link     Link
	gatherer prometheus.Gatherer
	log      *logger.Logger
}

// NewHandler creates a handler. A nil gatherer serves the default registry.
func NewHandler(service Service, l Link, gatherer prometheus.Gatherer, log *logger.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{service: service, link: l, gatherer: gatherer, log: logger.OrNop(log)}
}

// InitRoutes builds the gin router with every route registered
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	router.GET("/ws", h.wsReadings)

	h.registerAPIRoutes(router)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)

		api.GET("/forecast", h.getForecast)
		api.POST("/forecast", h.refreshForecast)

		api.GET("/plan", h.getPlan)
		api.POST("/plan/advisory", h.requestAdvisoryPlan)
		api.DELETE("/plan/advisory", h.clearAdvisoryPlan)

		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.putSettings)
		api.DELETE("/settings", h.resetSettings)

		api.POST("/crop", h.resolveCrop)
		api.POST("/sync", h.syncDevice)
	}
}

// jsonError logs err under logKey and responds with a JSON error body
func (h *Handler) jsonError(c *gin.Context, code int, userMsg, logKey string, err error) {
	if err != nil {
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, "err", err)
		} else {
			h.log.Debugw(logKey, "err", err)
		}
	}
	c.JSON(code, gin.H{"error": userMsg})
}
