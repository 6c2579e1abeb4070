// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/irrigator/pkg/advisory"
	"github.com/Thermoquad/irrigator/pkg/controller"
	"github.com/Thermoquad/irrigator/pkg/crop"
	"github.com/Thermoquad/irrigator/pkg/irrigation"
	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/Thermoquad/irrigator/pkg/weather"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc Service, l Link) *gin.Engine {
	return NewHandler(svc, l, prometheus.NewRegistry(), nil).InitRoutes()
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&mockService{}, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestStatus(t *testing.T) {
	l := newMockLink()
	l.reading.Set(irrlink.SensorReading{Humidity: 512, PumpOn: true})
	w := do(newTestRouter(&mockService{}, l), http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		State   string                `json:"state"`
		Season  string                `json:"season"`
		Reading irrlink.SensorReading `json:"reading"`
	}
	decode(t, w, &resp)
	if resp.State != "CONNECTED" || resp.Season != "summer" || resp.Reading.Humidity != 512 {
		t.Errorf("unexpected status: %+v", resp)
	}

	// Without a link the state reads as disconnected
	w = do(newTestRouter(&mockService{}, nil), http.MethodGet, "/api/v1/status", "")
	decode(t, w, &resp)
	if resp.State != "DISCONNECTED" {
		t.Errorf("State = %q, want DISCONNECTED", resp.State)
	}
}

func TestForecast(t *testing.T) {
	svc := &mockService{}
	r := newTestRouter(svc, nil)

	if w := do(r, http.MethodGet, "/api/v1/forecast", ""); w.Code != http.StatusNotFound {
		t.Errorf("without forecast = %d, want 404", w.Code)
	}

	svc.forecast = []weather.ForecastDay{{RainProbability: 10}, {RainProbability: 70}}
	svc.advisable = []bool{true, false}
	w := do(r, http.MethodGet, "/api/v1/forecast", "")
	if w.Code != http.StatusOK {
		t.Fatalf("forecast = %d", w.Code)
	}
	var resp struct {
		Days      []weather.ForecastDay `json:"days"`
		Advisable []bool                `json:"advisable"`
		Location  weather.Location      `json:"location"`
	}
	decode(t, w, &resp)
	if len(resp.Days) != 2 || resp.Advisable[1] || resp.Location.Name != "Ankara" {
		t.Errorf("unexpected forecast: %+v", resp)
	}

	svc.refreshErr = errors.New("dns failure")
	if w := do(r, http.MethodPost, "/api/v1/forecast", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("failed refresh = %d, want 500", w.Code)
	}
}

func TestPlan(t *testing.T) {
	svc := &mockService{}
	r := newTestRouter(svc, nil)

	if w := do(r, http.MethodGet, "/api/v1/plan", ""); w.Code != http.StatusNotFound {
		t.Errorf("without plan = %d, want 404", w.Code)
	}

	svc.plan = []irrigation.DayDecision{
		{Index: 0, ShouldWater: true, Source: irrigation.SourceRuleBased},
		{Index: 1, ShouldWater: false, Source: irrigation.SourceAdvisory, Reason: "rain"},
	}
	svc.advisoryPlan = &irrigation.AdvisoryPlan{Summary: "light week"}
	w := do(r, http.MethodGet, "/api/v1/plan", "")
	var resp struct {
		WateringDays    []int  `json:"watering_days"`
		AdvisorySummary string `json:"advisory_summary"`
		Days            []struct {
			Source string `json:"source"`
		} `json:"days"`
	}
	decode(t, w, &resp)
	if len(resp.WateringDays) != 1 || resp.AdvisorySummary != "light week" || resp.Days[1].Source != "advisory" {
		t.Errorf("unexpected plan: %+v", resp)
	}

	svc.advisoryErr = fmt.Errorf("generate: %w", advisory.ErrUnavailable)
	w = do(r, http.MethodPost, "/api/v1/plan/advisory", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("advisory down = %d, want 503", w.Code)
	}

	svc.advisoryErr = controller.ErrForecastChanged
	w = do(r, http.MethodPost, "/api/v1/plan/advisory", "")
	if w.Code != http.StatusConflict {
		t.Errorf("forecast changed = %d, want 409", w.Code)
	}

	if w := do(r, http.MethodDelete, "/api/v1/plan/advisory", ""); w.Code != http.StatusNoContent || svc.clearCalls != 1 {
		t.Errorf("clear = %d, calls %d", w.Code, svc.clearCalls)
	}
}

func TestSettings(t *testing.T) {
	svc := &mockService{settings: irrigation.DefaultSettings()}
	r := newTestRouter(svc, nil)

	w := do(r, http.MethodGet, "/api/v1/settings", "")
	var got irrigation.Settings
	decode(t, w, &got)
	if got != irrigation.DefaultSettings() {
		t.Errorf("GET settings = %+v", got)
	}

	body := `{"crop_name":"Biber","frequency_days":2,"watering_time":"21:00","duration_seconds":40,"humidity_threshold":580}`
	w = do(r, http.MethodPut, "/api/v1/settings", body)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings = %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &got)
	if got.FrequencyDays != 2 || !got.UserOverridden || svc.lastSettings.CropName != "Biber" {
		t.Errorf("PUT settings = %+v", got)
	}

	svc.updateErr = fmt.Errorf("%w: 0", irrigation.ErrInvalidFrequency)
	if w := do(r, http.MethodPut, "/api/v1/settings", body); w.Code != http.StatusBadRequest {
		t.Errorf("invalid settings = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodPut, "/api/v1/settings", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", w.Code)
	}

	w = do(r, http.MethodDelete, "/api/v1/settings", "")
	decode(t, w, &got)
	if got.UserOverridden {
		t.Error("reset settings still overridden")
	}
}

func TestResolveCrop(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"resolved", `{"name":"Domates"}`, nil, http.StatusOK},
		{"missing name", `{}`, nil, http.StatusBadRequest},
		{"rejected", `{"name":"Asphalt"}`, crop.ErrRejected, http.StatusUnprocessableEntity},
		{"offline miss", `{"name":"Asphalt"}`, crop.ErrNotFoundOffline, http.StatusNotFound},
		{"empty", `{"name":" "}`, crop.ErrEmptyName, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				resolution: crop.Resolution{Profile: crop.Profile{CropName: "Domates", FrequencyDays: 1}, Source: crop.SourceOffline},
				resolveErr: tt.err,
			}
			w := do(newTestRouter(svc, nil), http.MethodPost, "/api/v1/crop", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode == http.StatusOK && !strings.Contains(w.Body.String(), `"source":"offline"`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestSync(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"synced", nil, http.StatusOK},
		{"no forecast", irrigation.ErrNoForecast, http.StatusConflict},
		{"not connected", link.ErrNotConnected, http.StatusConflict},
		{"write failed", &link.TransportError{Op: "write", Err: errors.New("broken pipe")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{syncErr: tt.err}
			w := do(newTestRouter(svc, nil), http.MethodPost, "/api/v1/sync", "")
			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if svc.syncCalls != 1 {
				t.Errorf("sync calls = %d", svc.syncCalls)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "irrigator_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	r := NewHandler(&mockService{}, nil, reg, nil).InitRoutes()
	w := do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "irrigator_test_total 1") {
		t.Errorf("metrics = %d %s", w.Code, w.Body.String())
	}
}

func TestWebSocket_ReadingStream(t *testing.T) {
	l := newMockLink()
	srv := httptest.NewServer(newTestRouter(&mockService{}, l))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type string                `json:"type"`
		Data irrlink.SensorReading `json:"data"`
	}

	// The current reading arrives first
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != "reading" {
		t.Errorf("Type = %q, want reading", msg.Type)
	}

	want := irrlink.SensorReading{Humidity: 640, Light: 90, DayIndex: 4}
	l.reading.Set(want)
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Data != want {
		t.Errorf("Data = %+v, want %+v", msg.Data, want)
	}
}

func TestWebSocket_NoLink(t *testing.T) {
	w := do(newTestRouter(&mockService{}, nil), http.MethodGet, "/ws", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", w.Code)
	}
}

func TestNormalizeAddr(t *testing.T) {
	tests := map[string]string{"": "", "8080": ":8080", ":9090": ":9090", "127.0.0.1:80": "127.0.0.1:80"}
	for in, want := range tests {
		if got := NormalizeAddr(in); got != want {
			t.Errorf("NormalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
