// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL  = "https://api.open-meteo.com"
	DefaultTimezone = "Europe/Istanbul"

	dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_probability_max,precipitation_sum"
)

// ErrNoDailyData is returned when the response carries no days
var ErrNoDailyData = errors.New("no daily data")

// Source fetches an ordered forecast for a point
type Source interface {
	Fetch(ctx context.Context, latitude, longitude float64) ([]ForecastDay, error)
}

// Client is an Open-Meteo forecast client
type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
}

// NewClient creates a client. Empty values fall back to the defaults and
// http.DefaultClient.
func NewClient(baseURL, timezone string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, timezone: timezone, http: httpClient}
}

type dailyResponse struct {
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns ForecastDays days of forecast, today first.
// Missing or null values read as zero.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64) ([]ForecastDay, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("daily", dailyFields)
	q.Set("timezone", c.timezone)
	q.Set("forecast_days", strconv.Itoa(ForecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("open-meteo status %d: %s", resp.StatusCode, string(b))
	}

	var out dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if len(out.Daily.Time) == 0 {
		return nil, ErrNoDailyData
	}

	loc, err := time.LoadLocation(c.timezone)
	if err != nil {
		loc = time.UTC
	}

	days := make([]ForecastDay, len(out.Daily.Time))
	for i, raw := range out.Daily.Time {
		date, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return nil, fmt.Errorf("decode forecast date %q: %w", raw, err)
		}
		days[i] = ForecastDay{
			Date:     date,
			TempMaxC: floatAt(out.Daily.Temperature2mMax, i),
			TempMinC: floatAt(out.Daily.Temperature2mMin, i),
			RainMm:   floatAt(out.Daily.PrecipitationSum, i),
		}
		if i < len(out.Daily.PrecipitationProbabilityMax) {
			days[i].RainProbability = out.Daily.PrecipitationProbabilityMax[i]
		}
	}
	return days, nil
}

func floatAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
