// Package weather provides weather tools backed by the Open-Meteo
// forecast API, with Nominatim geocoding for city names.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// weatherCodeDesc maps WMO weather codes to readable descriptions.
var weatherCodeDesc = map[int]string{
	0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
	45: "Fog", 48: "Depositing rime fog", 51: "Light drizzle", 53: "Moderate drizzle",
	55: "Dense drizzle", 61: "Slight rain", 63: "Moderate rain", 65: "Heavy rain",
	66: "Light freezing rain", 67: "Heavy freezing rain", 71: "Slight snow fall",
	73: "Moderate snow fall", 75: "Heavy snow fall", 77: "Snow grains",
	80: "Slight rain showers", 81: "Moderate rain showers", 82: "Violent rain showers",
	85: "Slight snow showers", 86: "Heavy snow showers", 95: "Thunderstorm",
	96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

// Config holds configuration for the weather tools.
type Config struct {
	OpenMeteoURL    string
	NominatimURL    string
	GeocodeTimeout  time.Duration
	ForecastTimeout time.Duration
	Timezone        string
}

// Client performs geocoding and forecast lookups.
type Client struct {
	cfg Config
	loc *time.Location
	log logger.Logger
	now func() time.Time
}

// New creates a weather client. An unknown timezone falls back to UTC.
func New(cfg Config, log logger.Logger) *Client {
	if cfg.GeocodeTimeout == 0 {
		cfg.GeocodeTimeout = 10 * time.Second
	}
	if cfg.ForecastTimeout == 0 {
		cfg.ForecastTimeout = 15 * time.Second
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("Unknown timezone, falling back to UTC",
			logger.StringField("timezone", cfg.Timezone))
		loc = time.UTC
	}

	return &Client{cfg: cfg, loc: loc, log: log, now: time.Now}
}

// CurrentArgs are the arguments for the current-weather tool.
type CurrentArgs struct {
	Location string `json:"location" jsonschema:"City name or 'lat,lon' coordinate pair"`
}

// ForecastArgs are the arguments for the forecast tool.
type ForecastArgs struct {
	Location     string `json:"location" jsonschema:"City name or 'lat,lon' coordinate pair"`
	ForecastType string `json:"forecast_type,omitempty" jsonschema:"One of: today (hourly, default), tomorrow, daily (3-day)"`
}

// RainArgs are the arguments for the rain-probability tool.
type RainArgs struct {
	Location   string `json:"location" jsonschema:"City name or 'lat,lon' coordinate pair"`
	TimePeriod string `json:"time_period,omitempty" jsonschema:"One of: today (default), tonight, this_evening, tomorrow"`
}

// GeocodeArgs are the arguments for the geocoding tool.
type GeocodeArgs struct {
	Location string `json:"location" jsonschema:"City name to look up"`
}

// Result carries a human-readable tool report.
type Result struct {
	Report string `json:"report"`
}

// Tools returns the weather tool set.
func (c *Client) Tools() ([]tool.Tool, error) {
	current, err := functiontool.New(functiontool.Config{
		Name:        "get_current_weather",
		Description: "Get current weather conditions for any city or location",
	}, func(ctx tool.Context, args CurrentArgs) (Result, error) {
		return Result{Report: c.currentWeather(ctx, args.Location)}, nil
	})
	if err != nil {
		return nil, err
	}

	forecast, err := functiontool.New(functiontool.Config{
		Name:        "get_weather_forecast",
		Description: "Get weather forecast for a location with different time periods",
	}, func(ctx tool.Context, args ForecastArgs) (Result, error) {
		return Result{Report: c.forecast(ctx, args.Location, args.ForecastType)}, nil
	})
	if err != nil {
		return nil, err
	}

	rain, err := functiontool.New(functiontool.Config{
		Name:        "check_rain_probability",
		Description: "Check rain probability and precipitation forecast for specific time periods",
	}, func(ctx tool.Context, args RainArgs) (Result, error) {
		return Result{Report: c.rainProbability(ctx, args.Location, args.TimePeriod)}, nil
	})
	if err != nil {
		return nil, err
	}

	geocode, err := functiontool.New(functiontool.Config{
		Name:        "geocode_location",
		Description: "Get coordinates for a city. Only use when specifically asked for coordinates",
	}, func(ctx tool.Context, args GeocodeArgs) (Result, error) {
		return Result{Report: c.geocodeReport(ctx, args.Location)}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{current, forecast, rain, geocode}, nil
}

type currentConditions struct {
	Temperature float64 `json:"temperature"`
	Windspeed   float64 `json:"windspeed"`
	Weathercode int     `json:"weathercode"`
	Time        string  `json:"time"`
}

type hourlySeries struct {
	Time                     []string  `json:"time"`
	Temperature2M            []float64 `json:"temperature_2m"`
	Weathercode              []int     `json:"weathercode"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Precipitation            []float64 `json:"precipitation"`
}

type dailySeries struct {
	Time             []string  `json:"time"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	Weathercode      []int     `json:"weathercode"`
}

type forecastData struct {
	Location string
	Current  *currentConditions
	Hourly   hourlySeries
	Daily    dailySeries
}

func (c *Client) currentWeather(ctx context.Context, location string) string {
	data, err := c.fetch(ctx, location)
	if err != nil {
		c.log.Error("Failed to get current weather",
			logger.StringField("location", location), logger.ErrorField(err))
		return fmt.Sprintf("Error getting weather for %s: %v", location, err)
	}

	if data.Current == nil {
		return fmt.Sprintf("No current weather data available for %s", location)
	}

	desc := codeDescription(data.Current.Weathercode)
	timestamp := data.Current.Time
	if t, err := time.Parse("2006-01-02T15:04", data.Current.Time); err == nil {
		timestamp = t.Format("2006-01-02 15:04 UTC")
	}

	return fmt.Sprintf("Current weather for %s at %s: %s°C, %s, wind %s km/h",
		data.Location, timestamp,
		formatFloat(data.Current.Temperature), desc,
		formatFloat(data.Current.Windspeed))
}

func (c *Client) forecast(ctx context.Context, location, forecastType string) string {
	data, err := c.fetch(ctx, location)
	if err != nil {
		c.log.Error("Failed to get forecast",
			logger.StringField("location", location), logger.ErrorField(err))
		return fmt.Sprintf("Error getting forecast for %s: %v", location, err)
	}

	switch strings.ToLower(forecastType) {
	case "", "today", "hourly":
		return formatHourly(data)
	case "tomorrow":
		return formatTomorrow(data)
	default:
		return formatDaily(data)
	}
}

func formatHourly(data *forecastData) string {
	h := data.Hourly
	n := len(h.Time)
	if n > 12 {
		n = 12
	}

	var lines []string
	for i := 0; i < n && i < len(h.Temperature2M) && i < len(h.Weathercode) && i < len(h.PrecipitationProbability); i++ {
		timeStr := h.Time[i]
		if t, err := time.Parse("2006-01-02T15:04", h.Time[i]); err == nil {
			timeStr = t.Format("15:04")
		}
		lines = append(lines, fmt.Sprintf("  %s: %.1f°C, %s, rain %.0f%%",
			timeStr, h.Temperature2M[i], codeDescription(h.Weathercode[i]), h.PrecipitationProbability[i]))
	}

	return fmt.Sprintf("Next 12 hours forecast for %s:\n%s", data.Location, strings.Join(lines, "\n"))
}

// dailyComplete reports whether every daily series covers index i. The
// API can return a partial block where time is populated but the rest
// of the series are short.
func dailyComplete(d dailySeries, i int) bool {
	return i < len(d.TemperatureMin) && i < len(d.TemperatureMax) &&
		i < len(d.Weathercode) && i < len(d.PrecipitationSum)
}

func formatTomorrow(data *forecastData) string {
	d := data.Daily
	if len(d.Time) < 2 || !dailyComplete(d, 1) {
		return fmt.Sprintf("No tomorrow forecast available for %s", data.Location)
	}

	return fmt.Sprintf("Tomorrow's forecast for %s (%s):\n"+
		"• Temperature: %.0f°C to %.0f°C\n"+
		"• Conditions: %s\n"+
		"• Precipitation: %.1fmm",
		data.Location, d.Time[1],
		d.TemperatureMin[1], d.TemperatureMax[1],
		codeDescription(d.Weathercode[1]),
		d.PrecipitationSum[1])
}

func formatDaily(data *forecastData) string {
	d := data.Daily
	var lines []string
	for i := 0; i < len(d.Time) && i < 3 && dailyComplete(d, i); i++ {
		lines = append(lines, fmt.Sprintf("  %s: %.0f-%.0f°C, %s, %.1fmm",
			d.Time[i], d.TemperatureMin[i], d.TemperatureMax[i],
			codeDescription(d.Weathercode[i]), d.PrecipitationSum[i]))
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No daily forecast available for %s", data.Location)
	}
	return fmt.Sprintf("3-day forecast for %s:\n%s", data.Location, strings.Join(lines, "\n"))
}

func (c *Client) rainProbability(ctx context.Context, location, timePeriod string) string {
	data, err := c.fetch(ctx, location)
	if err != nil {
		c.log.Error("Failed to check rain probability",
			logger.StringField("location", location), logger.ErrorField(err))
		return fmt.Sprintf("Error checking rain probability for %s: %v", location, err)
	}

	h := data.Hourly
	if len(h.Time) == 0 {
		return fmt.Sprintf("No forecast data available for %s", location)
	}

	currentHour := c.now().In(c.loc).Hour()

	// The hourly series starts at local midnight today, so window bounds
	// are hour-of-day offsets shifted by the current hour.
	var start, end int
	var periodName string
	switch strings.ToLower(timePeriod) {
	case "this_evening", "evening":
		start, end, periodName = max(0, 18-currentHour), min(len(h.Time), 22-currentHour+1), "this evening"
	case "tonight":
		start, end, periodName = max(0, 22-currentHour), min(len(h.Time), 30-currentHour+1), "tonight"
	case "tomorrow":
		start, end, periodName = 24-currentHour, min(len(h.Time), 48-currentHour), "tomorrow"
	default:
		start, end, periodName = 0, min(len(h.Time), 24-currentHour), "today"
	}

	if start >= len(h.Time) || end <= start {
		return fmt.Sprintf("No forecast data available for %s", periodName)
	}
	if end > len(h.PrecipitationProbability) {
		end = len(h.PrecipitationProbability)
	}
	if end > len(h.Precipitation) {
		end = len(h.Precipitation)
	}
	if end <= start {
		return fmt.Sprintf("No forecast data available for %s", periodName)
	}

	maxProb, totalPrecip := 0.0, 0.0
	peakTime := "unknown"
	for i := start; i < end; i++ {
		if h.PrecipitationProbability[i] > maxProb || peakTime == "unknown" {
			maxProb = h.PrecipitationProbability[i]
			peakTime = h.Time[i]
		}
		totalPrecip += h.Precipitation[i]
	}

	var verdict string
	switch {
	case maxProb >= 70:
		verdict = "Rain is very likely"
	case maxProb >= 50:
		verdict = "Rain is likely"
	case maxProb >= 30:
		verdict = "Rain is possible"
	default:
		verdict = "Rain is unlikely"
	}

	return fmt.Sprintf("Rain forecast for %s %s:\n"+
		"• Maximum rain probability: %.0f%%\n"+
		"• Expected precipitation: %.1fmm\n"+
		"• Peak rain time: %s\n"+
		"• %s",
		data.Location, periodName, maxProb, totalPrecip, peakTime, verdict)
}

func (c *Client) geocodeReport(ctx context.Context, location string) string {
	lat, lon, err := c.geocode(ctx, location)
	if err != nil {
		c.log.Error("Failed to geocode location",
			logger.StringField("location", location), logger.ErrorField(err))
		return fmt.Sprintf("Error finding location %s: %v", location, err)
	}
	return fmt.Sprintf("Coordinates for %s: %.4f, %.4f", location, lat, lon)
}

func (c *Client) fetch(ctx context.Context, location string) (*forecastData, error) {
	lat, lon, name, err := c.resolveLocation(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("location error: %w", err)
	}

	u, err := url.Parse(c.cfg.OpenMeteoURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("hourly", "temperature_2m,weathercode,precipitation_probability,precipitation")
	q.Set("daily", "sunrise,sunset,temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode")
	q.Set("forecast_days", "3")
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), c.cfg.ForecastTimeout, nil)
	if err != nil {
		return nil, fmt.Errorf("weather API error: %w", err)
	}

	var resp struct {
		CurrentWeather *currentConditions `json:"current_weather"`
		Hourly         hourlySeries       `json:"hourly"`
		Daily          dailySeries        `json:"daily"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("weather API error: %w", err)
	}

	return &forecastData{
		Location: name,
		Current:  resp.CurrentWeather,
		Hourly:   resp.Hourly,
		Daily:    resp.Daily,
	}, nil
}

// resolveLocation accepts either a "lat,lon" pair or a city name to geocode.
func (c *Client) resolveLocation(ctx context.Context, location string) (lat, lon float64, name string, err error) {
	parts := strings.Split(location, ",")
	if len(parts) == 2 {
		la, errLa := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lo, errLo := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLa == nil && errLo == nil {
			return la, lo, fmt.Sprintf("%.2f,%.2f", la, lo), nil
		}
	}

	lat, lon, err = c.geocode(ctx, location)
	if err != nil {
		return 0, 0, "", err
	}
	return lat, lon, location, nil
}

func (c *Client) geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	u, err := url.Parse(c.cfg.NominatimURL)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid geocoding URL: %w", err)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), c.cfg.GeocodeTimeout, map[string]string{
		"User-Agent": "weather-agent/1.0",
	})
	if err != nil {
		return 0, 0, err
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("could not find location: %s", city)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in geocoding response: %w", err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in geocoding response: %w", err)
	}

	c.log.Debug("Geocoded location",
		logger.StringField("city", city),
		logger.StringField("lat", results[0].Lat),
		logger.StringField("lon", results[0].Lon))
	return lat, lon, nil
}

func (c *Client) get(ctx context.Context, reqURL string, timeout time.Duration, headers map[string]string) ([]byte, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func codeDescription(code int) string {
	if desc, ok := weatherCodeDesc[code]; ok {
		return desc
	}
	return fmt.Sprintf("Code %d", code)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
