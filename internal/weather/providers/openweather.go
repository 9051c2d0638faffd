package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-monitor/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherURL is the current-conditions endpoint of OpenWeatherMap.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements the weather.Source interface for OpenWeatherMap.
// Requests are keyed by location name; the provider answers in Kelvin.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// OpenWeatherOption customizes the provider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithBaseURL overrides the endpoint (tests, proxies).
func WithBaseURL(u string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithBackoff enables retries inside a single fetch.
func WithBackoff(b BackoffConfig) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.Backoff = b
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: DefaultOpenWeatherURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      0,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherPayload struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Dt      int64           `json:"dt"`
	Main    struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, location string) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrTransient)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", location)
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("%w: %w", weather.ErrTransient, err)
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return weather.Observation{}, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, location)
		}
		return weather.Observation{}, fmt.Errorf("%w: decode response: %w", weather.ErrTransient, err)
	}

	// The provider reports lookup failures through "cod", which is a string on errors.
	if code := parseCod(payload.Cod, resp.StatusCode); code != http.StatusOK {
		if code == http.StatusNotFound {
			return weather.Observation{}, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, location)
		}
		return weather.Observation{}, fmt.Errorf("%w: provider status %d: %s", weather.ErrTransient, code, payload.Message)
	}

	label := ""
	if len(payload.Weather) > 0 {
		label = payload.Weather[0].Main
	}

	return weather.Observation{
		Location:     location,
		Temperature:  weather.KelvinToCelsius(payload.Main.Temp),
		TempMax:      weather.KelvinToCelsius(payload.Main.TempMax),
		TempMin:      weather.KelvinToCelsius(payload.Main.TempMin),
		Humidity:     payload.Main.Humidity,
		WindSpeed:    weather.MetersPerSecondToKmh(payload.Wind.Speed),
		Condition:    weather.ParseCondition(label),
		RawCondition: label,
		CapturedAt:   p.now(),
	}, nil
}

// parseCod reads the provider status which arrives as 200 or "404".
// Without a cod field the HTTP status is used.
func parseCod(raw json.RawMessage, httpStatus int) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return httpStatus
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return httpStatus
	}
	return n
}
