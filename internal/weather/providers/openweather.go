package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-mood/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

	currentWeatherPath = "/data/2.5/weather"

	circuitMaxFailures = 5
	circuitInterval    = 1 * time.Minute
	circuitTimeout     = 30 * time.Second
)

var errMissingMain = errors.New(`response has no "main" object`)

// OpenWeatherGateway implements weather.Gateway for the OpenWeatherMap
// current weather endpoint. It never retries.
type OpenWeatherGateway struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.TwoStepCircuitBreaker
}

// NewOpenWeatherGateway builds a gateway against baseURL (the provider host,
// without path). A non-positive rps disables client-side rate limiting.
func NewOpenWeatherGateway(client *http.Client, baseURL, apiKey string, rps float64, burst int) *OpenWeatherGateway {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}

	return &OpenWeatherGateway{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Limiter: rate.NewLimiter(limit, burst),
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

// HasCredential reports whether an API key is configured.
func (g *OpenWeatherGateway) HasCredential() bool {
	return g.apiKey != ""
}

// CircuitState reports the provider circuit ("closed", "half-open" or "open").
// It is informational only; requests are sent in every state.
func (g *OpenWeatherGateway) CircuitState() string {
	return g.circuit.State().String()
}

func (g *OpenWeatherGateway) ByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return g.fetch(ctx, values)
}

func (g *OpenWeatherGateway) ByCityName(ctx context.Context, name string) (weather.Reading, error) {
	values := url.Values{}
	values.Set("q", name)
	return g.fetch(ctx, values)
}

func (g *OpenWeatherGateway) fetch(ctx context.Context, values url.Values) (weather.Reading, error) {
	if g.apiKey == "" {
		return weather.Reading{}, weather.ErrMissingCredential
	}

	values.Set("appid", g.apiKey)
	values.Set("units", "metric")

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", g.baseURL, currentWeatherPath, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	raw, err := doRequest(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, err
	}

	if raw.StatusCode != http.StatusOK {
		return weather.Reading{}, weather.NewUpstreamError(raw.StatusCode, string(raw.Body), nil)
	}

	reading, err := parseCurrentWeather(raw.Body)
	if err != nil {
		return weather.Reading{}, weather.NewMalformedResponseError(raw.StatusCode, string(raw.Body), err)
	}
	return reading, nil
}

// currentWeatherPayload is the subset of the provider response we read.
// "main" is required; everything else may be absent.
type currentWeatherPayload struct {
	Name string `json:"name"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func parseCurrentWeather(body []byte) (weather.Reading, error) {
	var payload currentWeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Main == nil {
		return weather.Reading{}, errMissingMain
	}

	reading := weather.Reading{
		LocationName: payload.Name,
		TemperatureC: payload.Main.Temp,
		FeelsLikeC:   payload.Main.FeelsLike,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
	}

	// An empty condition list is tolerated.
	if len(payload.Weather) > 0 {
		first := payload.Weather[0]
		reading.ConditionMain = first.Main
		reading.ConditionDescription = first.Description
		if first.Icon != "" {
			icon := first.Icon
			reading.IconCode = &icon
		}
	}

	return reading, nil
}
