package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-mood/internal/geo"
	"github.com/i474232898/weather-mood/internal/query"
	"github.com/i474232898/weather-mood/internal/weather"
)

type stubGateway struct {
	cityCalls  int32
	coordCalls int32
}

func (s *stubGateway) ByCityName(ctx context.Context, name string) (weather.Reading, error) {
	atomic.AddInt32(&s.cityCalls, 1)
	if name == "Atlantis" {
		return weather.Reading{}, weather.NewUpstreamError(404, `{"message":"city not found"}`, nil)
	}
	return weather.Reading{LocationName: name, TemperatureC: 35, ConditionMain: "Clear", ConditionDescription: "clear sky"}, nil
}

func (s *stubGateway) ByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	atomic.AddInt32(&s.coordCalls, 1)
	return weather.Reading{LocationName: "Here", TemperatureC: 5, ConditionMain: "Rain", ConditionDescription: "light rain"}, nil
}

type stubLocator struct{}

func (stubLocator) CurrentPosition(ctx context.Context) (geo.Coordinates, error) {
	return geo.Coordinates{Latitude: 1, Longitude: 2}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *query.Controller, *stubGateway) {
	t.Helper()

	gw := &stubGateway{}
	ctrl := query.NewController(context.Background(), gw, stubLocator{}, query.Options{HasCredential: true})

	app := fiber.New()
	RegisterRoutes(app, ctrl)
	return app, ctrl, gw
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestGetWeatherIdle(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/weather", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["status"])
	assert.NotContains(t, body, "advisory")
}

func TestSearchThenGetWeather(t *testing.T) {
	app, ctrl, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/weather/search", `{"city":"Manila"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "city", body["mode"])

	require.Eventually(t, func() bool {
		return ctrl.State().Status == query.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/weather", "")
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "city", body["mode"])

	reading := body["reading"].(map[string]any)
	assert.Equal(t, "Manila", reading["locationName"])

	advisory := body["advisory"].(map[string]any)
	assert.Equal(t, "pleasant", advisory["kind"])
	assert.Equal(t, weather.AdvisoryPleasant.Message(), advisory["message"])
}

func TestSearchFailureExposesError(t *testing.T) {
	app, ctrl, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/weather/search", `{"city":"Atlantis"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return ctrl.State().Status == query.StatusFailed
	}, time.Second, 5*time.Millisecond)

	_, body := doJSON(t, app, http.MethodGet, "/api/v1/weather", "")
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "upstream_error", errInfo["kind"])
	assert.Equal(t, float64(404), errInfo["statusCode"])
	assert.Contains(t, errInfo["message"], "404")
}

func TestBlankSearchIsIgnored(t *testing.T) {
	app, _, gw := newTestApp(t)

	for _, payload := range []string{`{"city":""}`, `{"city":"   "}`, `{}`} {
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/weather/search", payload)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "idle", body["status"])
	}

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&gw.cityCalls))
}

func TestSearchRejectsBadBody(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/weather/search", `{"city":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	long := strings.Repeat("a", 201)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/weather/search", `{"city":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUseLocationAndRefresh(t *testing.T) {
	app, ctrl, gw := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/weather/location", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "location", body["mode"])

	require.Eventually(t, func() bool {
		return ctrl.State().Status == query.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	st := ctrl.State()
	assert.Equal(t, query.ModeLocation, st.Mode)
	advisory, _ := st.Advisory()
	assert.Equal(t, weather.AdvisoryRain, advisory)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/weather/refresh", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&gw.coordCalls) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&gw.cityCalls))
}
