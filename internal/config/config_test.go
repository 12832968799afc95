package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-mood/internal/geo"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPEN_WEATHER_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 1.0, cfg.RequestsPerSecond)
	assert.Equal(t, 5, cfg.RequestBurst)
	assert.False(t, cfg.AutoFetchLocation)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Location.ServiceEnabled)
	assert.Equal(t, geo.PermissionUndetermined, cfg.Location.Permission)
	assert.Nil(t, cfg.Location.Platform().Position)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPEN_WEATHER_KEY", "abc123")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("AUTO_FETCH_LOCATION", "true")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("LOCATION_PERMISSION", "GRANTED")
	t.Setenv("DEVICE_LATITUDE", "14.5995")
	t.Setenv("DEVICE_LONGITUDE", "120.9842")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.AutoFetchLocation)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, geo.PermissionGranted, cfg.Location.Permission)

	platform := cfg.Location.Platform()
	require.NotNil(t, platform.Position)
	assert.Equal(t, geo.Coordinates{Latitude: 14.5995, Longitude: 120.9842}, *platform.Position)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, env := range map[string][2]string{
		"bad timeout":      {"HTTP_TIMEOUT", "soon"},
		"zero timeout":     {"HTTP_TIMEOUT", "0s"},
		"bad permission":   {"LOCATION_PERMISSION", "maybe"},
		"bad latitude":     {"DEVICE_LATITUDE", "north"},
		"lonely latitude":  {"DEVICE_LATITUDE", "14.5"},
		"bad rps":          {"OPEN_WEATHER_RPS", "fast"},
		"negative refresh": {"REFRESH_INTERVAL", "-1m"},
		"bad port":         {"PORT", "http"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			if env[0] == "DEVICE_LATITUDE" && env[1] != "14.5" {
				t.Setenv("DEVICE_LONGITUDE", "120")
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsOutOfRangeCoordinates(t *testing.T) {
	t.Setenv("DEVICE_LATITUDE", "91")
	t.Setenv("DEVICE_LONGITUDE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnvPopulatesLoggerSettings(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "ENVIRONMENT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nENVIRONMENT=production\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "production", os.Getenv("ENVIRONMENT"))
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "warn", os.Getenv("LOG_LEVEL"))
}
