package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-mood/internal/geo"
	"github.com/i474232898/weather-mood/internal/logger"
)

var validate = validator.New()

type AppConfig struct {
	// OpenWeatherAPIKey may be empty; queries then fail with MissingCredential.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// Client-side rate limit towards the provider (0 = unlimited).
	RequestsPerSecond float64 `validate:"gte=0"`
	RequestBurst      int     `validate:"gte=1"`

	AutoFetchLocation bool

	// RefreshInterval re-runs the last query periodically (0 = disabled).
	RefreshInterval time.Duration `validate:"gte=0"`

	Location LocationConfig

	Port string `validate:"required,numeric"`
}

// LocationConfig drives the configured device location platform.
type LocationConfig struct {
	ServiceEnabled bool
	Permission     geo.Permission `validate:"oneof=undetermined denied denied_forever granted"`
	GrantOnRequest bool

	Latitude  *float64 `validate:"omitempty,latitude"`
	Longitude *float64 `validate:"omitempty,longitude"`

	City           string
	Country        string
	GeocoderAPIKey string
}

// Platform converts the location settings into a geo.PlatformConfig.
func (l LocationConfig) Platform() geo.PlatformConfig {
	cfg := geo.PlatformConfig{
		ServiceEnabled: l.ServiceEnabled,
		Permission:     l.Permission,
		GrantOnRequest: l.GrantOnRequest,
		City:           l.City,
		Country:        l.Country,
		GeocoderAPIKey: l.GeocoderAPIKey,
	}
	if l.Latitude != nil && l.Longitude != nil {
		cfg.Position = &geo.Coordinates{Latitude: *l.Latitude, Longitude: *l.Longitude}
	}
	return cfg
}

// LoadDotEnv loads .env files (default ".env") into the process environment
// without overriding variables that are already set. Call it before the first
// logger.GetLogger so LOG_LEVEL and ENVIRONMENT from .env take effect.
func LoadDotEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// Load reads configuration from the environment (and .env if present) with
// sensible defaults.
func Load() (*AppConfig, error) {
	envErr := LoadDotEnv()

	log := logger.GetLogger()
	if envErr != nil {
		log.Infow("no .env file loaded", "error", envErr)
	}

	cfg := &AppConfig{}
	var err error

	cfg.OpenWeatherAPIKey = os.Getenv("OPEN_WEATHER_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPEN_WEATHER_BASE_URL", "https://api.openweathermap.org")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = getenvFloat("OPEN_WEATHER_RPS", 1); err != nil {
		return nil, err
	}
	cfg.RequestBurst = getenvInt("OPEN_WEATHER_BURST", 5)

	cfg.AutoFetchLocation = getenvBool("AUTO_FETCH_LOCATION", false)
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}

	if cfg.Location, err = loadLocation(); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.OpenWeatherAPIKey == "" {
		log.Warn("OPEN_WEATHER_KEY is not set; weather queries will fail")
	} else {
		log.Infow("openweather credential configured", "key", logger.MaskSensitiveString(cfg.OpenWeatherAPIKey, 3, 3))
	}

	return cfg, nil
}

func loadLocation() (LocationConfig, error) {
	loc := LocationConfig{
		ServiceEnabled: getenvBool("LOCATION_SERVICE_ENABLED", true),
		Permission:     geo.Permission(strings.ToLower(getenvDefault("LOCATION_PERMISSION", string(geo.PermissionUndetermined)))),
		GrantOnRequest: getenvBool("LOCATION_GRANT_ON_REQUEST", true),
		City:           os.Getenv("DEVICE_CITY"),
		Country:        os.Getenv("DEVICE_COUNTRY"),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
	}

	latStr, lonStr := os.Getenv("DEVICE_LATITUDE"), os.Getenv("DEVICE_LONGITUDE")
	if (latStr == "") != (lonStr == "") {
		return LocationConfig{}, fmt.Errorf("DEVICE_LATITUDE and DEVICE_LONGITUDE must be set together")
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return LocationConfig{}, fmt.Errorf("invalid DEVICE_LATITUDE: %w", err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return LocationConfig{}, fmt.Errorf("invalid DEVICE_LONGITUDE: %w", err)
		}
		loc.Latitude, loc.Longitude = &lat, &lon
	}

	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
