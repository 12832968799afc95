package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

var errNoPosition = errors.New("no device position configured")

// PlatformConfig describes a device location service driven by configuration.
// The position is either fixed coordinates or a city geocoded through the
// Google geocoding API.
type PlatformConfig struct {
	ServiceEnabled bool
	Permission     Permission
	GrantOnRequest bool

	Position *Coordinates

	City           string
	Country        string
	GeocoderAPIKey string
}

// ConfigPlatform is a Platform for hosts without a real location service.
type ConfigPlatform struct {
	mu         sync.Mutex
	enabled    bool
	permission Permission
	grant      bool
	position   *Coordinates
	address    *geocoder.Address

	geocode func(geocoder.Address) (geocoder.Location, error)
}

// NewConfigPlatform creates a ConfigPlatform from cfg.
func NewConfigPlatform(cfg PlatformConfig) *ConfigPlatform {
	p := &ConfigPlatform{
		enabled:    cfg.ServiceEnabled,
		permission: cfg.Permission,
		grant:      cfg.GrantOnRequest,
		position:   cfg.Position,
		geocode:    geocoder.Geocoding,
	}
	if p.permission == "" {
		p.permission = PermissionUndetermined
	}

	if cfg.Position == nil && cfg.City != "" {
		p.address = &geocoder.Address{City: cfg.City, Country: cfg.Country}
		geocoder.ApiKey = cfg.GeocoderAPIKey
	}
	return p
}

func (p *ConfigPlatform) ServiceEnabled(ctx context.Context) (bool, error) {
	return p.enabled, nil
}

func (p *ConfigPlatform) Permission(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission, nil
}

// RequestPermission answers the prompt with the configured choice. A granted
// permission sticks; a refusal leaves the state askable.
func (p *ConfigPlatform) RequestPermission(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.grant {
		p.permission = PermissionGranted
	} else if p.permission != PermissionDeniedForever {
		p.permission = PermissionDenied
	}
	return p.permission, nil
}

func (p *ConfigPlatform) CurrentPosition(ctx context.Context, accuracy Accuracy) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}

	if p.position != nil {
		return *p.position, nil
	}
	if p.address == nil {
		return Coordinates{}, errNoPosition
	}

	loc, err := p.geocode(*p.address)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %s: %w", p.address.City, err)
	}
	return Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
