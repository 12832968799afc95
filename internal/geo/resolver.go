// Package geo resolves the device's current position behind the platform's
// location service and permission checks.
package geo

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-mood/internal/logger"
	"github.com/i474232898/weather-mood/internal/weather"
)

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Permission is the platform's location authorization state.
type Permission string

const (
	PermissionUndetermined  Permission = "undetermined"
	PermissionDenied        Permission = "denied"
	PermissionDeniedForever Permission = "denied_forever"
	PermissionGranted       Permission = "granted"
)

// Accuracy is the hint passed to the platform position query.
type Accuracy int

const (
	AccuracyLow Accuracy = iota
	AccuracyHigh
)

// Platform is the device location API the resolver drives.
type Platform interface {
	ServiceEnabled(ctx context.Context) (bool, error)
	Permission(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Coordinates, error)
}

// Resolver obtains the current position. It never retries.
type Resolver struct {
	platform Platform
}

// NewResolver creates a Resolver over the given platform.
func NewResolver(platform Platform) *Resolver {
	return &Resolver{platform: platform}
}

// CurrentPosition checks the location service, asks for permission at most
// once when the current state allows asking, and then queries the position
// with a high accuracy hint.
func (r *Resolver) CurrentPosition(ctx context.Context) (Coordinates, error) {
	log := logger.GetLogger()

	enabled, err := r.platform.ServiceEnabled(ctx)
	if err != nil {
		return Coordinates{}, fmt.Errorf("check location service: %w", err)
	}
	if !enabled {
		return Coordinates{}, weather.ErrServiceDisabled
	}

	perm, err := r.platform.Permission(ctx)
	if err != nil {
		return Coordinates{}, fmt.Errorf("check location permission: %w", err)
	}

	switch perm {
	case PermissionGranted:
	case PermissionDeniedForever:
		return Coordinates{}, weather.ErrPermissionDenied
	default:
		log.Debugw("requesting location permission", "current", perm)
		perm, err = r.platform.RequestPermission(ctx)
		if err != nil {
			return Coordinates{}, fmt.Errorf("request location permission: %w", err)
		}
		if perm != PermissionGranted {
			return Coordinates{}, weather.ErrPermissionDenied
		}
	}

	coords, err := r.platform.CurrentPosition(ctx, AccuracyHigh)
	if err != nil {
		return Coordinates{}, fmt.Errorf("query current position: %w", err)
	}
	return coords, nil
}
