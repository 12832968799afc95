// Package query owns the weather query state machine: it resolves where to
// look, calls the gateway and publishes idle/loading/success/failed states.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-mood/internal/geo"
	"github.com/i474232898/weather-mood/internal/logger"
	"github.com/i474232898/weather-mood/internal/store"
	"github.com/i474232898/weather-mood/internal/weather"
)

// Locator resolves the device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (geo.Coordinates, error)
}

// Options configures a Controller.
type Options struct {
	// HasCredential reports whether the provider API key is configured.
	HasCredential bool

	// AutoFetchLocation starts a location query at construction.
	AutoFetchLocation bool
}

// Controller orchestrates the locator and the gateway. Operations block
// until the query completes and may be called concurrently. There is no
// request ordering: whichever query completes last determines the state.
type Controller struct {
	gateway weather.Gateway
	locator Locator
	state   *store.Cell[State]

	hasCredential bool

	mu       sync.Mutex
	lastMode Mode
	lastCity string
}

// NewController creates a Controller. Without a credential it starts failed
// with MissingCredential; with AutoFetchLocation it starts loading and runs
// the location query in the background.
func NewController(ctx context.Context, gateway weather.Gateway, locator Locator, opts Options) *Controller {
	c := &Controller{
		gateway:       gateway,
		locator:       locator,
		hasCredential: opts.HasCredential,
	}

	switch {
	case !opts.HasCredential:
		c.lastMode = ModeLocation
		c.state = store.NewCell(Failed(weather.InfoFromError(weather.ErrMissingCredential), ModeLocation))
	case opts.AutoFetchLocation:
		c.lastMode = ModeLocation
		c.state = store.NewCell(Loading(ModeLocation))
		go c.runLocation(ctx)
	default:
		c.state = store.NewCell(Idle())
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state.Get()
}

// Subscribe registers a read-only observer of state changes.
func (c *Controller) Subscribe() (uuid.UUID, <-chan State) {
	return c.state.Subscribe()
}

// Unsubscribe removes an observer registered with Subscribe.
func (c *Controller) Unsubscribe(id uuid.UUID) {
	c.state.Unsubscribe(id)
}

// SearchCity queries the weather for name. A blank name is a no-op.
func (c *Controller) SearchCity(ctx context.Context, name string) {
	city := strings.TrimSpace(name)
	if city == "" {
		return
	}

	c.remember(ModeCity, city)
	c.state.Set(Loading(ModeCity))

	c.complete(ModeCity, func() (weather.Reading, error) {
		return c.gateway.ByCityName(ctx, city)
	})
}

// UseLocation queries the weather at the device position.
func (c *Controller) UseLocation(ctx context.Context) {
	c.remember(ModeLocation, "")

	if !c.hasCredential {
		c.state.Set(Failed(weather.InfoFromError(weather.ErrMissingCredential), ModeLocation))
		return
	}

	c.state.Set(Loading(ModeLocation))
	c.runLocation(ctx)
}

// Refresh replays the last query. Without a prior query it uses the device location.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	mode, city := c.lastMode, c.lastCity
	c.mu.Unlock()

	if mode == ModeCity {
		c.SearchCity(ctx, city)
		return
	}
	c.UseLocation(ctx)
}

// LastQuery returns the mode and city text that Refresh would replay.
func (c *Controller) LastQuery() (Mode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMode, c.lastCity
}

func (c *Controller) runLocation(ctx context.Context) {
	c.complete(ModeLocation, func() (weather.Reading, error) {
		coords, err := c.locator.CurrentPosition(ctx)
		if err != nil {
			return weather.Reading{}, err
		}
		return c.gateway.ByCoordinates(ctx, coords.Latitude, coords.Longitude)
	})
}

func (c *Controller) remember(mode Mode, city string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastMode = mode
	if mode == ModeCity {
		c.lastCity = city
	}
}

// complete runs fetch and publishes its outcome. Every failure, including a
// panic in a collaborator, ends as a Failed state.
func (c *Controller) complete(mode Mode, fetch func() (weather.Reading, error)) {
	log := logger.GetLogger()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("weather query panicked", "mode", mode, "panic", r)
			c.state.Set(Failed(weather.InfoFromError(fmt.Errorf("internal error: %v", r)), mode))
		}
	}()

	reading, err := fetch()
	if err != nil {
		log.Warnw("weather query failed", "mode", mode, "kind", weather.KindOf(err), "error", err)
		c.state.Set(Failed(weather.InfoFromError(err), mode))
		return
	}

	log.Infow("weather query succeeded", "mode", mode, "location", reading.LocationName)
	c.state.Set(Succeeded(reading, mode))
}
