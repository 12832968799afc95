package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-mood/internal/logger"
	"github.com/i474232898/weather-mood/internal/query"
	"github.com/i474232898/weather-mood/internal/weather"
)

var validate = validator.New()

const streamHeartbeat = 15 * time.Second

// Queries is the query controller surface the HTTP layer drives.
type Queries interface {
	State() query.State
	Subscribe() (uuid.UUID, <-chan query.State)
	Unsubscribe(id uuid.UUID)
	SearchCity(ctx context.Context, name string)
	UseLocation(ctx context.Context)
	Refresh(ctx context.Context)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Query operations
// are started in the background; clients observe progress through GET
// /weather or the event stream.
func RegisterRoutes(app *fiber.App, q Queries) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(newStateResponse(q.State()))
	})

	v1.Get("/weather/stream", func(c *fiber.Ctx) error {
		return streamStates(c, q)
	})

	v1.Post("/weather/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		city := strings.TrimSpace(req.City)
		if city == "" {
			// Blank searches are ignored.
			return c.JSON(newStateResponse(q.State()))
		}

		go q.SearchCity(context.Background(), city)
		return accepted(c, query.ModeCity)
	})

	v1.Post("/weather/location", func(c *fiber.Ctx) error {
		go q.UseLocation(context.Background())
		return accepted(c, query.ModeLocation)
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		go q.Refresh(context.Background())
		return accepted(c, "")
	})
}

// searchRequest is the body of POST /weather/search.
type searchRequest struct {
	City string `json:"city" validate:"max=200"`
}

type advisoryView struct {
	Kind    weather.Advisory `json:"kind"`
	Message string           `json:"message"`
}

// stateResponse is a query state plus the advisory derived from it.
type stateResponse struct {
	query.State
	Advisory *advisoryView `json:"advisory,omitempty"`
}

func newStateResponse(st query.State) stateResponse {
	resp := stateResponse{State: st}
	if a, ok := st.Advisory(); ok {
		resp.Advisory = &advisoryView{Kind: a, Message: a.Message()}
	}
	return resp
}

func accepted(c *fiber.Ctx, mode query.Mode) error {
	body := fiber.Map{"accepted": true}
	if mode != "" {
		body["mode"] = mode
	}
	return c.Status(fiber.StatusAccepted).JSON(body)
}

// streamStates writes every state change as a server-sent event until the
// client goes away.
func streamStates(c *fiber.Ctx, q Queries) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	id, states := q.Subscribe()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer q.Unsubscribe(id)

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		if err := writeStates(w, states, heartbeat.C); err != nil {
			logger.GetLogger().Debugw("state stream closed", "subscription", id, "error", err)
		}
	}))
	return nil
}

// writeStates emits one "state" event per received state and a comment line
// per heartbeat tick. It returns nil once states is closed, or the first
// encode or write error.
func writeStates(w *bufio.Writer, states <-chan query.State, heartbeat <-chan time.Time) error {
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return nil
			}
			data, err := json.Marshal(newStateResponse(st))
			if err != nil {
				return fmt.Errorf("encode state event: %w", err)
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
		case <-heartbeat:
			fmt.Fprint(w, ": ping\n\n")
		}

		if err := w.Flush(); err != nil {
			return err
		}
	}
}
