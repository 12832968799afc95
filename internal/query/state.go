package query

import "github.com/i474232898/weather-mood/internal/weather"

// Mode records which acquisition path produced the last query.
type Mode string

const (
	ModeNone     Mode = ""
	ModeCity     Mode = "city"
	ModeLocation Mode = "location"
)

// Status is the variant tag of State.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// State is the single source of truth observed by the presentation layer.
// Reading is set only for StatusSuccess and Error only for StatusFailed.
type State struct {
	Status  Status             `json:"status"`
	Mode    Mode               `json:"mode,omitempty"`
	Reading *weather.Reading   `json:"reading,omitempty"`
	Error   *weather.ErrorInfo `json:"error,omitempty"`
}

func Idle() State {
	return State{Status: StatusIdle}
}

func Loading(mode Mode) State {
	return State{Status: StatusLoading, Mode: mode}
}

func Succeeded(reading weather.Reading, mode Mode) State {
	return State{Status: StatusSuccess, Mode: mode, Reading: &reading}
}

func Failed(info weather.ErrorInfo, mode Mode) State {
	return State{Status: StatusFailed, Mode: mode, Error: &info}
}

// Advisory derives the advisory for a successful state.
func (s State) Advisory() (weather.Advisory, bool) {
	if s.Status != StatusSuccess || s.Reading == nil {
		return "", false
	}
	return s.Reading.Advisory(), true
}
