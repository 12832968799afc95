package weather

import (
	"strings"

	"github.com/i474232898/weather-mood/internal/common"
)

// Advisory is the derived one-line summary of a reading.
type Advisory string

const (
	AdvisoryStorm    Advisory = "storm"
	AdvisoryRain     Advisory = "rain"
	AdvisorySnow     Advisory = "snow"
	AdvisoryPleasant Advisory = "pleasant"
	AdvisoryCloudy   Advisory = "cloudy"
	AdvisoryHeat     Advisory = "heat"
	AdvisoryCold     Advisory = "cold"
	AdvisoryNeutral  Advisory = "neutral"
)

var advisoryMessages = map[Advisory]string{
	AdvisoryStorm:    "Thunderstorms around. Stay indoors if you can.",
	AdvisoryRain:     "Rain on the way. Grab an umbrella.",
	AdvisorySnow:     "Snowy out there. Bundle up and watch your step.",
	AdvisoryPleasant: "Lovely weather. A good day to be outside.",
	AdvisoryCloudy:   "Calm and cloudy. Easy day ahead.",
	AdvisoryHeat:     "It's hot. Stay hydrated and find some shade.",
	AdvisoryCold:     "Chilly out. Wear a warm layer.",
	AdvisoryNeutral:  "Check the sky before you head out.",
}

// Message returns the display text for the advisory.
func (a Advisory) Message() string {
	if m, ok := advisoryMessages[a]; ok {
		return m
	}
	return advisoryMessages[AdvisoryNeutral]
}

// Classify maps a temperature (nil when unknown) and the provider condition
// strings to an advisory. Rules are checked in order and the first match wins,
// so a clear 35°C reading is pleasant, not heat.
func Classify(tempC *float64, main, description string) Advisory {
	text := strings.ToLower(main + " " + description)
	known := tempC != nil

	switch {
	case strings.Contains(text, "thunder"):
		return AdvisoryStorm
	case common.HasAny(text, "rain", "drizzle"):
		return AdvisoryRain
	case strings.Contains(text, "snow"):
		return AdvisorySnow
	case strings.Contains(text, "clear") || (known && *tempC >= 22 && *tempC <= 32):
		return AdvisoryPleasant
	case strings.Contains(text, "cloud"):
		return AdvisoryCloudy
	case known && *tempC > 32:
		return AdvisoryHeat
	case known && *tempC < 12:
		return AdvisoryCold
	default:
		return AdvisoryNeutral
	}
}
