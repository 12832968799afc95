package weather

// Reading is the normalized current-conditions view of a provider response.
// Temperatures are in Celsius and wind speed in metres per second.
type Reading struct {
	LocationName         string  `json:"locationName"`
	TemperatureC         float64 `json:"temperatureC"`
	FeelsLikeC           float64 `json:"feelsLikeC"`
	HumidityPct          int     `json:"humidityPct"`
	WindSpeedMS          float64 `json:"windSpeedMs"`
	ConditionMain        string  `json:"conditionMain"`
	ConditionDescription string  `json:"conditionDescription"`

	// IconCode is nil when the provider returned no condition entries.
	IconCode *string `json:"iconCode,omitempty"`
}

// Advisory derives the advisory for the reading. It is never stored.
func (r Reading) Advisory() Advisory {
	t := r.TemperatureC
	return Classify(&t, r.ConditionMain, r.ConditionDescription)
}
