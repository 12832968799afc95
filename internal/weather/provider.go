package weather

import "context"

// Gateway abstracts the current-weather endpoint of the weather provider.
type Gateway interface {
	ByCoordinates(ctx context.Context, lat, lon float64) (Reading, error)
	ByCityName(ctx context.Context, name string) (Reading, error)
}
