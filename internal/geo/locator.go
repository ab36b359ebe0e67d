package geo

import "context"

// Location is the result of a geolocation lookup.
type Location struct {
	CountryCode string
	Region      string
	City        string
	Lat         float64
	Lon         float64
}

// Locator is the optional geolocation collaborator. Every consumer must work
// correctly with a nil Locator: the feature degrades, nothing breaks.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}
