// README: Stop-location normalization via the Google Maps Geocoding API.
package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// StopLocatorService resolves free-text extra-stop locations to formatted
// addresses so drafts carry consistent stop text.
type StopLocatorService struct {
	client *maps.Client
}

// NewStopLocatorService creates a StopLocatorService with the given API key.
func NewStopLocatorService(apiKey string) (*StopLocatorService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &StopLocatorService{client: client}, nil
}

// Normalize geocodes the location text and returns the first formatted
// address. Unrecognized text is returned unchanged; callers treat this as
// best-effort.
func (s *StopLocatorService) Normalize(ctx context.Context, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("empty location")
	}
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return location, nil
	}
	return results[0].FormattedAddress, nil
}
