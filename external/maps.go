package external

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"googlemaps.github.io/maps"
)

const staticMapEndpoint = "https://maps.googleapis.com/maps/api/staticmap"

// MapClient geocodes a destination and renders a static map URL for it.
type MapClient struct {
	client *maps.Client
	apiKey string
}

func NewMapClient(apiKey, baseURL string, hc *http.Client) (*MapClient, error) {
	if apiKey == "" {
		return &MapClient{}, nil
	}
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey), maps.WithHTTPClient(hc)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &MapClient{client: c, apiKey: apiKey}, nil
}

// StaticMapURL geocodes destination and returns a 600x300 map centred on
// the first match with a red marker.
func (c *MapClient) StaticMapURL(ctx context.Context, destination string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	results, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: destination})
	if err != nil {
		return "", fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("geocode: no results for %q", destination)
	}
	loc := results[0].Geometry.Location
	return StaticMapURL(loc.Lat, loc.Lng, c.apiKey), nil
}

func StaticMapURL(lat, lng float64, key string) string {
	center := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
	return staticMapEndpoint + "?center=" + center +
		"&zoom=12&size=600x300&markers=color:red%7C" + center +
		"&key=" + key
}
