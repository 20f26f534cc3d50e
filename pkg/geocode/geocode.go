package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Location is a geocoded coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a free-form address to coordinates. Implementations
// return (nil, nil) when the address cannot be resolved; errors are
// reserved for transport failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Client talks to a Nominatim-compatible search endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient builds a geocoding client. Nominatim requires an identifying
// User-Agent on every request.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address via the search endpoint, taking the first hit.
func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned %s", resp.Status)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(results) == 0 {
		c.logger.Debug("address not geocodable", zap.String("address", address))
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}
	return &Location{Latitude: lat, Longitude: lon}, nil
}

// Noop is a Geocoder that never resolves anything. Used when no geocoding
// service is configured; listings then match on address, price, and
// advertiser signals alone.
type Noop struct{}

func (Noop) Geocode(context.Context, string) (*Location, error) {
	return nil, nil
}
