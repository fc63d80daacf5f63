package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// geoTimeout bounds the third-party lookup so a slow provider can never hold
// up pageview recording.
const geoTimeout = 2 * time.Second

// Location is the subset of the lookup response the platform stores.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// GeoClient resolves client IPs to coarse locations via a third-party HTTP
// endpoint (ip-api style: GET <base>/<ip> returning JSON with country/city).
type GeoClient struct {
	baseURL string
	client  *http.Client
}

// NewGeoClient creates a GeoClient. An empty baseURL disables lookups; every
// Lookup then fails fast and callers record views without location data.
func NewGeoClient(baseURL string) *GeoClient {
	return &GeoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: geoTimeout},
	}
}

// Lookup resolves ip to a Location. Failures are expected and cheap: callers
// swallow the error and proceed without location.
func (g *GeoClient) Lookup(ctx context.Context, ip string) (Location, error) {
	if g.baseURL == "" {
		return Location{}, fmt.Errorf("geo lookup disabled")
	}
	ctx, cancel := context.WithTimeout(ctx, geoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+ip, nil)
	if err != nil {
		return Location{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}
	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}
