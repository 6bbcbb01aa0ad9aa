package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"carpool/internal/domain"
)

// RouteClient resolves a route between two place names. Implementations
// are best-effort collaborators: a failure never blocks ride creation.
type RouteClient interface {
	Route(ctx context.Context, from, to string) (*domain.RouteInfo, error)
}

// OSRMClient performs geocode+route lookups against an OSRM-compatible
// HTTP server that accepts place names.
type OSRMClient struct {
	endpoint string
	client   *http.Client
}

// NewOSRMClient creates a new OSRMClient.
func NewOSRMClient(endpoint string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Route queries the routing server for the named places and returns the
// route geometry with distance and duration.
func (c *OSRMClient) Route(ctx context.Context, from, to string) (*domain.RouteInfo, error) {
	reqURL := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=simplified",
		c.endpoint, url.PathEscape(from), url.PathEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing server returned status %d", resp.StatusCode)
	}

	var out struct {
		Code   string `json:"code"`
		Routes []struct {
			Geometry string  `json:"geometry"`
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"routes"`
		Waypoints []struct {
			Name string `json:"name"`
		} `json:"waypoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return nil, fmt.Errorf("no route: %v", out.Code)
	}

	route := &domain.RouteInfo{
		Geometry:    out.Routes[0].Geometry,
		DistanceKm:  out.Routes[0].Distance / 1000,
		DurationMin: out.Routes[0].Duration / 60,
	}
	for _, wp := range out.Waypoints {
		route.Waypoints = append(route.Waypoints, wp.Name)
	}
	return route, nil
}
