package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Leg is one point-to-point segment of a multi-stop itinerary.
type Leg struct {
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
}

// RouteInfo is the verified route for an ordered coordinate list.
type RouteInfo struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
	Legs        []Leg   `json:"legs"`
}

// RouteLookup resolves an ordered coordinate list into distance/duration and
// per-leg sections, or fails.
type RouteLookup interface {
	Route(ctx context.Context, coords []Coordinate, addresses []string) (RouteInfo, error)
}

// Client talks to an OSRM-compatible routing service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient bounds every outbound call with timeout; an unbounded route
// lookup would stall the whole request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *Client) Route(ctx context.Context, coords []Coordinate, addresses []string) (RouteInfo, error) {
	if len(coords) < 2 {
		return RouteInfo{}, fmt.Errorf("route needs at least two coordinates")
	}
	if len(addresses) != len(coords) {
		return RouteInfo{}, fmt.Errorf("addresses and coordinates mismatch")
	}

	parts := make([]string, 0, len(coords))
	for _, p := range coords {
		parts = append(parts, fmt.Sprintf("%f,%f", p.Lng, p.Lat))
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=false", c.BaseURL, strings.Join(parts, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RouteInfo{}, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return RouteInfo{}, fmt.Errorf("route provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RouteInfo{}, fmt.Errorf("route provider status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RouteInfo{}, fmt.Errorf("route provider decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return RouteInfo{}, fmt.Errorf("route provider code %q", body.Code)
	}

	route := body.Routes[0]
	if len(route.Legs) != len(coords)-1 {
		return RouteInfo{}, fmt.Errorf("route provider returned %d legs, want %d", len(route.Legs), len(coords)-1)
	}

	info := RouteInfo{
		DistanceKm:  route.Distance / 1000.0,
		DurationMin: route.Duration / 60.0,
		Legs:        make([]Leg, 0, len(route.Legs)),
	}
	for i, leg := range route.Legs {
		info.Legs = append(info.Legs, Leg{
			FromAddress: addresses[i],
			ToAddress:   addresses[i+1],
			DistanceKm:  leg.Distance / 1000.0,
			DurationMin: leg.Duration / 60.0,
		})
	}
	return info, nil
}
