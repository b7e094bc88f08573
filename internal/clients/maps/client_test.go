package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func osrmHandler(t *testing.T, body string, wantCoords string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantCoords != "" && r.URL.Path != "/route/v1/driving/"+wantCoords {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("overview") != "false" {
			t.Errorf("overview=false missing: %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, body)
	}
}

func TestRouteConvertsUnits(t *testing.T) {
	srv := httptest.NewServer(osrmHandler(t, `{
		"code": "Ok",
		"routes": [{"distance": 42500, "duration": 2100,
			"legs": [{"distance": 42500, "duration": 2100}]}]
	}`, ""))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	info, err := c.Route(context.Background(),
		[]Coordinate{{Lat: 59.33, Lng: 18.06}, {Lat: 59.86, Lng: 17.65}},
		[]string{"Stockholm", "Uppsala"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if info.DistanceKm != 42.5 {
		t.Fatalf("distance = %v km, want 42.5", info.DistanceKm)
	}
	if info.DurationMin != 35 {
		t.Fatalf("duration = %v min, want 35", info.DurationMin)
	}
	if len(info.Legs) != 1 || info.Legs[0].FromAddress != "Stockholm" || info.Legs[0].ToAddress != "Uppsala" {
		t.Fatalf("legs = %+v", info.Legs)
	}
}

func TestRouteMultiStopLegs(t *testing.T) {
	srv := httptest.NewServer(osrmHandler(t, `{
		"code": "Ok",
		"routes": [{"distance": 30000, "duration": 1800,
			"legs": [
				{"distance": 10000, "duration": 600},
				{"distance": 20000, "duration": 1200}
			]}]
	}`, ""))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	info, err := c.Route(context.Background(),
		[]Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}},
		[]string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(info.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(info.Legs))
	}
	if info.Legs[1].FromAddress != "B" || info.Legs[1].DistanceKm != 20 {
		t.Fatalf("second leg = %+v", info.Legs[1])
	}
}

func TestRouteLegCountMismatch(t *testing.T) {
	srv := httptest.NewServer(osrmHandler(t, `{
		"code": "Ok",
		"routes": [{"distance": 30000, "duration": 1800,
			"legs": [{"distance": 30000, "duration": 1800}]}]
	}`, ""))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Route(context.Background(),
		[]Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}},
		[]string{"A", "B", "C"})
	if err == nil {
		t.Fatalf("expected error for leg count mismatch")
	}
}

func TestRouteProviderNotOk(t *testing.T) {
	srv := httptest.NewServer(osrmHandler(t, `{"code": "NoRoute", "routes": []}`, ""))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Route(context.Background(),
		[]Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, []string{"A", "B"})
	if err == nil {
		t.Fatalf("expected error for code NoRoute")
	}
}

func TestRouteNeedsTwoPoints(t *testing.T) {
	c := NewClient("http://localhost:1", time.Second)
	if _, err := c.Route(context.Background(), []Coordinate{{Lat: 1, Lng: 1}}, []string{"A"}); err == nil {
		t.Fatalf("expected error for single coordinate")
	}
	if _, err := c.Route(context.Background(),
		[]Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, []string{"A"}); err == nil {
		t.Fatalf("expected error for address/coordinate mismatch")
	}
}
