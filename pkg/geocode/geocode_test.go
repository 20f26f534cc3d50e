package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "dupefinder-test", 2*time.Second, zap.NewNop())
}

func TestGeocodeResolvesFirstHit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "dupefinder-test" {
			t.Errorf("User-Agent = %q, want dupefinder-test", got)
		}
		if got := r.URL.Query().Get("q"); got != "14 Cowley Road, Oxford" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`[{"lat":"51.7440","lon":"-1.2350"},{"lat":"0","lon":"0"}]`))
	})

	loc, err := client.Geocode(context.Background(), "14 Cowley Road, Oxford")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}
	if loc == nil || loc.Latitude != 51.7440 || loc.Longitude != -1.2350 {
		t.Errorf("Geocode() = %+v, want first hit", loc)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	loc, err := client.Geocode(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}
	if loc != nil {
		t.Errorf("Geocode() = %+v, want nil for unresolvable address", loc)
	}
}

func TestGeocodeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.Geocode(context.Background(), "14 Cowley Road"); err == nil {
		t.Error("Geocode() did not surface a server error")
	}
}

func TestNoopNeverResolves(t *testing.T) {
	loc, err := Noop{}.Geocode(context.Background(), "14 Cowley Road")
	if err != nil || loc != nil {
		t.Errorf("Noop.Geocode() = %v, %v, want nil, nil", loc, err)
	}
}
