package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"places-backend/internal/httperror"
	"places-backend/internal/models"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query().Get("address")+"|"+r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGoogleResolve(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, `{
		"status": "OK",
		"results": [{"geometry": {"location": {"lat": 52.2297, "lng": 21.0122}}}]
	}`)

	g := NewGoogle("key-1", time.Second).WithBaseURL(srv.URL)
	loc, err := g.Resolve(context.Background(), "Warsaw, Poland")

	require.NoError(t, err)
	assert.Equal(t, models.Location{Lat: 52.2297, Lng: 21.0122}, loc)
	assert.Equal(t, []string{"Warsaw, Poland|key-1"}, *seen)
}

func TestGoogleResolveFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{"zero results", http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`, http.StatusUnprocessableEntity},
		{"ok but empty", http.StatusOK, `{"status": "OK", "results": []}`, http.StatusUnprocessableEntity},
		{"denied", http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`, http.StatusInternalServerError},
		{"http error", http.StatusBadGateway, `oops`, http.StatusInternalServerError},
		{"garbage", http.StatusOK, `not json`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			g := NewGoogle("key", time.Second).WithBaseURL(srv.URL)

			_, err := g.Resolve(context.Background(), "nowhere")
			require.Error(t, err)
			code, _ := httperror.Status(err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestStaticResolve(t *testing.T) {
	loc, err := StaticGeocoder{Location: DefaultLocation}.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, DefaultLocation, loc)
}
