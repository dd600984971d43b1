package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"places-backend/internal/httperror"
	"places-backend/internal/models"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.Location, error)
}

// GoogleGeocoder queries the Google Geocoding API. Every call is a fresh request.
type GoogleGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogle(apiKey string, timeout time.Duration) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the geocoder at another endpoint, e.g. a test server.
func (g *GoogleGeocoder) WithBaseURL(baseURL string) *GoogleGeocoder {
	g.baseURL = baseURL
	return g
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location models.Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (models.Location, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return models.Location{}, unresolved(fmt.Errorf("build geocode request: %w", err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return models.Location{}, unresolved(fmt.Errorf("send geocode request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, unresolved(fmt.Errorf("geocode status %d", resp.StatusCode))
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Location{}, unresolved(fmt.Errorf("decode geocode response: %w", err))
	}

	switch {
	case body.Status == "ZERO_RESULTS", body.Status == "OK" && len(body.Results) == 0:
		return models.Location{}, httperror.New(http.StatusUnprocessableEntity,
			"Could not find location for the specified address.")
	case body.Status != "OK":
		return models.Location{}, unresolved(fmt.Errorf("geocode api status %s: %s", body.Status, body.ErrorMessage))
	}
	return body.Results[0].Geometry.Location, nil
}

func unresolved(err error) error {
	return httperror.Wrap(err, http.StatusInternalServerError, "Could not resolve the address.")
}

// StaticGeocoder answers every address with the same location. It stands in
// for Google when no API key is configured.
type StaticGeocoder struct {
	Location models.Location
}

// DefaultLocation is the Empire State Building.
var DefaultLocation = models.Location{Lat: 40.7484474, Lng: -73.9871516}

func (s StaticGeocoder) Resolve(ctx context.Context, address string) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, unresolved(err)
	}
	return s.Location, nil
}
