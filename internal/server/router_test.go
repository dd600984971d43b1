package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/database/dbtest"
	"places-backend/internal/geocode"
	"places-backend/internal/handlers"
	"places-backend/internal/uploads"
)

type app struct {
	router *gin.Engine
	store  *dbtest.MemStore
	images *uploads.Storage
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	store := dbtest.NewMemStore()
	images := uploads.NewStorage(filepath.Join(t.TempDir(), "images"), log)

	router := NewRouter(Deps{
		Store:    store,
		Geocoder: geocode.StaticGeocoder{Location: geocode.DefaultLocation},
		Images:   images,
		Tokens:   handlers.TokenConfig{Secret: "router-secret", TTL: time.Hour},
		Log:      log,
	})
	return &app{router: router, store: store, images: images}
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, imageType string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if imageType != "" {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {`form-data; name="image"; filename="upload"`},
			"Content-Type":        {imageType},
		})
		require.NoError(t, err)
		_, _ = part.Write([]byte("fake image bytes"))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (a *app) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

type session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func (a *app) signup(t *testing.T, name, email string) session {
	t.Helper()
	rec := a.serve(multipartRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": name, "email": email, "password": "secret1",
	}, "image/png"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var s session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func (a *app) createPlace(t *testing.T, token, title string) string {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/places", map[string]string{
		"title": title, "description": "Worth a visit", "address": "20 W 34th St, New York",
	}, "image/jpeg")
	req.Header.Set("Authorization", "Bearer "+token)

	rec := a.serve(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Place struct {
			ID string `json:"id"`
		} `json:"place"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Place.ID
}

func imageCount(t *testing.T, images *uploads.Storage) int {
	t.Helper()
	entries, err := os.ReadDir(images.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestSignupAndLoginFlow(t *testing.T) {
	a := newApp(t)
	s := a.signup(t, "Max", "max@test.com")
	assert.NotEmpty(t, s.Token)
	assert.NotEmpty(t, s.UserID)

	rec := a.serve(jsonRequest(t, http.MethodPost, "/api/users/login", map[string]string{
		"email": "max@test.com", "password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var login session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, s.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)
}

func TestDuplicateSignupRemovesUploadedAvatar(t *testing.T) {
	a := newApp(t)
	a.signup(t, "Max", "max@test.com")
	require.Equal(t, 1, imageCount(t, a.images))

	rec := a.serve(multipartRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Maxine", "email": "max@test.com", "password": "another1",
	}, "image/png"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, imageCount(t, a.images))
}

func TestCreatePlaceWithoutTokenIsForbidden(t *testing.T) {
	a := newApp(t)

	rec := a.serve(multipartRequest(t, http.MethodPost, "/api/places", map[string]string{
		"title": "Nope", "description": "No token here", "address": "Nowhere",
	}, "image/png"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Authorization failed!!"}`, rec.Body.String())
	assert.Zero(t, imageCount(t, a.images))
}

func TestPlaceLifecycle(t *testing.T) {
	a := newApp(t)
	owner := a.signup(t, "Max", "max@test.com")
	other := a.signup(t, "Manu", "manu@test.com")

	placeID := a.createPlace(t, owner.Token, "Empire State Building")

	rec := a.serve(httptest.NewRequest(http.MethodGet, "/api/places/user/"+owner.UserID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), placeID)

	var fetched struct {
		Place struct {
			Creator string `json:"creator"`
			Image   string `json:"image"`
		} `json:"place"`
	}
	rec = a.serve(httptest.NewRequest(http.MethodGet, "/api/places/"+placeID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, owner.UserID, fetched.Place.Creator)

	image := a.serve(httptest.NewRequest(http.MethodGet, "/"+fetched.Place.Image, nil))
	assert.Equal(t, http.StatusOK, image.Code)
	assert.Equal(t, "fake image bytes", image.Body.String())

	req := jsonRequest(t, http.MethodPatch, "/api/places/"+placeID, map[string]string{
		"title": "Hijacked", "description": "Not yours",
	})
	req.Header.Set("Authorization", "Bearer "+other.Token)
	assert.Equal(t, http.StatusUnauthorized, a.serve(req).Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/places/"+placeID, nil)
	req.Header.Set("Authorization", "Bearer "+other.Token)
	assert.Equal(t, http.StatusUnauthorized, a.serve(req).Code)

	req = jsonRequest(t, http.MethodPatch, "/api/places/"+placeID, map[string]string{
		"title": "ESB", "description": "Still tall",
	})
	req.Header.Set("Authorization", "Bearer "+owner.Token)
	rec = a.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"ESB"`)

	imagesBefore := imageCount(t, a.images)
	req = httptest.NewRequest(http.MethodDelete, "/api/places/"+placeID, nil)
	req.Header.Set("Authorization", "Bearer "+owner.Token)
	rec = a.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, imagesBefore-1, imageCount(t, a.images))

	rec = a.serve(httptest.NewRequest(http.MethodGet, "/api/places/"+placeID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePlaceRollbackRemovesImage(t *testing.T) {
	a := newApp(t)
	owner := a.signup(t, "Max", "max@test.com")
	a.store.FailCreatorUpdate = errors.New("write conflict")

	req := multipartRequest(t, http.MethodPost, "/api/places", map[string]string{
		"title": "Half", "description": "Never finished", "address": "Somewhere",
	}, "image/png")
	req.Header.Set("Authorization", "Bearer "+owner.Token)

	rec := a.serve(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, a.store.PlaceCount())
	assert.Equal(t, 1, imageCount(t, a.images), "only the avatar should remain")

	rec = a.serve(httptest.NewRequest(http.MethodGet, "/api/places/user/"+owner.UserID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	a := newApp(t)

	rec := a.serve(httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Could not find this route."}`, rec.Body.String())
}

func TestCORSHeaders(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/places", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := a.serve(req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	// httptest requests default to Host example.com, so use another origin.
	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = a.serve(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptionsOnProtectedRoutesSkipsAuth(t *testing.T) {
	a := newApp(t)
	placeURL := "/api/places/" + primitive.NewObjectID().Hex()

	for _, path := range []string{"/api/places", placeURL} {
		rec := a.serve(httptest.NewRequest(http.MethodOptions, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)

		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec = a.serve(req)
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestHealth(t *testing.T) {
	a := newApp(t)

	rec := a.serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	a.store.FailOn("Ping", fmt.Errorf("server selection timeout"))
	rec = a.serve(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
