package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/database/dbtest"
	"places-backend/internal/middleware"
	"places-backend/internal/models"
	"places-backend/internal/uploads"
)

var testTokens = TokenConfig{Secret: "test-secret", TTL: time.Hour}

type testEnv struct {
	router *gin.Engine
	store  *dbtest.MemStore
	images *uploads.Storage
	log    logrus.FieldLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	images := uploads.NewStorage(filepath.Join(t.TempDir(), "images"), log)
	router := gin.New()
	router.Use(middleware.ErrorHandler(images, log))

	return &testEnv{router: router, store: dbtest.NewMemStore(), images: images, log: log}
}

// asCaller stands in for UserAuth.
func asCaller(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedUser(t *testing.T, email, password string) models.User {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	user := models.User{Name: "Max", Email: email, Password: hash, Image: "uploads/images/max.png"}
	require.NoError(t, e.store.CreateUser(context.Background(), &user))
	return user
}

func (e *testEnv) seedPlace(t *testing.T, creator primitive.ObjectID, title string) models.Place {
	t.Helper()
	place := models.Place{
		Title:       title,
		Description: "A lovely spot",
		Address:     "20 W 34th St, New York",
		Location:    models.Location{Lat: 40.7484474, Lng: -73.9871516},
		Image:       "uploads/images/place.png",
		Creator:     creator,
	}
	require.NoError(t, e.store.CreatePlace(context.Background(), &place))
	return place
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}
