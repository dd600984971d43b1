package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"places-backend/internal/geocode"
	"places-backend/internal/handlers"
	"places-backend/internal/logger"
	"places-backend/internal/middleware"
	"places-backend/internal/uploads"
)

// Store is everything the routes need from persistence.
type Store interface {
	handlers.UserStore
	handlers.PlaceStore
	handlers.Pinger
}

type Deps struct {
	Store    Store
	Geocoder geocode.Geocoder
	Images   *uploads.Storage
	Tokens   handlers.TokenConfig
	Log      logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		logger.Requests(d.Log),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:    []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
			MaxAge:          12 * time.Hour,
		}),
		middleware.ErrorHandler(d.Images, d.Log),
		middleware.Recover(d.Log),
	)

	router.Static("/"+uploads.PublicPrefix, d.Images.Dir())
	router.NoRoute(middleware.NotFound)

	api := router.Group("/api")
	api.GET("/health", handlers.Health(d.Store))

	places := api.Group("/places")
	places.GET("/:pid", handlers.GetPlaceByID(d.Store))
	places.GET("/user/:uid", handlers.GetPlacesByUserID(d.Store))

	owned := places.Group("", middleware.UserAuth(d.Tokens.Secret, d.Log))
	owned.POST("", middleware.ImageUpload(d.Images), handlers.CreatePlace(d.Store, d.Geocoder, d.Log))
	owned.PATCH("/:pid", handlers.UpdatePlace(d.Store, d.Log))
	owned.DELETE("/:pid", handlers.DeletePlace(d.Store, d.Images, d.Log))
	owned.OPTIONS("", preflight)
	owned.OPTIONS("/:pid", preflight)

	users := api.Group("/users")
	users.GET("", handlers.GetUsers(d.Store, d.Log))
	users.POST("/signup", middleware.ImageUpload(d.Images), handlers.Signup(d.Store, d.Tokens, d.Log))
	users.POST("/login", handlers.Login(d.Store, d.Tokens, d.Log))

	return router
}

// preflight answers OPTIONS on protected routes when cors lets the request
// through, i.e. when it carries no Origin.
func preflight(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}
