package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/database"
	"places-backend/internal/geocode"
	"places-backend/internal/httperror"
	"places-backend/internal/middleware"
	"places-backend/internal/models"
	"places-backend/internal/uploads"
)

type createPlaceRequest struct {
	Title       string `form:"title" json:"title" binding:"notblank"`
	Description string `form:"description" json:"description" binding:"required,min=5"`
	Address     string `form:"address" json:"address" binding:"notblank"`
}

type updatePlaceRequest struct {
	Title       string `form:"title" json:"title" binding:"notblank"`
	Description string `form:"description" json:"description" binding:"required,min=5"`
}

func GetPlaceByID(store PlaceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		placeID, err := primitive.ObjectIDFromHex(c.Param("pid"))
		if err != nil {
			failWith(c, err, http.StatusNotFound, "Could not find a place for the provided id.")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		place, err := store.FindPlaceByID(ctx, placeID)
		if errors.Is(err, database.ErrNotFound) {
			fail(c, httperror.New(http.StatusNotFound, "Could not find a place for the provided id."))
			return
		}
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Something went wrong, could not find a place.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"place": place})
	}
}

// GetPlacesByUserID answers 404 both for an unknown user and for a user
// without places.
func GetPlacesByUserID(store PlaceStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const notFound = "Could not find places for the provided user id."

		userID, err := primitive.ObjectIDFromHex(c.Param("uid"))
		if err != nil {
			failWith(c, err, http.StatusNotFound, notFound)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		places, err := store.ListPlacesByUser(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			fail(c, httperror.Wrap(err, http.StatusNotFound, notFound))
			return
		}
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Fetching places failed, please try again later.")
			return
		}
		if len(places) == 0 {
			fail(c, httperror.New(http.StatusNotFound, notFound))
			return
		}

		c.JSON(http.StatusOK, gin.H{"places": places})
	}
}

// CreatePlace expects UserAuth and ImageUpload to have run. The creator is
// always the authenticated caller.
func CreatePlace(store PlaceStore, geocoder geocode.Geocoder, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/places"

		var req createPlaceRequest
		if !bindInput(c, &req, route, log) {
			return
		}

		userID, ok := middleware.UserID(c)
		if !ok {
			fail(c, httperror.New(http.StatusForbidden, "Authorization failed!!"))
			return
		}
		image, _ := middleware.UploadedFile(c)
		address := strings.TrimSpace(req.Address)

		location, err := geocoder.Resolve(c.Request.Context(), address)
		if err != nil {
			fail(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if _, err := store.FindUserByID(ctx, userID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				fail(c, httperror.Wrap(err, http.StatusNotFound, "Could not find user for provided id."))
				return
			}
			failWith(c, err, http.StatusInternalServerError, "Creating place failed, please try again.")
			return
		}

		place := models.Place{
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			Image:       image,
			Address:     address,
			Location:    location,
			Creator:     userID,
		}
		if err := store.CreatePlace(ctx, &place); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				fail(c, httperror.Wrap(err, http.StatusNotFound, "Could not find user for provided id."))
				return
			}
			failWith(c, err, http.StatusInternalServerError, "Creating place failed, please try again.")
			return
		}

		log.Infof("[PLACES] place %s created by %s", place.ID.Hex(), userID.Hex())
		c.JSON(http.StatusCreated, gin.H{"place": place, "message": "Place created."})
	}
}

// UpdatePlace changes title and description only, and only for the creator.
func UpdatePlace(store PlaceStore, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const (
			route      = "PATCH /api/places/:pid"
			loadFailed = "Something went wrong, could not update place."
		)

		var req updatePlaceRequest
		if !bindInput(c, &req, route, log) {
			return
		}

		userID, ok := middleware.UserID(c)
		if !ok {
			fail(c, httperror.New(http.StatusForbidden, "Authorization failed!!"))
			return
		}

		placeID, err := primitive.ObjectIDFromHex(c.Param("pid"))
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, loadFailed)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		place, err := store.FindPlaceByID(ctx, placeID)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, loadFailed)
			return
		}

		if place.Creator != userID {
			fail(c, httperror.New(http.StatusUnauthorized, "You are not allowed to edit this place."))
			return
		}

		place.Title = strings.TrimSpace(req.Title)
		place.Description = req.Description
		if err := store.UpdatePlace(ctx, place); err != nil {
			failWith(c, err, http.StatusInternalServerError, loadFailed)
			return
		}

		log.Infof("[PLACES] place %s updated by %s", place.ID.Hex(), userID.Hex())
		c.JSON(http.StatusOK, gin.H{"place": place})
	}
}

// DeletePlace removes the place and its image. Only the creator may delete.
func DeletePlace(store PlaceStore, images *uploads.Storage, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const (
			notFound = "Could not find place for this id."
			failed   = "Something went wrong, could not delete place."
		)

		userID, ok := middleware.UserID(c)
		if !ok {
			fail(c, httperror.New(http.StatusForbidden, "Authorization failed!!"))
			return
		}

		placeID, err := primitive.ObjectIDFromHex(c.Param("pid"))
		if err != nil {
			failWith(c, err, http.StatusNotFound, notFound)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		place, creator, err := store.FindPlaceWithCreator(ctx, placeID)
		if errors.Is(err, database.ErrNotFound) {
			fail(c, httperror.New(http.StatusNotFound, notFound))
			return
		}
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, failed)
			return
		}

		if creator.ID.IsZero() || creator.ID != userID {
			fail(c, httperror.New(http.StatusUnauthorized, "You are not allowed to delete this place."))
			return
		}

		if err := store.DeletePlace(ctx, place); err != nil {
			failWith(c, err, http.StatusInternalServerError, failed)
			return
		}

		images.Discard(place.Image)

		log.Infof("[PLACES] place %s deleted by %s", place.ID.Hex(), userID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "Deleted place."})
	}
}
