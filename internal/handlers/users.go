package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"places-backend/internal/database"
	"places-backend/internal/httperror"
	"places-backend/internal/middleware"
	"places-backend/internal/models"
)

type signupRequest struct {
	Name     string `form:"name" json:"name" binding:"notblank"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// TokenConfig is what the user routes need to sign session tokens.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func GetUsers(store UserStore, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		users, err := store.ListUsers(ctx)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Fetching users failed, please try again later.")
			return
		}

		log.Debugf("[USERS] returning %d users", len(users))
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// Signup expects the avatar to have been stored by middleware.ImageUpload.
func Signup(store UserStore, tokens TokenConfig, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/signup"

		var req signupRequest
		if !bindInput(c, &req, route, log) {
			return
		}
		email := normalizeEmail(req.Email)
		image, _ := middleware.UploadedFile(c)

		ctx, cancel := requestContext(c)
		defer cancel()

		_, err := store.FindUserByEmail(ctx, email)
		switch {
		case err == nil:
			fail(c, httperror.New(http.StatusUnprocessableEntity, "User exists already, please login instead."))
			return
		case !errors.Is(err, database.ErrNotFound):
			failWith(c, err, http.StatusInternalServerError, "Signing up failed, please try again later.")
			return
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Could not create user, please try again.")
			return
		}

		user := models.User{
			Name:     strings.TrimSpace(req.Name),
			Email:    email,
			Password: hash,
			Image:    image,
		}
		if err := store.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, database.ErrDuplicateEmail) {
				fail(c, httperror.Wrap(err, http.StatusUnprocessableEntity, "User exists already, please login instead."))
				return
			}
			failWith(c, err, http.StatusInternalServerError, "Signing up failed, please try again later.")
			return
		}

		token, err := issueUserToken(user.ID, user.Email, tokens.Secret, tokens.TTL)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Signing up failed, please try again later.")
			return
		}

		log.Infof("[USERS] user signed up: %s", user.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"userId": user.ID.Hex(),
			"email":  user.Email,
			"token":  token,
		})
	}
}

// Login answers 401 for an unknown email and 403 for a wrong password.
func Login(store UserStore, tokens TokenConfig, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/login"

		var req loginRequest
		if !bindInput(c, &req, route, log) {
			return
		}
		email := normalizeEmail(req.Email)
		if email == "" {
			fail(c, httperror.New(http.StatusUnauthorized, "Invalid credentials, could not log you in."))
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := store.FindUserByEmail(ctx, email)
		if errors.Is(err, database.ErrNotFound) {
			fail(c, httperror.New(http.StatusUnauthorized, "Invalid credentials, could not log you in."))
			return
		}
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Logging in failed, please try again later.")
			return
		}

		valid, err := verifyPassword(req.Password, user.Password)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Could not log you in, please check your credentials and try again.")
			return
		}
		if !valid {
			fail(c, httperror.New(http.StatusForbidden, "Invalid credentials, could not log you in."))
			return
		}

		token, err := issueUserToken(user.ID, user.Email, tokens.Secret, tokens.TTL)
		if err != nil {
			failWith(c, err, http.StatusInternalServerError, "Logging in failed, please try again later.")
			return
		}

		log.Infof("[USERS] user logged in: %s", user.ID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"userId": user.ID.Hex(),
			"email":  user.Email,
			"token":  token,
		})
	}
}
