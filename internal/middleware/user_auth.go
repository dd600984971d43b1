package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/httperror"
)

// UserIDKey is the gin context key holding the caller's primitive.ObjectID.
const UserIDKey = "userId"

const authFailedMessage = "Authorization failed!!"

// UserAuth validates the bearer token and injects the userId into the context.
// Pre-flight OPTIONS requests are let through untouched.
func UserAuth(secret string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		userID, reason := authenticate(c.GetHeader("Authorization"), secret)
		if reason != "" {
			log.Warnf("[AUTH] %s %s rejected: %s", c.Request.Method, c.Request.URL.Path, reason)
			_ = c.Error(httperror.New(http.StatusForbidden, authFailedMessage))
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// authenticate returns the token's user id, or a non-empty reason it was refused.
func authenticate(header, secret string) (primitive.ObjectID, string) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return primitive.NilObjectID, "missing token"
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return primitive.NilObjectID, "invalid token format"
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return primitive.NilObjectID, "token validation failed"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, "token claims invalid"
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return primitive.NilObjectID, "userId claim missing"
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return primitive.NilObjectID, "invalid userId claim"
	}
	return userID, ""
}

// UserID returns the id UserAuth stored for this request.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}
