package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"places-backend/internal/httperror"
	"places-backend/internal/uploads"
)

// ErrorHandler turns the last error recorded on the context into a
// {"message": ...} response. An image uploaded during the failed request is
// removed first.
func ErrorHandler(storage *uploads.Storage, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		if file, ok := UploadedFile(c); ok {
			storage.Discard(file)
		}

		code, message := httperror.Status(last.Err)
		entry := log.WithFields(logrus.Fields{"method": c.Request.Method, "path": c.Request.URL.Path, "status": code})
		if code >= http.StatusInternalServerError {
			entry.Errorf("[HTTP] %v", last.Err)
		} else {
			entry.Debugf("[HTTP] %v", last.Err)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(code, gin.H{"message": message})
	}
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	_ = c.Error(httperror.New(http.StatusNotFound, "Could not find this route."))
	c.Abort()
}

// Recover turns a panic in a later handler into a recorded 500, so that
// ErrorHandler still answers and removes the request's upload. It must be
// mounted after ErrorHandler.
func Recover(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Errorf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		_ = c.Error(httperror.Wrap(fmt.Errorf("panic: %v", recovered), http.StatusInternalServerError, httperror.DefaultMessage))
		c.Abort()
	})
}
