package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"places-backend/internal/httperror"
)

const requestTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// fail records err for the central error handler and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func failWith(c *gin.Context, err error, code int, message string) {
	fail(c, httperror.Wrap(err, code, message))
}
