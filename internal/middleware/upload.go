package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"places-backend/internal/httperror"
	"places-backend/internal/uploads"
)

// UploadedFileKey holds the public path of the image stored for this request.
const UploadedFileKey = "uploadedFile"

const imageField = "image"

// ImageUpload stores the single image sent in the "image" form field and
// exposes its path under UploadedFileKey.
func ImageUpload(storage *uploads.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile(imageField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				_ = c.Error(httperror.New(http.StatusUnprocessableEntity, "An image is required."))
			} else {
				_ = c.Error(httperror.Wrap(err, http.StatusUnprocessableEntity, "Invalid multipart form."))
			}
			c.Abort()
			return
		}

		stored, err := storage.Save(file)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UploadedFileKey, stored)
		c.Next()
	}
}

// UploadedFile returns the path ImageUpload stored, if any.
func UploadedFile(c *gin.Context) (string, bool) {
	file := c.GetString(UploadedFileKey)
	return file, file != ""
}
