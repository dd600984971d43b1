package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/sirupsen/logrus"

	"places-backend/internal/httperror"
)

const invalidInputsMessage = "Invalid inputs passed, please check your data."

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	}
}

// bindInput binds the JSON or multipart body into req and reports any
// failure as a 422.
func bindInput(c *gin.Context, req interface{}, route string, log logrus.FieldLogger) bool {
	if err := c.ShouldBind(req); err != nil {
		log.Warnf("[%s] invalid input: %s", route, strings.Join(validationDetails(err), ", "))
		fail(c, httperror.Wrap(err, http.StatusUnprocessableEntity, invalidInputsMessage))
		return false
	}
	return true
}

func validationDetails(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := lowerCamel(fieldError.Field())
		switch fieldError.Tag() {
		case "required", "notblank":
			details = append(details, fmt.Sprintf("%s is required", field))
		case "min":
			details = append(details, fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param()))
		case "email":
			details = append(details, fmt.Sprintf("%s must be a valid email", field))
		default:
			details = append(details, fmt.Sprintf("%s is invalid", field))
		}
	}
	return details
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
