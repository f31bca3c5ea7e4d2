package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/apperr"
	"avenue/internal/middleware"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}

// respondError maps err onto the error envelope. Internal error strings are
// only exposed on admin routes.
func respondError(c *gin.Context, err error, exposeInternal bool) {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.Wrap(apperr.KindInternal, err, "")
	}
	status := apperr.Status(appErr.Kind)
	message := appErr.Message
	if message == "" || appErr.Kind == apperr.KindInternal {
		message = apperr.PublicMessage(appErr.Kind)
	}

	body := gin.H{"message": message}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	if appErr.Kind == apperr.KindInternal {
		_ = c.Error(err)
		if exposeInternal {
			body["error"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func fail(c *gin.Context, err error)      { respondError(c, err, false) }
func failAdmin(c *gin.Context, err error) { respondError(c, err, true) }

// bindJSON binds the request body into dst and answers 400 with per-field
// details when binding fails.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "max":
				details = append(details, fmt.Sprintf("%s must have %s length %s", field, fieldError.Tag(), fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		return apperr.Validation("validation failed").WithDetails(details)
	}
	return apperr.Validation("invalid request body")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// currentUser reads the id set by middleware.UserAuth.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		fail(c, apperr.New(apperr.KindUnauthorized, "Unauthorized"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondOK(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, message, data)
}

func respondCreated(c *gin.Context, message string, data any) {
	respond(c, http.StatusCreated, message, data)
}
