// Package handlers translates HTTP requests into service calls.
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tripmind/middleware"
	"tripmind/services"

	"github.com/gin-gonic/gin"
)

const (
	dbTimeout = 10 * time.Second

	msgServerError = "Server error."
	msgBadBody     = "Invalid request body."
)

// ImageUploader stores an uploaded image and returns its public URL.
type ImageUploader interface {
	Configured() bool
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
}

// Handler holds the services every route delegates to.
type Handler struct {
	Auth      *services.AuthService
	Trips     *services.TripService
	Community *services.CommunityService
	Planner   *services.Planner
	Images    ImageUploader
	// StoreState names the current state of the backing store for /health.
	StoreState func() string
	Log        *slog.Logger
}

// bindJSON decodes the body into dst. An empty body leaves dst zeroed so
// the service reports the missing fields.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// userID is the id of the bearer token's user, or "".
func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func dbContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), dbTimeout)
}

var statusByKind = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindConflict:   http.StatusBadRequest,
	services.KindAuth:       http.StatusBadRequest,
	services.KindNotFound:   http.StatusNotFound,
}

// fail writes err as {message}. Unexpected errors are logged and
// replaced by a generic message.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, msg := h.classify(c, op, err)
	c.JSON(status, gin.H{"message": msg})
}

// failAuth is fail with the {success:false, message} envelope used by
// the auth routes.
func (h *Handler) failAuth(c *gin.Context, op string, err error) {
	status, msg := h.classify(c, op, err)
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func (h *Handler) classify(c *gin.Context, op string, err error) (int, string) {
	if se, ok := services.AsError(err); ok {
		if status, ok := statusByKind[se.Kind]; ok {
			return status, se.Message
		}
	}
	h.Log.ErrorContext(c.Request.Context(), op+" failed",
		"error", err,
		"req_id", c.GetString(middleware.RequestIDKey),
	)
	return http.StatusInternalServerError, msgServerError
}
