package api

import (
	"errors"   // Sentinel error matching
	"net/http" // HTTP status codes
	"strings"  // Header inspection

	"tabshare/internal/content"  // Content store errors
	"tabshare/internal/identity" // Identity store errors
	"tabshare/internal/relation" // Relationship engine errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// wantsJSON reports whether the caller is programmatic (AJAX or an explicit
// JSON request) rather than a browser form submission. Programmatic callers
// get JSON bodies; browsers get redirects on toggle and auth flows.
func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.ContentType() == "application/json"
}

// statusFor maps store and engine errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrValidation), errors.Is(err, content.ErrValidation),
		errors.Is(err, relation.ErrSelfFollow):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, content.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, content.ErrNotFound),
		errors.Is(err, relation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrDuplicate), errors.Is(err, relation.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes an error response. Known domain errors surface with their
// message; anything unexpected is logged in full and answered with a generic
// body so internal failure details never leak.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Log the real error, answer generically
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// backTo redirects a browser caller to its Referer, or to fallback when the
// request carried none
func backTo(c *gin.Context, fallback string) {
	target := c.GetHeader("Referer")
	if target == "" {
		target = fallback
	}
	c.Redirect(http.StatusFound, target)
}
