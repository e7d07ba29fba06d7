package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"courier-api/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// statusFor maps error kinds to HTTP statuses in one place.
var statusFor = map[apperrors.Kind]int{
	apperrors.KindValidation:        http.StatusBadRequest,
	apperrors.KindForbidden:         http.StatusForbidden,
	apperrors.KindInvalidTransition: http.StatusUnprocessableEntity,
	apperrors.KindConflict:          http.StatusConflict,
	apperrors.KindNotFound:          http.StatusNotFound,
	apperrors.KindAlreadyCompleted:  http.StatusConflict,
	apperrors.KindInternal:          http.StatusInternalServerError,
}

// fail writes an error response. Non-apperrors errors (raw DB failures and
// the like) are flattened to a generic 500 so their text never leaks.
func fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	msg := err.Error()
	if kind == apperrors.KindInternal {
		if _, ok := err.(*apperrors.Error); !ok {
			msg = "Internal server error"
		}
	}
	c.JSON(statusFor[kind], gin.H{"error": msg})
}

// pagination reads ?page and ?limit with sane bounds.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,19}$`)

func validPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// newTrackingID mints a human-readable unique shipment code.
func newTrackingID() string {
	return "TRK-" + shortCode()
}

// newManifestCode mints a manifest code.
func newManifestCode() string {
	return "MAN-" + shortCode()
}

func shortCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
