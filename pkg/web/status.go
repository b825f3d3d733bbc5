package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// RetryAfterSeconds is advertised to callers whose operation may be resubmitted.
const RetryAfterSeconds = "1"

// Status maps err to the HTTP status code of its kind.
func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAmbiguousRecipient, domain.KindConcurrentModification:
		return http.StatusConflict
	case domain.KindInsufficientFunds, domain.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case domain.KindCanceled:
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// RespondError writes err as a structured error response.
func RespondError(gctx *gin.Context, err error) {
	if domain.IsRetryable(err) {
		gctx.Header("Retry-After", RetryAfterSeconds)
	}

	gctx.JSON(Status(err), ErrorResponse(err))
}
