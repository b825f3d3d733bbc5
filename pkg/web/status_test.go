package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-wallet/internal/domain"
)

func TestRespondError(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    domain.ErrorKind
		wantMessage string
		wantRetry   bool
	}{
		{
			name:        "Validation",
			err:         domain.ErrSelfTransfer,
			wantStatus:  http.StatusBadRequest,
			wantKind:    domain.KindValidation,
			wantMessage: domain.ErrSelfTransfer.Error(),
		},
		{
			name:        "NotFound",
			err:         domain.ErrRecipientNotFound,
			wantStatus:  http.StatusNotFound,
			wantKind:    domain.KindNotFound,
			wantMessage: domain.ErrRecipientNotFound.Error(),
		},
		{
			name:        "Ambiguous",
			err:         domain.ErrAmbiguousRecipient,
			wantStatus:  http.StatusConflict,
			wantKind:    domain.KindAmbiguousRecipient,
			wantMessage: domain.ErrAmbiguousRecipient.Error(),
		},
		{
			name:        "LimitExceeded",
			err:         &domain.LimitExceededError{Window: domain.WindowMonthly},
			wantStatus:  http.StatusUnprocessableEntity,
			wantKind:    domain.KindLimitExceeded,
			wantMessage: "monthly limit exceeded",
		},
		{
			name:        "ConcurrentModification",
			err:         domain.ErrConcurrentModification,
			wantStatus:  http.StatusConflict,
			wantKind:    domain.KindConcurrentModification,
			wantMessage: domain.ErrConcurrentModification.Error(),
			wantRetry:   true,
		},
		{
			name:        "DeadlineBeforeCommit",
			err:         context.DeadlineExceeded,
			wantStatus:  http.StatusServiceUnavailable,
			wantKind:    domain.KindCanceled,
			wantMessage: context.DeadlineExceeded.Error(),
			wantRetry:   true,
		},
		{
			name:        "InternalDetailsHidden",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantKind:    domain.KindPersistence,
			wantMessage: domain.ErrPersistence.Error(),
		},
	}

	gin.SetMode(gin.TestMode)

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			gctx, _ := gin.CreateTestContext(recorder)

			RespondError(gctx, tc.err)

			require.Equal(t, tc.wantStatus, recorder.Code)
			require.Equal(t, tc.wantRetry, recorder.Header().Get("Retry-After") != "")

			got := Error(tc.err)
			require.Equal(t, tc.wantKind, got.Kind)
			require.Equal(t, tc.wantMessage, got.Message)
		})
	}
}
