// Package historydelivery manages delivery layer of the account history.
package historydelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// Service provides service layer interface needed by history delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package historydelivery
type Service interface {
	List(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error)
	Statistics(ctx context.Context, accountID string, months int) (domain.Statistics, error)
}

// ActivityLister provides the security activity of an account.
type ActivityLister interface {
	List(ctx context.Context, accountID string, limit int32) ([]domain.Activity, error)
}

// Handler facilitates history delivery layer logic.
type Handler struct {
	service  Service
	activity ActivityLister
}

// NewHandler returns history handler.
func NewHandler(hs Service, al ActivityLister) *Handler {
	return &Handler{service: hs, activity: al}
}

type listEntriesRequest struct {
	Since    time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	BeforeID string    `form:"before_id" binding:"omitempty,max=64"`
	Limit    int32     `form:"limit" binding:"min=0,max=100"`
}

type entriesData struct {
	Entries []domain.LedgerEntry `json:"entries"`
	// NextCursor is the before_id restarting the listing after this page.
	NextCursor string `json:"next_cursor,omitempty"`
}

type entriesResponse struct {
	Data entriesData `json:"data"`
}

// ListEntries handles http request to list the entries touching the
// authenticated account, newest first.
func (h *Handler) ListEntries(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listEntriesRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	accountID, err := middleware.AccountID(gctx)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.UnauthorizedResponse(err))
		return
	}

	entries, err := h.service.List(ctx, domain.ListEntriesParams{
		AccountID: accountID,
		Since:     req.Since,
		BeforeID:  req.BeforeID,
		Limit:     req.Limit,
	})
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	res := entriesResponse{Data: entriesData{Entries: entries}}
	if len(entries) > 0 {
		res.Data.NextCursor = entries[len(entries)-1].ID
	}

	gctx.JSON(http.StatusOK, res)
}

type statisticsRequest struct {
	Months int `form:"months" binding:"min=0,max=24"`
}

type statisticsData struct {
	Statistics domain.Statistics `json:"statistics"`
}

type statisticsResponse struct {
	Data statisticsData `json:"data"`
}

// Statistics handles http request to summarize income and expenses of the
// authenticated account per calendar month.
func (h *Handler) Statistics(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req statisticsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	accountID, err := middleware.AccountID(gctx)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.UnauthorizedResponse(err))
		return
	}

	stats, err := h.service.Statistics(ctx, accountID, req.Months)
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, statisticsResponse{Data: statisticsData{stats}})
}

type activityRequest struct {
	Limit int32 `form:"limit" binding:"min=0,max=100"`
}

type activityData struct {
	Activity []domain.Activity `json:"activity"`
}

type activityResponse struct {
	Data activityData `json:"data"`
}

// Activity handles http request to list the security activity of the
// authenticated account.
func (h *Handler) Activity(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req activityRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	accountID, err := middleware.AccountID(gctx)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.UnauthorizedResponse(err))
		return
	}

	activity, err := h.activity.List(ctx, accountID, req.Limit)
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	if activity == nil {
		activity = []domain.Activity{}
	}

	gctx.JSON(http.StatusOK, activityResponse{Data: activityData{activity}})
}
