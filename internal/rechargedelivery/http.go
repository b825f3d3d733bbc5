// Package rechargedelivery manages delivery layer of recharges.
package rechargedelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the body.
const IdempotencyKeyHeader = "Idempotency-Key"

// Service provides service layer interface needed by recharge delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package rechargedelivery
type Service interface {
	Recharge(ctx context.Context, p domain.RechargeParams) (domain.LedgerEntry, error)
}

// Handler facilitates recharge delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns recharge handler.
func NewHandler(rs Service) *Handler {
	return &Handler{
		service: rs,
	}
}

type request struct {
	Amount         string `json:"amount" binding:"required,money"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=128"`
}

type data struct {
	Entry domain.LedgerEntry `json:"entry"`
}

type response struct {
	Data data `json:"data"`
}

// Create handles http request to top up the authenticated account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	accountID, err := middleware.AccountID(gctx)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.UnauthorizedResponse(err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		web.RespondError(gctx, domain.ErrInvalidAmount)
		return
	}

	key := req.IdempotencyKey
	if header := gctx.GetHeader(IdempotencyKeyHeader); header != "" {
		key = header
	}

	entry, err := h.service.Recharge(ctx, domain.RechargeParams{
		AccountID:      accountID,
		Amount:         amount,
		IdempotencyKey: key,
	})
	if err != nil {
		l.Info().Err(err).Send()
		web.RespondError(gctx, err)

		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{entry}})
}
