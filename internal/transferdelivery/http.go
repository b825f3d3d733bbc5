// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

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

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, p domain.TransferParams) (domain.LedgerEntry, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	Recipient      string `json:"recipient" binding:"required,max=254"`
	Amount         string `json:"amount" binding:"required,money"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=128"`
}

type data struct {
	Entry domain.LedgerEntry `json:"entry"`
}

type response struct {
	Data data `json:"data"`
}

// Create handles http request to transfer funds from the authenticated
// account to the recipient.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	senderID, err := middleware.AccountID(gctx)
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

	entry, err := h.service.Transfer(ctx, domain.TransferParams{
		SenderID:       senderID,
		Recipient:      req.Recipient,
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
