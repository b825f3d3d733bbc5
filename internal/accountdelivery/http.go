// Package accountdelivery manages delivery layer of accounts and recipients.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Provision(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
}

// Resolver provides recipient lookup needed by account delivery layer.
type Resolver interface {
	Recipient(ctx context.Context, input string) (domain.Recipient, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service  Service
	resolver Resolver
}

// NewHandler returns account handler.
func NewHandler(as Service, r Resolver) *Handler {
	return &Handler{service: as, resolver: r}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data"`
}

type createRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
}

// Create handles http request to provision the wallet account of the
// authenticated user. The account id is the token subject.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
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

	account, err := h.service.Provision(ctx, domain.CreateAccountParams{
		ID:          accountID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{account}})
}

// Get handles http request to return the authenticated account with its balance.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	accountID, err := middleware.AccountID(gctx)
	if err != nil {
		gctx.JSON(http.StatusUnauthorized, web.UnauthorizedResponse(err))
		return
	}

	account, err := h.service.Get(ctx, accountID)
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

type recipientRequest struct {
	Query string `form:"q" binding:"required,max=254"`
}

type recipientResponse struct {
	Data domain.Recipient `json:"data"`
}

// Recipient handles http request to look up a recipient before a transfer.
func (h *Handler) Recipient(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req recipientRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.BindingError(err))

		return
	}

	recipient, err := h.resolver.Recipient(ctx, req.Query)
	if err != nil {
		web.RespondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, recipientResponse{Data: recipient})
}
