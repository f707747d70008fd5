// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/errorspkg"
	"github.com/go-petr/ledger/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, category domain.Category) (domain.Account, error)
	Login(ctx context.Context, id, password string) (domain.Account, error)
	Deposit(ctx context.Context, id, password string, amount decimal.Decimal) (domain.Account, error)
	Withdraw(ctx context.Context, id, password string, amount decimal.Decimal) (domain.Account, error)
	Send(ctx context.Context, arg domain.SendParams) (domain.SendResult, error)
	Delete(ctx context.Context, id, password string) error
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type transferData struct {
	Transfer domain.SendResult `json:"transfer"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

type createRequest struct {
	Category string `json:"category" binding:"required,category"`
}

// Create handles http request to create account.
//
// It is the only response that carries the generated password.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	acc, err := h.service.Create(ctx, domain.Category(req.Category))
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{acc}})
}

// Get handles http request to get the authenticated account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	creds := gctx.MustGet(middleware.AuthCredentialsKey).(middleware.Credentials)

	acc, err := h.service.Login(ctx, creds.AccountID, creds.Password)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{withoutPassword(acc)}})
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required,numeric"`
}

// Deposit handles http request to add money to the authenticated account.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.changeBalance(gctx, h.service.Deposit)
}

// Withdraw handles http request to take money from the authenticated account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.changeBalance(gctx, h.service.Withdraw)
}

type balanceFunc func(ctx context.Context, id, password string, amount decimal.Decimal) (domain.Account, error)

func (h *Handler) changeBalance(gctx *gin.Context, fn balanceFunc) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

		return
	}

	creds := gctx.MustGet(middleware.AuthCredentialsKey).(middleware.Credentials)

	acc, err := fn(ctx, creds.AccountID, creds.Password, amount)
	if err != nil {
		respondError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{withoutPassword(acc)}})
}

type transferRequest struct {
	ToAccountID string `json:"to_account_id" binding:"required"`
	ToPassword  string `json:"to_password" binding:"required"`
	Amount      string `json:"amount" binding:"required,numeric"`
}

// Transfer handles http request to send money from the authenticated account to another one.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

		return
	}

	creds := gctx.MustGet(middleware.AuthCredentialsKey).(middleware.Credentials)

	arg := domain.SendParams{
		FromAccountID: creds.AccountID,
		FromPassword:  creds.Password,
		ToAccountID:   req.ToAccountID,
		ToPassword:    req.ToPassword,
		Amount:        amount,
	}

	result, err := h.service.Send(ctx, arg)
	if err != nil {
		respondError(gctx, err)
		return
	}

	result.FromAccount = withoutPassword(result.FromAccount)
	result.ToAccount = withoutPassword(result.ToAccount)

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{result}})
}

// Delete handles http request to delete the authenticated account.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	creds := gctx.MustGet(middleware.AuthCredentialsKey).(middleware.Credentials)

	if err := h.service.Delete(ctx, creds.AccountID, creds.Password); err != nil {
		respondError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

func respondError(gctx *gin.Context, err error) {
	switch err {
	case domain.ErrAccountNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case domain.ErrInsufficientFunds:
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	case domain.ErrInvalidAmount,
		domain.ErrNonPositiveAmount,
		domain.ErrInvalidCategory,
		domain.ErrSameAccount:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	default:
		_ = gctx.Error(err)
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

func bindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + web.GetErrorMsg(field)
	}

	return err.Error()
}

func withoutPassword(a domain.Account) domain.Account {
	a.Password = ""
	return a
}
