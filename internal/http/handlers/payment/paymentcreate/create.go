// Package paymentcreate оформляет покупку тарифа: создаёт заказ у платёжного
// шлюза и ожидающий платёж. Free Trial оформляется сразу, без шлюза.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	services "github.com/magabrotheeeer/reflect-accounts/internal/services/payment"
)

// Request параметры покупки. Сумма в рупиях.
type Request struct {
	Plan     string `json:"plan" validate:"required"`
	Amount   int    `json:"amount" validate:"min=0"`
	Currency string `json:"currency"`
}

// Response заказ у шлюза либо оформленный пробный период.
type Response struct {
	response.Response
	OrderID  string           `json:"order_id,omitempty"`
	Amount   int64            `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
	KeyID    string           `json:"key_id,omitempty"`
	Plan     plan.Tier        `json:"plan"`
	User     *models.UserView `json:"user,omitempty"`
}

// Service описывает оформление покупки.
type Service interface {
	CreateOrder(ctx context.Context, userID int64, tier plan.Tier, amount int, currency string) (*services.OrderResult, error)
}

// Handler обрабатывает POST /api/create-payment.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid plan selected"))
		return
	}

	res, err := h.service.CreateOrder(r.Context(), user.ID, plan.Tier(req.Plan), req.Amount, req.Currency)
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to create payment order")
		return
	}

	out := Response{
		Response: response.Response{Success: true, Message: res.Message},
		OrderID:  res.OrderID,
		Amount:   res.Amount,
		Currency: res.Currency,
		KeyID:    res.KeyID,
		Plan:     res.Plan,
	}
	if res.User != nil {
		view := res.User.View()
		out.User = &view
	}
	response.Write(w, r, http.StatusOK, out)
}
