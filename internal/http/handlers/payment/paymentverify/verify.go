// Package paymentverify подтверждает платёж по подписи шлюза и применяет
// оплаченный тариф.
package paymentverify

import (
	"context"
	"encoding/json"
	"errors"
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

// Request данные, которые checkout шлюза передаёт клиенту после оплаты.
type Request struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	Plan      string `json:"plan"`
}

// Response подтверждённый платёж и новое состояние тарифа.
type Response struct {
	response.Response
	PaymentID string          `json:"payment_id"`
	OrderID   string          `json:"order_id"`
	Plan      plan.Tier       `json:"plan"`
	User      models.UserView `json:"user"`
}

// Service описывает подтверждение платежа.
type Service interface {
	Verify(ctx context.Context, userID int64, orderID, paymentID, signature string,
		requested plan.Tier) (*services.VerifyResult, error)
}

// Handler обрабатывает POST /api/verify-payment.
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
	const op = "handlers.payment.verify"

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
		response.Write(w, r, http.StatusBadRequest, response.Fail("Missing payment details"))
		return
	}

	res, err := h.service.Verify(r.Context(), user.ID, req.OrderID, req.PaymentID, req.Signature, plan.Tier(req.Plan))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidSignature):
		log.Warn("invalid payment signature", slog.String("order_id", req.OrderID))
		response.Write(w, r, http.StatusBadRequest, response.Fail(services.ErrInvalidSignature.Error()))
		return
	case errors.Is(err, services.ErrPlanMismatch):
		log.Warn("plan does not match order", slog.String("order_id", req.OrderID))
		response.Write(w, r, http.StatusBadRequest, response.Fail(services.ErrPlanMismatch.Error()))
		return
	default:
		response.WriteError(w, r, log, err, "Failed to verify payment")
		return
	}

	log.Info("payment verified",
		slog.Int64("user_id", user.ID),
		slog.String("order_id", req.OrderID),
		slog.Bool("replayed", res.Replayed))
	response.Write(w, r, http.StatusOK, Response{
		Response:  response.OK(res.Message),
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Plan:      res.User.CurrentPlan,
		User:      res.User.View(),
	})
}
