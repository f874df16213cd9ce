package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/password"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// Сообщения аутентификации.
const (
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid token"
	MsgUserNotFound = "User not found"
)

// MsgPasswordTooLong ответ на пароль длиннее password.MaxLength байт.
const MsgPasswordTooLong = "Password must be at most 72 bytes long"

// RejectionStatus статус ответа для причины отказа движка тарифов.
func RejectionStatus(reason plan.Reason) int {
	switch reason {
	case plan.ReasonSamePlan, plan.ReasonDowngrade, plan.ReasonNotActivated,
		plan.ReasonUnknownPlan, plan.ReasonAlreadyActivated:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Classify сопоставляет ошибку сценария статусу и сообщению клиенту. Третье
// значение true означает непредвиденную ошибку: её текст уходит в поле error.
func Classify(err error) (int, string, bool) {
	if rej, ok := plan.AsRejection(err); ok {
		return RejectionStatus(rej.Reason), rej.Error(), false
	}

	switch {
	case errors.Is(err, plan.ErrAmountMismatch):
		return http.StatusBadRequest, plan.ErrAmountMismatch.Error(), false
	case errors.Is(err, password.ErrTooLong):
		return http.StatusBadRequest, MsgPasswordTooLong, false
	case errors.Is(err, jwt.ErrInvalidToken):
		return http.StatusUnauthorized, MsgInvalidToken, false
	case errors.Is(err, repository.ErrUserExists):
		return http.StatusConflict, "User with this email already exists", false
	case errors.Is(err, repository.ErrPlanConflict):
		return http.StatusConflict, "Plan was changed by another request, please retry", false
	case errors.Is(err, repository.ErrPaymentFinalized):
		return http.StatusConflict, "Payment has already been processed", false
	case errors.Is(err, repository.ErrOrderExists):
		return http.StatusConflict, "Payment order already exists", false
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, MsgUserNotFound, false
	case errors.Is(err, repository.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment not found", false
	case errors.Is(err, repository.ErrReviewNotFound):
		return http.StatusNotFound, "Review not found", false
	}
	return http.StatusInternalServerError, "Internal server error", true
}

// WriteError пишет ответ для ошибки сценария. Непредвиденные ошибки логируются
// и отдаются со статусом 500, сообщением internalMsg и текстом причины.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, internalMsg string) {
	status, msg, unknown := Classify(err)
	if unknown {
		log.Error(internalMsg, sl.Err(err))
		Write(w, r, status, Internal(internalMsg, err))
		return
	}
	log.Info("request rejected", slog.Int("status", status), slog.String("reason", msg))
	Write(w, r, status, Fail(msg))
}
