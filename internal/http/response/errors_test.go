package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/password"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantUnknown bool
	}{
		{
			name:        "downgrade rejection",
			err:         fmt.Errorf("services.ChangePlan: %w", &plan.RejectionError{Reason: plan.ReasonDowngrade, From: plan.Pro, To: plan.Basic}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Cannot downgrade from Pro to Basic. Upgrades must be to higher-tier plans only.",
		},
		{
			name:        "same plan",
			err:         &plan.RejectionError{Reason: plan.ReasonSamePlan, From: plan.Pro, To: plan.Pro},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "You are already on the Pro plan.",
		},
		{
			name:        "amount mismatch",
			err:         fmt.Errorf("op: %w", plan.ErrAmountMismatch),
			wantStatus:  http.StatusBadRequest,
			wantMessage: plan.ErrAmountMismatch.Error(),
		},
		{
			name:        "password over bcrypt limit",
			err:         fmt.Errorf("services.Signup: password.GetHash: %w", password.ErrTooLong),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MsgPasswordTooLong,
		},
		{name: "invalid token", err: jwt.ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantMessage: MsgInvalidToken},
		{name: "duplicate email", err: repository.ErrUserExists, wantStatus: http.StatusConflict, wantMessage: "User with this email already exists"},
		{name: "plan conflict", err: repository.ErrPlanConflict, wantStatus: http.StatusConflict, wantMessage: "Plan was changed by another request, please retry"},
		{name: "user not found", err: repository.ErrUserNotFound, wantStatus: http.StatusNotFound, wantMessage: MsgUserNotFound},
		{name: "review not found", err: repository.ErrReviewNotFound, wantStatus: http.StatusNotFound, wantMessage: "Review not found"},
		{name: "unexpected", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error", wantUnknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg, unknown := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, msg)
			assert.Equal(t, tt.wantUnknown, unknown)
		})
	}
}

func TestRejectionStatusCoversAllReasons(t *testing.T) {
	for _, r := range []plan.Reason{plan.ReasonSamePlan, plan.ReasonDowngrade, plan.ReasonNotActivated,
		plan.ReasonUnknownPlan, plan.ReasonAlreadyActivated} {
		assert.Equal(t, http.StatusBadRequest, RejectionStatus(r), r.String())
	}
	assert.Equal(t, http.StatusInternalServerError, RejectionStatus(plan.Reason(0)))
}
