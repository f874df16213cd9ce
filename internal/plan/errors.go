package plan

import (
	"errors"
	"fmt"
)

// Reason закрытый набор причин отказа в смене тарифа.
type Reason int

const (
	// ReasonSamePlan запрошен текущий тариф.
	ReasonSamePlan Reason = iota + 1
	// ReasonDowngrade запрошен тариф ниже текущего.
	ReasonDowngrade
	// ReasonNotActivated купленный тариф ещё не активирован в десктоп-клиенте.
	ReasonNotActivated
	// ReasonUnknownPlan тариф не входит в список.
	ReasonUnknownPlan
	// ReasonAlreadyActivated лицензия уже активирована.
	ReasonAlreadyActivated
)

func (r Reason) String() string {
	switch r {
	case ReasonSamePlan:
		return "same_plan"
	case ReasonDowngrade:
		return "downgrade"
	case ReasonNotActivated:
		return "not_activated"
	case ReasonUnknownPlan:
		return "unknown_plan"
	case ReasonAlreadyActivated:
		return "already_activated"
	}
	return "unknown"
}

// RejectionError отказ в переходе. Текст ошибки предназначен для показа пользователю.
type RejectionError struct {
	Reason Reason
	From   Tier
	To     Tier
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonSamePlan:
		return fmt.Sprintf("You are already on the %s plan.", e.To)
	case ReasonDowngrade:
		return fmt.Sprintf("Cannot downgrade from %s to %s. Upgrades must be to higher-tier plans only.", e.From, e.To)
	case ReasonNotActivated:
		return "License not activated. Please activate your current plan in the desktop app before purchasing a new plan."
	case ReasonUnknownPlan:
		return "Invalid plan selected"
	case ReasonAlreadyActivated:
		return "License already activated"
	}
	return "plan change rejected"
}

// AsRejection достаёт RejectionError из цепочки ошибок.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
