package plan

import (
	"fmt"
	"time"
)

// RenewalDays длина блока, который добавляется к тарифу при продлении.
const RenewalDays = 30

// State снимок тарифа пользователя.
type State struct {
	Current Tier
	Start   *time.Time
	End     *time.Time
}

// Result новое состояние тарифа после успешного перехода.
type Result struct {
	Tier    Tier
	Start   *time.Time
	End     *time.Time
	Message string
}

// Extended сообщает, были ли выставлены даты (продление), а не отложены до активации.
func (r Result) Extended() bool {
	return r.End != nil
}

// Transition решает, допустим ли переход на тариф requested, и считает новое окно действия.
//
// Правила проверяются строго по порядку, срабатывает первое подходящее.
func Transition(state State, requested Tier, now time.Time) (Result, error) {
	if !requested.Valid() {
		return Result{}, &RejectionError{Reason: ReasonUnknownPlan, From: state.Current, To: requested}
	}
	if requested == state.Current {
		return Result{}, &RejectionError{Reason: ReasonSamePlan, From: state.Current, To: requested}
	}
	if requested.Index() < state.Current.Index() {
		return Result{}, &RejectionError{Reason: ReasonDowngrade, From: state.Current, To: requested}
	}
	if state.Current != "" && state.Current != FreeTrial && state.End == nil {
		return Result{}, &RejectionError{Reason: ReasonNotActivated, From: state.Current, To: requested}
	}

	res := Result{Tier: requested}
	switch {
	case state.Current == "" || state.Current == FreeTrial:
		// даты выставит десктоп-клиент при активации
	case state.End != nil:
		end := state.End.AddDate(0, 0, RenewalDays)
		res.Start = state.Start
		res.End = &end
	default:
		// Недостижимо: платный тариф без даты окончания отсекается проверкой активации выше.
		// Ветка сохранена до решения продукта.
		start := now
		end := now.AddDate(0, 0, RenewalDays)
		res.Start = &start
		res.End = &end
	}

	if res.Extended() {
		res.Message = fmt.Sprintf("Plan upgraded to %s with %d-day extension", requested, RenewalDays)
	} else {
		res.Message = fmt.Sprintf("Plan activated: %s", requested)
	}
	return res, nil
}

// Activate открывает окно действия для купленного, но ещё не активированного тарифа.
// Вызывается десктоп-клиентом по API-ключу. trialWindow длительность пробного периода.
func Activate(state State, now time.Time, trialWindow time.Duration) (Result, error) {
	if !state.Current.Valid() {
		return Result{}, &RejectionError{Reason: ReasonUnknownPlan, To: state.Current}
	}
	if state.End != nil {
		return Result{}, &RejectionError{Reason: ReasonAlreadyActivated, From: state.Current, To: state.Current}
	}

	start := now
	var end time.Time
	if state.Current == FreeTrial {
		end = now.Add(trialWindow)
	} else {
		end = now.AddDate(0, 0, RenewalDays)
	}
	return Result{
		Tier:    state.Current,
		Start:   &start,
		End:     &end,
		Message: fmt.Sprintf("License activated: %s", state.Current),
	}, nil
}

// Active сообщает, действует ли тариф в момент now.
func Active(state State, now time.Time) bool {
	return state.End != nil && now.Before(*state.End)
}
