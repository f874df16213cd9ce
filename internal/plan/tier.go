// Package plan реализует тарифную лестницу и правила перехода между тарифами.
//
// Пакет не обращается к хранилищу: на вход подаётся снимок текущего состояния
// пользователя, на выходе получается новое окно действия тарифа либо отказ.
package plan

import (
	"errors"
	"fmt"
)

// ErrAmountMismatch сумма заказа не совпадает с ценой тарифа.
var ErrAmountMismatch = errors.New("Amount does not match the selected plan")

// Tier название тарифа в том виде, в котором оно хранится в базе.
type Tier string

// Тарифы в порядке возрастания.
const (
	FreeTrial Tier = "Free Trial"
	Basic     Tier = "Basic"
	Pro       Tier = "Pro"
	Premium   Tier = "Premium"
)

var ladder = []Tier{FreeTrial, Basic, Pro, Premium}

// Цены в рупиях.
var prices = map[Tier]int{
	FreeTrial: 0,
	Basic:     299,
	Pro:       499,
	Premium:   999,
}

// DefaultCurrency валюта, в которой выставляются заказы.
const DefaultCurrency = "INR"

// Tiers возвращает все тарифы в порядке возрастания.
func Tiers() []Tier {
	out := make([]Tier, len(ladder))
	copy(out, ladder)
	return out
}

// Index возвращает позицию тарифа на лестнице или -1 для неизвестного/пустого.
func (t Tier) Index() int {
	for i, tier := range ladder {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid сообщает, входит ли тариф в фиксированный список.
func (t Tier) Valid() bool {
	return t.Index() >= 0
}

// Paid сообщает, является ли тариф платным.
func (t Tier) Paid() bool {
	return t.Valid() && t != FreeTrial
}

// Price возвращает цену тарифа.
func (t Tier) Price() (int, bool) {
	p, ok := prices[t]
	return p, ok
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier проверяет, что строка является известным тарифом.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", &RejectionError{Reason: ReasonUnknownPlan, To: t}
	}
	return t, nil
}

// CheckPrice сверяет сумму, пришедшую от клиента, с ценой тарифа.
func CheckPrice(t Tier, amount int) error {
	price, ok := t.Price()
	if !ok {
		return &RejectionError{Reason: ReasonUnknownPlan, To: t}
	}
	if amount != price {
		return fmt.Errorf("%w: got %d, %s costs %d", ErrAmountMismatch, amount, t, price)
	}
	return nil
}
