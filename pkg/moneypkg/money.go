// Package moneypkg provides common money related functionality for apps.
package moneypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
)

// Parse converts a configured cap into a decimal. Empty strings mean zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(s)
}

// ValidAmount validates that the field is a positive amount within the
// currency scale, the same rule the ledger engines apply.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := domain.ParseAmount(s)

	return err == nil
}
