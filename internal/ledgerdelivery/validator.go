package ledgerdelivery

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
)

// ValidCurrency validates whether the field is a well formed currency code.
var ValidCurrency validator.Func = func(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(string); ok {
		return currencypkg.IsValidCode(c)
	}

	return false
}

// ValidPositive validates whether the field is a positive decimal string.
var ValidPositive validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := domain.ParseAmount(s)
		return err == nil
	}

	return false
}

// RegisterValidators registers the custom binding tags used by the handlers.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	if err := v.RegisterValidation("currency", ValidCurrency); err != nil {
		return errors.New("cannot register currency validator")
	}

	if err := v.RegisterValidation("positive", ValidPositive); err != nil {
		return errors.New("cannot register positive validator")
	}

	return nil
}
