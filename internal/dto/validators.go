package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sahelco/trade_ledger_app/internal/core/domain"
)

// RegisterCustomValidators installs the domain enum validators on gin's
// binding engine. Must run before the first request is bound.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("accounttype", validateAccountType)
	_ = v.RegisterValidation("currencycode", validateCurrencyCode)
	_ = v.RegisterValidation("postingreason", validatePostingReason)
}

func validateAccountType(fl validator.FieldLevel) bool {
	return domain.AccountType(fl.Field().String()).IsValid()
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return domain.CurrencyCode(fl.Field().String()).IsValid()
}

func validatePostingReason(fl validator.FieldLevel) bool {
	return domain.PostingReason(fl.Field().String()).IsValid()
}
