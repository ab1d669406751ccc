package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount the way receipts and chat messages show it.
func FormatMoney(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

// FormatDocumentNumber renders an 11 digit CPF as 000.000.000-00 and an
// absent one as N/A. Anything else is returned unchanged.
func FormatDocumentNumber(cpf string) string {
	if cpf == "" {
		return "N/A"
	}
	if len(cpf) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", cpf[0:3], cpf[3:6], cpf[6:9], cpf[9:11])
}

// OrNA replaces an empty optional field with N/A.
func OrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
