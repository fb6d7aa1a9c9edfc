package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// JSONNumber представляет сумму JSON-числом. Суммы в API и в слоте корзины
// кодируются числами, а decimal по умолчанию пишет строку.
func JSONNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
