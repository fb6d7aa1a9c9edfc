package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// LineView — позиция корзины в ответе API.
type LineView struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Emoji     string          `json:"emoji"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// MarshalJSON кодирует цену и подытог JSON-числами.
func (v LineView) MarshalJSON() ([]byte, error) {
	type plain LineView
	return json.Marshal(struct {
		plain
		UnitPrice json.Number `json:"price"`
		Subtotal  json.Number `json:"subtotal"`
	}{plain(v), domain.JSONNumber(v.UnitPrice), domain.JSONNumber(v.Subtotal)})
}

// View — корзина в ответе API: позиции в порядке добавления и пересчитанная сумма.
type View struct {
	Items []LineView      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// MarshalJSON кодирует итог JSON-числом.
func (v View) MarshalJSON() ([]byte, error) {
	type plain View
	return json.Marshal(struct {
		plain
		Total json.Number `json:"total"`
	}{plain(v), domain.JSONNumber(v.Total)})
}

// NewView строит представление корзины.
func NewView(cart domain.Cart) View {
	lines := cart.Lines()
	items := make([]LineView, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineView{
			ProductID: line.ProductID,
			Name:      line.Name,
			Emoji:     line.Emoji,
			UnitPrice: line.UnitPrice,
			Quantity:  line.EffectiveQuantity(),
			Subtotal:  line.Subtotal(),
		})
	}
	return View{Items: items, Count: len(items), Total: cart.Total()}
}
