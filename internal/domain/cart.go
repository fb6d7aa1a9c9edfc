package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLine — одна позиция корзины: денормализованная копия товара и количество.
type CartLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Emoji     string
	Quantity  int
}

// EffectiveQuantity возвращает количество позиции; незаданное количество равно 1.
func (l CartLine) EffectiveQuantity() int {
	if l.Quantity < 1 {
		return 1
	}
	return l.Quantity
}

// Subtotal возвращает цену позиции: unitPrice * quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.EffectiveQuantity())))
}

// Cart — упорядоченная последовательность позиций одной сессии покупателя.
// Повторное добавление того же товара создаёт новую позицию.
type Cart struct {
	lines []CartLine
}

// NewCart создаёт корзину из готовых позиций (копируя срез).
func NewCart(lines ...CartLine) Cart {
	return Cart{lines: append([]CartLine(nil), lines...)}
}

// AddItem добавляет товар новой позицией в конец корзины.
// Товар без изображения отклоняется с ErrProductMediaRequired, корзина не меняется.
func (c *Cart) AddItem(product Product) error {
	if !product.HasDisplayMedia() {
		return ErrProductMediaRequired
	}
	c.lines = append(c.lines, CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Emoji:     product.Emoji,
		Quantity:  max(product.Quantity, 1),
	})
	return nil
}

// RemoveItem удаляет первую позицию с данным id товара. Отсутствие совпадения — не ошибка.
func (c *Cart) RemoveItem(productID string) bool {
	for i, line := range c.lines {
		if line.ProductID != productID {
			continue
		}
		c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
		return true
	}
	return false
}

// Total пересчитывает сумму корзины по текущим позициям.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Lines возвращает копию позиций в порядке добавления.
func (c Cart) Lines() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

// Len возвращает количество позиций.
func (c Cart) Len() int {
	return len(c.lines)
}

// scratchLine — формат позиции в слоте сессии "cart".
type scratchLine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Emoji    string          `json:"emoji"`
	Quantity int             `json:"quantity,omitempty"`
}

func (l scratchLine) MarshalJSON() ([]byte, error) {
	type plain scratchLine
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(l), JSONNumber(l.Price)})
}

// MarshalJSON сериализует корзину в формат слота: массив {id,name,price,emoji,quantity?}.
func (c Cart) MarshalJSON() ([]byte, error) {
	out := make([]scratchLine, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, scratchLine{
			ID:       line.ProductID,
			Name:     line.Name,
			Price:    line.UnitPrice,
			Emoji:    line.Emoji,
			Quantity: line.EffectiveQuantity(),
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает корзину из слота; отсутствующее количество равно 1.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var in []scratchLine
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}

	lines := make([]CartLine, 0, len(in))
	for idx, item := range in {
		if item.Quantity < 0 {
			return NewValidationError(fmt.Sprintf("cart[%d].quantity", idx), "must be positive")
		}
		if item.Price.IsNegative() {
			return NewValidationError(fmt.Sprintf("cart[%d].price", idx), "must be non-negative")
		}
		lines = append(lines, CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Emoji:     item.Emoji,
			Quantity:  max(item.Quantity, 1),
		})
	}
	c.lines = lines
	return nil
}
