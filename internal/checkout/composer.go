// Package checkout собирает текст заказа и передаёт его в WhatsApp.
package checkout

import (
	"strconv"
	"strings"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// ComposeOrderMessage формирует текст заказа. Пустая корзина допустима: итог будет 0.00.
// Цена позиции печатается в кратчайшей записи (999.99, 10, 10.5), итог всегда с двумя знаками.
func ComposeOrderMessage(customer domain.Customer, cart domain.Cart) string {
	return composeSummary(domain.NewOrderSummary(customer, cart))
}

func composeSummary(summary domain.OrderSummary) string {
	var b strings.Builder

	b.WriteString("🛍️ *Nuevo Pedido en Dasieloski Store*\n\n")

	b.WriteString("👤 *Datos del Cliente:*\n")
	b.WriteString("- Nombre: " + summary.Customer.Name + "\n")
	b.WriteString("- Teléfono: " + summary.Customer.Phone + "\n")
	b.WriteString("- Email: " + summary.Customer.Email + "\n\n")

	b.WriteString("📍 *Dirección de Envío:*\n")
	b.WriteString(summary.Customer.Address + "\n\n")

	b.WriteString("🛒 *Productos:*\n")
	for _, line := range summary.Lines {
		b.WriteString("- ")
		b.WriteString(line.Emoji)
		b.WriteString(" ")
		b.WriteString(line.Name)
		b.WriteString(": $")
		b.WriteString(line.UnitPrice.String())
		b.WriteString(" x ")
		b.WriteString(strconv.Itoa(line.EffectiveQuantity()))
		b.WriteString("\n")
	}

	b.WriteString("\n💰 *Total:* $")
	b.WriteString(summary.Total.StringFixed(2))

	return b.String()
}
