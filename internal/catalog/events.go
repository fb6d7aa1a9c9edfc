package catalog

// Типы событий изменения каталога.
const (
	EventCategoryCreated = "category.created"
	EventCategoryUpdated = "category.updated"
	EventCategoryDeleted = "category.deleted"

	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"

	EventCurrencyCreated        = "currency.created"
	EventCurrencyUpdated        = "currency.updated"
	EventCurrencyDeleted        = "currency.deleted"
	EventCurrencyDefaultChanged = "currency.default_changed"
)

type deletedPayload struct {
	ID string `json:"id"`
}
