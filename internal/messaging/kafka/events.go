package kafka

// Topics событий каталога.
const (
	TopicCatalogEvents   = "store.catalog.events"
	TopicDeadLetterQueue = "store.catalog.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
)
