// Package metrics содержит Prometheus-метрики витрины.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Результаты операций каталога для метки result.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// StoreMetrics содержит метрики корзины, оформления заказа, каталога и HTTP.
type StoreMetrics struct {
	cartItemsAdded   prometheus.Counter
	cartItemsRemoved prometheus.Counter
	cartAddRejected  prometheus.Counter

	checkoutDispatched prometheus.Counter
	checkoutRejected   prometheus.Counter
	checkoutOrderTotal prometheus.Histogram
	checkoutCartLines  prometheus.Histogram

	catalogOperations *prometheus.CounterVec

	httpDuration *prometheus.HistogramVec
}

// NewStoreMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStoreMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		cartItemsAdded: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_cart_items_added_total",
			Help: "Cart lines appended by shoppers.",
		})),
		cartItemsRemoved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_cart_items_removed_total",
			Help: "Cart lines removed by shoppers.",
		})),
		cartAddRejected: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_cart_add_rejected_total",
			Help: "Add-to-cart attempts rejected because the product has no display image.",
		})),
		checkoutDispatched: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_checkout_dispatched_total",
			Help: "Order messages handed to the messaging channel.",
		})),
		checkoutRejected: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "store_checkout_rejected_total",
			Help: "Checkout submissions rejected by validation.",
		})),
		checkoutOrderTotal: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "store_checkout_order_total",
			Help:    "Order totals of dispatched checkouts.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		})),
		checkoutCartLines: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "store_checkout_cart_lines",
			Help:    "Number of cart lines in dispatched checkouts.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		})),
		catalogOperations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_catalog_operations_total",
			Help: "Catalog administration operations grouped by entity, operation and result.",
		}, []string{"entity", "op", "result"})),
		httpDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "store_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status code.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route", "status"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector %T already registered with unexpected type", collector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordCartItemAdded увеличивает счётчик добавленных позиций.
func (m *StoreMetrics) RecordCartItemAdded() {
	if m == nil {
		return
	}
	m.cartItemsAdded.Inc()
}

// RecordCartItemRemoved увеличивает счётчик удалённых позиций.
func (m *StoreMetrics) RecordCartItemRemoved() {
	if m == nil {
		return
	}
	m.cartItemsRemoved.Inc()
}

// RecordCartAddRejected фиксирует отказ добавить товар без изображения.
func (m *StoreMetrics) RecordCartAddRejected() {
	if m == nil {
		return
	}
	m.cartAddRejected.Inc()
}

// RecordCheckoutDispatched фиксирует отправленный заказ, его сумму и размер корзины.
func (m *StoreMetrics) RecordCheckoutDispatched(total decimal.Decimal, lines int) {
	if m == nil {
		return
	}
	m.checkoutDispatched.Inc()
	m.checkoutOrderTotal.Observe(total.InexactFloat64())
	m.checkoutCartLines.Observe(float64(lines))
}

// RecordCheckoutRejected фиксирует отклонённую форму оформления заказа.
func (m *StoreMetrics) RecordCheckoutRejected() {
	if m == nil {
		return
	}
	m.checkoutRejected.Inc()
}

// RecordCatalogOperation фиксирует административную операцию над каталогом.
func (m *StoreMetrics) RecordCatalogOperation(entity, op, result string) {
	if m == nil {
		return
	}
	m.catalogOperations.WithLabelValues(entity, op, result).Inc()
}

// ObserveHTTPRequest записывает длительность HTTP-запроса.
func (m *StoreMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}
