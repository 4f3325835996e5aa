// Package metrics определяет метрики Prometheus приложения.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cafe"

// OrdersCreatedTotal считает оформленные заказы
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	},
)

// TransitionsTotal считает успешные переходы статусов заказов.
// Метки: from, to.
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of successful order status transitions.",
	},
	[]string{"from", "to"},
)

// InvalidTransitionsTotal считает отклоненные переходы статусов.
// Метка: to.
var InvalidTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_invalid_transitions_total",
		Help:      "Total number of rejected order status transitions.",
	},
	[]string{"to"},
)

// BonusRedeemedTotal считает сумму списанных бонусов
var BonusRedeemedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bonus_redeemed_total",
		Help:      "Total amount of bonus points redeemed at checkout.",
	},
)

// CashbackAccruedTotal считает сумму начисленного кешбэка
var CashbackAccruedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cashback_accrued_total",
		Help:      "Total amount of cashback accrued on delivered orders.",
	},
)

// httpDuration измеряет длительность обработки HTTP-запросов.
// Метки: method, code.
var httpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP request handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "code"},
)

// statusRecorder запоминает код ответа для метрик
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware собирает метрики длительности HTTP-запросов
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
