// Package metrics khai báo các Prometheus metrics của pipeline và expose endpoint /metrics.
package metrics

import (
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// TransitionTotal đếm số lần chuyển trạng thái theo cặp (from, to) và kết quả
	TransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_pipeline",
		Name:      "transitions_total",
		Help:      "Số lần chuyển trạng thái video theo cặp (from, to) và kết quả",
	}, []string{"from", "to", "result"})

	// GateFailureTotal đếm số lần gate từ chối transition, theo tên gate
	GateFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_pipeline",
		Name:      "gate_failures_total",
		Help:      "Số lần gate từ chối transition, theo tên gate",
	}, []string{"gate"})

	// ConflictTotal đếm số lần thua race ghi đồng thời (CAS không match)
	ConflictTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "content_pipeline",
		Name:      "conflicts_total",
		Help:      "Số lần cập nhật trạng thái thua race ghi đồng thời",
	})

	// ClaimTotal đếm các thao tác claim theo kết quả (acquired, conflict, released, expired_reacquired)
	ClaimTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_pipeline",
		Name:      "claims_total",
		Help:      "Số thao tác claim video theo kết quả",
	}, []string{"result"})

	// AuditDropTotal đếm số audit event ghi thất bại (best-effort, không fail request)
	AuditDropTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "content_pipeline",
		Name:      "audit_drops_total",
		Help:      "Số audit event ghi thất bại và bị bỏ qua",
	})
)

// Handler trả về fiber handler expose metrics theo format Prometheus.
// promhttp là net/http handler nên phải adapt qua fasthttpadaptor.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		h(c.RequestCtx())
		return nil
	}
}
