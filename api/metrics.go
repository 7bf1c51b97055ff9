package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/TFMV/coordgeom/pkg/metrics"
)

// metricsHandler returns a handler for the /metrics endpoint backed by the
// collector's registry.
func metricsHandler(collector *metrics.Collector) fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(collector.GetRegistry(), promhttp.HandlerOpts{}),
	)
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
