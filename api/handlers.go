package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/geom"
)

// BatchRequest is the body of POST /api/v1/batch
type BatchRequest struct {
	Operations []eval.Request `json:"operations"`
}

// BatchResponse is the reply to a batch request
type BatchResponse struct {
	Results []eval.Result `json:"results"`
	Count   int           `json:"count"`
	Failed  int           `json:"failed"`
}

// statusForKind maps an error kind onto an HTTP status code.
func statusForKind(kind string) int {
	switch kind {
	case geom.KindTypeError:
		return fiber.StatusBadRequest
	case geom.KindValueError:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// operationHandler evaluates op with the named arguments of the JSON body
// and replies with {resultKey: value}.
func operationHandler(ev *eval.Evaluator, op eval.Operation, resultKey string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		var args eval.Args
		if err := c.BodyParser(&args); err != nil {
			log.Error("Failed to parse request body", zap.String("op", string(op)), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"kind":    geom.KindTypeError,
				"message": "Invalid request body",
			})
		}

		res := ev.Evaluate(eval.Request{Op: op, Args: args})
		if res.Failed() {
			return c.Status(statusForKind(res.Kind)).JSON(fiber.Map{
				"error":   true,
				"kind":    res.Kind,
				"message": res.Error,
			})
		}

		log.Debug("Operation evaluated",
			zap.String("op", string(op)),
			zap.Duration("duration", time.Since(start)),
		)

		return c.JSON(fiber.Map{resultKey: res.Value})
	}
}

// batchHandler evaluates every operation of the body and reports each result.
func batchHandler(ev *eval.Evaluator, maxBatch int, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BatchRequest
		if err := c.BodyParser(&req); err != nil {
			log.Error("Failed to parse batch body", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid request body",
			})
		}

		if len(req.Operations) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Operations are required",
			})
		}
		if len(req.Operations) > maxBatch {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error":   true,
				"message": "Too many operations in batch",
			})
		}

		results, err := ev.EvaluateAll(c.UserContext(), req.Operations)
		if err != nil {
			// Only cancellation aborts a batch.
			return fiber.NewError(fiber.StatusServiceUnavailable, "Batch cancelled")
		}

		failed := 0
		for _, r := range results {
			if r.Failed() {
				failed++
			}
		}

		return c.JSON(BatchResponse{
			Results: results,
			Count:   len(results),
			Failed:  failed,
		})
	}
}
