package serverutils

import (
	"errors"
	"log"

	"regen-advisor-be/pkg/extractor"
	"regen-advisor-be/pkg/kb"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// NotFoundError marks a missing resource so the error middleware can answer
// 404 instead of 500.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// BadRequestError marks invalid client input.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware maps service errors onto HTTP statuses. Unknown
// errors become 500 with a generic message; details stay in the logs.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(notFound.Message))
		}

		var badRequest *BadRequestError
		if errors.As(err, &badRequest) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(badRequest.Message))
		}

		var validation *ValidationError
		if errors.As(err, &validation) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(Response{
				Success: false,
				Message: "Validation failed",
				Data:    validation.Fields,
			})
		}

		if errors.Is(err, extractor.ErrEmptyDocument) || errors.Is(err, extractor.ErrUnsupportedFormat) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error()))
		}

		if kb.IsRetrievalFailed(err) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse("Knowledge store is unavailable, please retry"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		log.Printf("[ERROR] Unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error"))
	}
}
