package api

import (
	"errors"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError converts an error into a JSON error response with an HTTP
// status derived from its errx type.
func writeError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(errorResponse{
			Error: errorBody{Code: "REQUEST_ERROR", Message: fiberErr.Message},
		})
	}

	e := errx.AsErrorX(err)
	return c.Status(statusFromType(e.Type())).JSON(errorResponse{
		Error: errorBody{Code: e.Code(), Message: e.Error()},
	})
}

func statusFromType(t errx.Type) int {
	switch t {
	case errx.T_Validation:
		return fiber.StatusBadRequest
	case errx.T_NotFound:
		return fiber.StatusNotFound
	case errx.T_Conflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
