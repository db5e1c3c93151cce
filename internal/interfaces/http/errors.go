package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldError detalle de un campo que no pasó la validación.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// parseBody lee el JSON del body y valida los tags validate. Escribe la respuesta 400 y
// devuelve ok=false si algo falla.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]fieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
			}
			return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: details})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return true, nil
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var insufficient *domain.InsufficientStockError
	var mismatch *domain.IntegrityMismatchError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: "stock insuficiente",
			Details: fiber.Map{
				"product_id": insufficient.ProductID,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
			},
		})
	case errors.As(err, &mismatch):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INTEGRITY_MISMATCH",
			Message: mismatch.Error(),
			Details: fiber.Map{
				"product_id": mismatch.ProductID,
				"cached":     mismatch.Cached,
				"replayed":   mismatch.Replayed,
			},
		})
	case errors.Is(err, domain.ErrInvalidMovementKind):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_MOVEMENT_KIND", Message: "tipo de movimiento inválido: use entrada, salida o ajuste"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.Is(err, domain.ErrNotStockable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "NOT_STOCKABLE", Message: "los servicios no manejan inventario"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
