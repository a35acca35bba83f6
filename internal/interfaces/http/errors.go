package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Wasper-api/internal/application/dto"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/domain"
)

// genericMessage mensaje para fallos que no se muestran en detalle al usuario.
const genericMessage = "ocurrió un error, intente de nuevo"

// writeError traduce un error de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "VALIDATION", Message: "revise los campos del formulario", Fields: validation.FieldErrors(err),
		}
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{
			Code: "UNAUTHENTICATED", Message: domain.ErrUnauthenticated.Error(), Redirect: dto.RouteLogin,
		}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "INVALID_CREDENTIALS", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: domain.ErrForbidden.Error()}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: domain.ErrEmailAlreadyExists.Error()}
	case errors.Is(err, domain.ErrWeakPassword):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "WEAK_PASSWORD", Message: domain.ErrWeakPassword.Error(),
			Fields: map[string]string{"password": domain.ErrWeakPassword.Error()},
		}
	case errors.Is(err, domain.ErrBootstrapInProgress):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "IN_PROGRESS", Message: domain.ErrBootstrapInProgress.Error()}
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: domain.ErrDuplicate.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: domain.ErrNotFound.Error()}
	// Los terminales del alta y del registro se muestran con su mensaje genérico.
	case errors.Is(err, domain.ErrCompanyCreation):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "COMPANY_CREATION_FAILED", Message: domain.ErrCompanyCreation.Error()}
	case errors.Is(err, domain.ErrBranchCreation):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "BRANCH_CREATION_FAILED", Message: domain.ErrBranchCreation.Error()}
	case errors.Is(err, domain.ErrAccountCreation):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "ACCOUNT_CREATION_FAILED", Message: domain.ErrAccountCreation.Error()}
	case errors.Is(err, domain.ErrRemote):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "REMOTE_ERROR", Message: genericMessage}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: genericMessage}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
