package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrWeakPassword       = errors.New("la contraseña debe tener al menos 6 caracteres")
	ErrInvalidCredentials = errors.New("credenciales inválidas")

	// Registro y alta de empresa.
	ErrUnauthenticated     = errors.New("no autenticado: inicie sesión para crear una empresa")
	ErrAccountCreation     = errors.New("no se pudo crear la cuenta, intente de nuevo")
	ErrCompanyCreation     = errors.New("no se pudo crear la empresa, intente de nuevo")
	ErrBranchCreation      = errors.New("no se pudo crear la sucursal principal, intente de nuevo")
	ErrBootstrapInProgress = errors.New("ya hay un alta de empresa en curso para esta cuenta")
	ErrRemote              = errors.New("error de la plataforma remota")
)
