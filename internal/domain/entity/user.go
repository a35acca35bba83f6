package entity

import "time"

// Account credencial externa (proveedor de identidad). La app solo conoce su id opaco.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string // solo lo usa el proveedor de identidad propio (bcrypt)
	CreatedAt    time.Time
}

// Profile datos de perfil enviados junto con el registro.
type Profile struct {
	FullName string
}

// AuthSession resultado de iniciar sesión en el proveedor de identidad.
type AuthSession struct {
	AccountID   string
	Email       string
	AccessToken string
	ExpiresAt   time.Time // cero = sin vencimiento conocido
}
