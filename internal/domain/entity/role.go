package entity

// Role rol de un usuario dentro de una empresa. Enumeración cerrada: cualquier texto
// desconocido se decodifica como RoleUnassigned, nunca como un string abierto.
type Role uint8

const (
	RoleUnassigned Role = iota // sin rol asignado (valor cero)
	RoleSuperAdmin
	RoleCompanyAdmin
	RoleFinanceManager
	RoleAccountant
	RoleStaff
)

var roleNames = map[Role]string{
	RoleUnassigned:     "unassigned",
	RoleSuperAdmin:     "super_admin",
	RoleCompanyAdmin:   "company_admin",
	RoleFinanceManager: "finance_manager",
	RoleAccountant:     "accountant",
	RoleStaff:          "staff",
}

// String devuelve el nombre persistido del rol (columna role de user_role_assignments).
func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return roleNames[RoleUnassigned]
}

// IsAssigned informa si el rol es distinto de RoleUnassigned.
func (r Role) IsAssigned() bool {
	_, known := roleNames[r]
	return known && r != RoleUnassigned
}

// ParseRole convierte el texto persistido en Role. ok = false si el texto no es un rol conocido
// (en ese caso devuelve RoleUnassigned).
func ParseRole(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, r != RoleUnassigned
		}
	}
	return RoleUnassigned, false
}

// MarshalText serializa el rol con su nombre.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText acepta cualquier texto; los desconocidos quedan como RoleUnassigned.
func (r *Role) UnmarshalText(b []byte) error {
	*r, _ = ParseRole(string(b))
	return nil
}

// RoleAssignment asignación de rol de un usuario en una empresa (y opcionalmente una sucursal).
type RoleAssignment struct {
	ID        string
	UserID    string
	CompanyID string
	BranchID  string // vacío = toda la empresa
	Role      Role
}

// Session registro local del cliente: identificadores actuales más el estado de autenticación.
// Es efímero y se persiste solo en el key-value store del cliente.
type Session struct {
	UserID          string
	CompanyID       string
	BranchID        string
	Role            Role
	IsAuthenticated bool
	AccessToken     string // token del proveedor de identidad para llamadas con RLS
}

// DefaultSession sesión no autenticada.
func DefaultSession() Session {
	return Session{Role: RoleUnassigned}
}

// HasCompany informa si la sesión ya apunta a una empresa.
func (s Session) HasCompany() bool {
	return s.CompanyID != ""
}
