// Package memory implementa los puertos de la plataforma en memoria del proceso.
// Sirve para APP_BACKEND=memory y para los tests: cada operación cuenta sus llamadas y
// puede configurarse para fallar.
package memory

import (
	"fmt"
	"sync"

	"github.com/jhoicas/Wasper-api/internal/domain/entity"
)

// Op identifica una operación de la plataforma.
type Op string

const (
	OpSignUp           Op = "auth.signup"
	OpSignIn           Op = "auth.signin"
	OpGetSession       Op = "auth.session"
	OpSignOut          Op = "auth.signout"
	OpCreateCompany    Op = "companies.insert"
	OpGetCompany       Op = "companies.get"
	OpUpdateLogo       Op = "companies.update_logo"
	OpCreateBranch     Op = "branches.insert"
	OpListBranches     Op = "branches.list"
	OpCreateAssignment Op = "user_role_assignments.insert"
	OpFindAssignment   Op = "user_role_assignments.find"
	OpAssignAdmin      Op = "rpc.assign_company_admin_role"
	OpUpload           Op = "storage.upload"
)

// Object archivo subido al almacenamiento en memoria.
type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Data        []byte
}

// Platform estado compartido de todos los adaptadores en memoria.
type Platform struct {
	mu       sync.Mutex
	calls    map[Op]int
	failures map[Op]error

	accounts    map[string]*entity.Account // por email
	tokens      map[string]string          // access token -> account id
	companies   map[string]*entity.Company
	branches    []*entity.Branch
	assignments []*entity.RoleAssignment
	objects     map[string]Object // bucket/path
}

// NewPlatform devuelve una plataforma vacía.
func NewPlatform() *Platform {
	return &Platform{
		calls:     make(map[Op]int),
		failures:  make(map[Op]error),
		accounts:  make(map[string]*entity.Account),
		tokens:    make(map[string]string),
		companies: make(map[string]*entity.Company),
		objects:   make(map[string]Object),
	}
}

// Fail hace que op devuelva err en todas las llamadas siguientes (nil la restablece).
func (p *Platform) Fail(op Op, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, op)
		return
	}
	p.failures[op] = err
}

// Calls cantidad de veces que se invocó op (incluidas las fallidas).
func (p *Platform) Calls(op Op) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// Writes total de escrituras remotas intentadas.
func (p *Platform) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, op := range []Op{OpCreateCompany, OpUpdateLogo, OpCreateBranch, OpCreateAssignment, OpAssignAdmin, OpUpload} {
		n += p.calls[op]
	}
	return n
}

// enter registra la llamada y devuelve el fallo configurado. Debe llamarse con mu tomado.
func (p *Platform) enter(op Op) error {
	p.calls[op]++
	if err := p.failures[op]; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Companies copia de las empresas almacenadas.
func (p *Platform) Companies() []entity.Company {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.Company, 0, len(p.companies))
	for _, c := range p.companies {
		out = append(out, *c)
	}
	return out
}

// Branches copia de las sucursales almacenadas.
func (p *Platform) Branches() []entity.Branch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.Branch, 0, len(p.branches))
	for _, b := range p.branches {
		out = append(out, *b)
	}
	return out
}

// Assignments copia de las asignaciones de rol almacenadas.
func (p *Platform) Assignments() []entity.RoleAssignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.RoleAssignment, 0, len(p.assignments))
	for _, a := range p.assignments {
		out = append(out, *a)
	}
	return out
}

// Object devuelve el objeto subido en bucket/path.
func (p *Platform) Object(bucket, path string) (Object, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[bucket+"/"+path]
	return o, ok
}

// Objects cantidad de objetos subidos.
func (p *Platform) Objects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}
