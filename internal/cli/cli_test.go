package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/cli"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/kv"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/memory"
)

func fixedNow() time.Time { return time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC) }

type harness struct {
	platform *memory.Platform
	dir      string
}

// run ejecuta hubctl con un store de archivo nuevo sobre el mismo directorio,
// como lo haría un proceso distinto en cada invocación.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	file, err := kv.NewFile(h.dir)
	require.NoError(t, err)
	store := session.NewStore(file, "", nil)
	v := validation.New(fixedNow)
	roles := h.platform.RoleAssignmentRepo()

	root := cli.NewRootCommand(cli.Deps{
		Auth: auth.NewUseCase(h.platform.Identity(), roles, session.Fixed{Store: store}, v,
			auth.JWTConfig{Secret: "cli-secret", ExpMinutes: 60, Issuer: "hubctl"}, nil),
		Bootstrap: bootstrap.NewUseCase(bootstrap.Deps{
			Companies:   h.platform.CompanyRepo(),
			Branches:    h.platform.BranchRepo(),
			Roles:       roles,
			Provisioner: h.platform.Provisioner(),
			Storage:     h.platform.Storage(),
			Validator:   v,
			Now:         fixedNow,
		}),
		Store: store,
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func newHarness(t *testing.T) *harness {
	return &harness{platform: memory.NewPlatform(), dir: t.TempDir()}
}

func TestCLI_FlujoCompleto(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "register", "--name", "Ada Obi", "--email", "ada@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, auth.RegisteredMessage)

	out, err = h.run(t, "login", "--email", "ada@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "setup-company")

	logo := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	out, err = h.run(t, "setup-company", "--name", "Acme", "--accounting-start", "2024-06-01", "--logo", logo)
	require.NoError(t, err)
	assert.Contains(t, out, "empresa creada: Acme")
	assert.Contains(t, out, "upload-logo")
	assert.Equal(t, 1, h.platform.Objects())

	companies := h.platform.Companies()
	require.Len(t, companies, 1)
	assert.Equal(t, "NGN", companies[0].Currency)

	// La sesión actualizada por el alta la ve un proceso nuevo.
	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, companies[0].ID)
	assert.Contains(t, out, entity.RoleCompanyAdmin.String())

	out, err = h.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "sesión cerrada")

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "sin sesión")
}

func TestCLI_SetupSinSesion(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "setup-company", "--name", "Acme")
	require.Error(t, err)
	assert.Zero(t, h.platform.Writes())
}

func TestCLI_ErrorDeValidacionMuestraCampos(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "register", "--name", "Al", "--email", "x", "--password", "1")
	require.Error(t, err)

	var buf bytes.Buffer
	cli.PrintError(&buf, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "email")
	assert.Contains(t, lines[2], "full_name")
	assert.Contains(t, lines[3], "password")
}

func TestCLI_LogoInexistente(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "setup-company", "--name", "Acme", "--logo", filepath.Join(t.TempDir(), "nada.png"))
	assert.Error(t, err)
}
