package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var (
	_ repository.RoleProvisioner = (*RPCProvisioner)(nil)
	_ repository.RoleProvisioner = (*FunctionProvisioner)(nil)
	_ repository.RoleProvisioner = (*ServiceProvisioner)(nil)
)

// AssignAdminFunction procedimiento SECURITY DEFINER que inserta la asignación company_admin
// sin evaluar las políticas de user_role_assignments.
const AssignAdminFunction = "assign_company_admin_role"

// RoleFunction función serverless equivalente (usa la service role en el servidor).
const RoleFunction = "assign-company-role"

// RPCProvisioner llama al procedimiento con el token del usuario.
type RPCProvisioner struct {
	c *Client
}

func NewRPCProvisioner(c *Client) *RPCProvisioner {
	return &RPCProvisioner{c: c}
}

func (p *RPCProvisioner) AssignCompanyAdmin(ctx context.Context, userID, companyID string) error {
	_, err := p.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/" + AssignAdminFunction,
		body:   map[string]string{"user_uuid": userID, "company_uuid": companyID},
	})
	return err
}

// FunctionProvisioner invoca la función serverless assign-company-role.
type FunctionProvisioner struct {
	c *Client
}

func NewFunctionProvisioner(c *Client) *FunctionProvisioner {
	return &FunctionProvisioner{c: c}
}

func (p *FunctionProvisioner) AssignCompanyAdmin(ctx context.Context, userID, companyID string) error {
	resp, err := p.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/functions/v1/" + RoleFunction,
		body: map[string]string{
			"userId":    userID,
			"companyId": companyID,
			"role":      entity.RoleCompanyAdmin.String(),
		},
	})
	if err != nil {
		return err
	}
	if !gjson.GetBytes(resp.body, "success").Bool() {
		return fmt.Errorf("supabase: %s respondió sin success: %s", RoleFunction, string(resp.body))
	}
	return nil
}

// ServiceProvisioner inserta la asignación directamente con la service key (sin RLS).
type ServiceProvisioner struct {
	c *Client
}

func NewServiceProvisioner(c *Client) (*ServiceProvisioner, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("supabase: service key requerida")
	}
	return &ServiceProvisioner{c: c}, nil
}

func (p *ServiceProvisioner) AssignCompanyAdmin(ctx context.Context, userID, companyID string) error {
	row := newAssignmentRow(&entity.RoleAssignment{UserID: userID, CompanyID: companyID, Role: entity.RoleCompanyAdmin})
	return p.c.insert(ctx, "user_role_assignments", row, nil, true)
}
