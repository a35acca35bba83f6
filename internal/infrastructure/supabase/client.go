// Package supabase adapta los puertos del dominio al proyecto alojado: PostgREST para las tablas,
// GoTrue para identidad, Storage para los logos y RPC/funciones para la asignación de roles.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

// Config conexión al proyecto.
type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string
	HTTPClient *http.Client
}

// Client cliente REST mínimo sobre net/http.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

// New valida la configuración y construye el cliente.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL requerida")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase: anon key requerida")
	}
	// Sin Timeout propio: cada llamada termina cuando termina el ctx del llamador.
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: hc,
	}, nil
}

// request petición a la plataforma.
type request struct {
	method  string
	path    string // relativo a la URL base, p. ej. /rest/v1/companies
	query   url.Values
	body    interface{} // se serializa a JSON; []byte se envía tal cual
	ctype   string
	headers map[string]string
	bearer  string // token explícito; vacío = token del contexto o anon key
	service bool   // usar la service key
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	ctype := r.ctype
	switch b := r.body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("supabase: serializar body: %w", err)
		}
		body = bytes.NewReader(raw)
		if ctype == "" {
			ctype = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: crear request: %w", err)
	}
	key := c.anonKey
	if r.service {
		key = c.serviceKey
	}
	bearer := r.bearer
	if bearer == "" && !r.service {
		bearer = repository.AccessToken(ctx)
	}
	if bearer == "" {
		bearer = key
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: leer respuesta: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return &response{status: resp.StatusCode, body: raw}, nil
}

// insert POST /rest/v1/<table> devolviendo la fila creada.
func (c *Client) insert(ctx context.Context, table string, row, out interface{}, service bool) error {
	resp, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + table,
		body:    row,
		headers: map[string]string{"Prefer": "return=representation"},
		service: service,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeSingle(resp.body, out)
}

// decodeSingle PostgREST devuelve un arreglo aun para una sola fila.
func decodeSingle(body []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return fmt.Errorf("supabase: decodificar filas: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase: respuesta sin filas")
		}
		trimmed = rows[0]
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("supabase: decodificar fila: %w", err)
	}
	return nil
}

func eq(v string) string { return "eq." + v }
