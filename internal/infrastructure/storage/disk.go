// Package storage implementa el almacenamiento de objetos en disco local para el backend autoalojado.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var _ repository.ObjectStorage = (*Disk)(nil)

// Disk guarda cada objeto en <root>/<bucket>/<path>. El content type no se persiste.
type Disk struct {
	root string
}

// NewDisk crea el directorio raíz si no existe.
func NewDisk(root string) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: directorio raíz vacío")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", root, err)
	}
	return &Disk{root: root}, nil
}

// Upload escribe el objeto; rechaza rutas que salgan del bucket.
func (d *Disk) Upload(ctx context.Context, bucket, path, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Open devuelve el contenido de un objeto (domain.ErrNotFound si no existe).
func (d *Disk) Open(bucket, path string) ([]byte, error) {
	full, err := d.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (d *Disk) resolve(bucket, path string) (string, error) {
	if bucket == "" || path == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("%w: bucket o ruta inválidos", domain.ErrInvalidInput)
	}
	base := filepath.Join(d.root, bucket)
	full := filepath.Join(base, filepath.FromSlash(path))
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: ruta fuera del bucket", domain.ErrInvalidInput)
	}
	return full, nil
}
