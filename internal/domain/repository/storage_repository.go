package repository

import "context"

// ObjectStorage puerto del almacenamiento de objetos (logos de empresa).
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) error
}

// KeyValueStore almacenamiento durable de clave/valor del lado del cliente (sesión).
// Get devuelve domain.ErrNotFound si la clave no existe.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
