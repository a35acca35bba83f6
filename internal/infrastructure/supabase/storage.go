package supabase

import (
	"context"
	"net/http"
	"strings"

	"github.com/jhoicas/Wasper-api/internal/domain/repository"
)

var _ repository.ObjectStorage = (*Storage)(nil)

// Storage buckets de /storage/v1.
type Storage struct {
	c *Client
}

func NewStorage(c *Client) *Storage {
	return &Storage{c: c}
}

func (s *Storage) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	_, err := s.c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/storage/v1/object/" + bucket + "/" + strings.TrimPrefix(path, "/"),
		body:    data,
		ctype:   contentType,
		headers: map[string]string{"x-upsert": "false", "cache-control": "3600"},
	})
	return err
}
