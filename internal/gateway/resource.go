package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

// Resource is a typed view over one REST collection such as /Product or /User.
type Resource[T any] struct {
	client     *Client
	name       string
	path       string
	createPath string
}

type ResourceOption func(*resourceConfig)

type resourceConfig struct {
	createPath string
}

// WithCreatePath overrides the POST path, relative to the collection path.
func WithCreatePath(path string) ResourceOption {
	return func(rc *resourceConfig) {
		rc.createPath = path
	}
}

// NewResource binds a collection path on the client. name labels logs and metrics.
func NewResource[T any](client *Client, name, path string, opts ...ResourceOption) *Resource[T] {
	rc := resourceConfig{}
	for _, opt := range opts {
		opt(&rc)
	}
	return &Resource[T]{
		client:     client,
		name:       name,
		path:       path,
		createPath: path + rc.createPath,
	}
}

func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

// List fetches the whole collection. A null body yields an empty slice.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Do(ctx, Request{Resource: r.name, Operation: "list", Method: http.MethodGet, Path: r.path}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get fetches a single entity; a 404 surfaces as NOT_FOUND.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var item T
	err := r.client.Do(ctx, Request{Resource: r.name, Operation: "get", Method: http.MethodGet, Path: r.itemPath(id)}, &item)
	return item, err
}

// Create posts body and returns the entity the backend assigned an id to.
// When the backend answers without a body the returned error wraps ErrEmptyBody.
func (r *Resource[T]) Create(ctx context.Context, body Body) (T, error) {
	var item T
	raw, err := r.send(ctx, "create", http.MethodPost, r.createPath, body)
	if err != nil {
		return item, err
	}
	if len(raw) == 0 {
		return item, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrEmptyBody, fmt.Sprintf("%s created without returning it", r.name))
	}
	if err := decodeEntity(raw, &item); err != nil {
		return item, err
	}
	return item, nil
}

// Update replaces the entity. Backends that answer 204 are reconciled with a follow-up Get.
func (r *Resource[T]) Update(ctx context.Context, id int64, body Body) (T, error) {
	var item T
	raw, err := r.send(ctx, "update", http.MethodPut, r.itemPath(id), body)
	if err != nil {
		return item, err
	}
	if len(raw) == 0 {
		return r.Get(ctx, id)
	}
	if err := decodeEntity(raw, &item); err != nil {
		return item, err
	}
	return item, nil
}

func (r *Resource[T]) send(ctx context.Context, op, method, path string, body Body) (json.RawMessage, error) {
	var raw json.RawMessage
	err := r.client.Do(ctx, Request{Resource: r.name, Operation: op, Method: method, Path: path, Body: body, AllowEmpty: true}, &raw)
	return raw, err
}

func decodeEntity[T any](raw json.RawMessage, item *T) error {
	if err := json.Unmarshal(raw, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed backend response")
	}
	return nil
}

// Remove deletes the entity.
func (r *Resource[T]) Remove(ctx context.Context, id int64) error {
	return r.client.Do(ctx, Request{Resource: r.name, Operation: "delete", Method: http.MethodDelete, Path: r.itemPath(id)}, nil)
}
