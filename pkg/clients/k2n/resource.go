package k2n

import (
	"context"

	"go.uber.org/zap"
)

// Resource is the list/create surface of one backend collection.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds a collection path to the client.
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

// Path returns the collection path relative to the API base URL.
func (r *Resource[T]) Path() string {
	return r.path
}

// List reads the whole collection in server order.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var rows []T

	resp, err := r.client.request(ctx).SetResult(&rows).Get(r.path)
	if err != nil {
		return nil, &FetchError{Resource: r.path, Err: err}
	}
	if !resp.IsSuccess() {
		r.client.logger.Warn("collection fetch refused", zap.String("resource", r.path), zap.Int("status", resp.StatusCode()))
		return nil, &FetchError{Resource: r.path, StatusCode: resp.StatusCode()}
	}

	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Create posts a normalized payload and returns the stored record. A 2xx
// answer without a body returns the zero T.
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var created T
	apiErr := new(errorBody)

	resp, err := r.client.request(ctx).
		SetBody(payload).
		SetResult(&created).
		SetError(apiErr).
		Post(r.path)
	if err != nil && emptySuccess(resp) {
		r.client.logger.Debug("record created without echo", zap.String("resource", r.path))
		var zero T
		return zero, nil
	}
	if err != nil && !refused(resp) {
		var zero T
		return zero, &SubmissionError{Resource: r.path, Reason: err.Error()}
	}
	if !resp.IsSuccess() {
		reason := apiErr.reason()
		if reason == "" {
			reason = statusReason(resp.StatusCode())
		}
		r.client.logger.Warn("record creation refused",
			zap.String("resource", r.path),
			zap.Int("status", resp.StatusCode()),
			zap.String("reason", reason))
		var zero T
		return zero, &SubmissionError{Resource: r.path, StatusCode: resp.StatusCode(), Reason: reason}
	}

	r.client.logger.Debug("record created", zap.String("resource", r.path))
	return created, nil
}
