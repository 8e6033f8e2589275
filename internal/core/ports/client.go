package ports

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// RequestOptions tunes a single request. The zero value is the common case:
// authenticated, audible, fresh correlation id.
type RequestOptions struct {
	// NoAuth skips the Authorization header even when a token is present.
	NoAuth bool
	// Silent suppresses user-visible notifications for this request. An
	// authentication failure still tears the session down and schedules a
	// redirect, just with a shorter delay and no toast.
	Silent bool
	// RequestID, when set, is reused instead of generating a fresh one so a
	// logical operation spans a caller-side retry with stable correlation.
	RequestID string
	// IdempotencyKey overrides the freshly generated key on mutating calls.
	IdempotencyKey string
	// Headers are merged into the request after the standard headers.
	Headers http.Header
}

// UploadFile describes the file part of a multipart upload.
type UploadFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// APIClient is the envelope-aware request client. Every method resolves the
// envelope's data branch into out (which may be nil) or returns a
// *domain.APIError.
type APIClient interface {
	Get(ctx context.Context, path string, query url.Values, out any, opts *RequestOptions) error
	Post(ctx context.Context, path string, body any, out any, opts *RequestOptions) error
	Put(ctx context.Context, path string, body any, out any, opts *RequestOptions) error
	Delete(ctx context.Context, path string, body any, out any, opts *RequestOptions) error
	Upload(ctx context.Context, path string, file UploadFile, out any, opts *RequestOptions) error
}
