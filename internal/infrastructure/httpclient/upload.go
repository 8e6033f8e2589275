package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/healthmall/client-core/internal/core/ports"
)

// Upload posts a file as multipart form data. Header, auth, correlation and
// classification rules are identical to a JSON POST; the idempotency key is
// attached because the transport method is mutating.
func (c *Client) Upload(ctx context.Context, path string, file ports.UploadFile, out any, opts *ports.RequestOptions) error {
	if opts == nil {
		opts = &ports.RequestOptions{}
	}
	if file.Content == nil {
		return fmt.Errorf("httpclient: upload without content")
	}

	field := file.Field
	if field == "" {
		field = "file"
	}
	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("httpclient: multipart: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("httpclient: read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("httpclient: multipart: %w", err)
	}

	return c.dispatch(ctx, "UPLOAD", http.MethodPost, path, nil, &buf, w.FormDataContentType(), out, opts)
}
