package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Upload posts a single file as multipart/form-data under field.
func (c *Client) Upload(ctx context.Context, path, field, fileName, contentType string, r io.Reader) (*Response, error) {
	if r == nil {
		return nil, Invalid("file", "required")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("apiclient: create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("apiclient: copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("apiclient: close multipart writer: %w", err)
	}

	return c.Do(ctx, RequestSpec{
		Method:      http.MethodPost,
		Path:        path,
		Raw:         buf.Bytes(),
		ContentType: writer.FormDataContentType(),
	})
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
