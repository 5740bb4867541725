package tryonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

type formField struct {
	name  string
	value string
}

type multipartForm struct {
	file   *domain.Photo
	fields []formField
}

func (f multipartForm) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if f.file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.file.Filename)))
		contentType := f.file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(f.file.Data); err != nil {
			return nil, "", fmt.Errorf("write file part: %w", err)
		}
	}
	for _, field := range f.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, path, operation string, form multipartForm, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}

	call := func(callCtx context.Context) error {
		return c.doPost(callCtx, path, operation, bytes.NewReader(body.Bytes()), contentType, out)
	}
	if c.executor == nil {
		return call(ctx)
	}
	err = c.executor.Execute(ctx, "tryonapi."+operation, call, classifyBackendError)
	return wrapTemporaryIfNeeded(operation, err)
}

func (c *Client) doPost(ctx context.Context, path, operation string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Operation: operation, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ResponseDecodeError{Operation: operation, Err: err}
	}
	return nil
}

// transportMessage drops the method and URL that net/http adds around the
// cause.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}
	return err.Error()
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
