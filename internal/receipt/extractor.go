package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// Extractor reads a receipt image and returns receipt JSON.
type Extractor interface {
	Extract(ctx context.Context, image Image) ([]byte, error)
}

// Image is an uploaded receipt photo.
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

// WebhookExtractor posts the image to an external extraction workflow as
// multipart form field "image" and expects receipt JSON back.
type WebhookExtractor struct {
	URL    string
	Client *http.Client
}

// NewWebhookExtractor creates a WebhookExtractor for url.
func NewWebhookExtractor(url string) *WebhookExtractor {
	return &WebhookExtractor{
		URL:    url,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract implements Extractor.
func (w *WebhookExtractor) Extract(ctx context.Context, image Image) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
	header.Set("Content-Type", image.MIMEType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call receipt webhook: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("receipt webhook returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return data, nil
}
