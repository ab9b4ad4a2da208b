package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chatgw/internal/config"
	"chatgw/internal/model"
)

// httpClient implements DocumentBackend and ChatBackend over plain HTTP.
// Outbound requests are traced via the otelhttp transport.
type httpClient struct {
	client     *http.Client
	listURL    string
	presignURL string
	chatURL    string
}

// NewHTTP creates HTTP-backed document and chat clients from endpoint config.
func NewHTTP(cfg config.BackendConfig) (DocumentBackend, ChatBackend, error) {
	if cfg.ListURL == "" || cfg.PresignURL == "" || cfg.ChatURL == "" {
		return nil, nil, fmt.Errorf("backend endpoints are required: list, presign, chat")
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &httpClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		listURL:    cfg.ListURL,
		presignURL: cfg.PresignURL,
		chatURL:    cfg.ChatURL,
	}
	return c, c, nil
}

var (
	_ DocumentBackend = (*httpClient)(nil)
	_ ChatBackend     = (*httpClient)(nil)
)

// List fetches the authoritative document listing.
// Timestamps arrive as ISO-8601 text and are parsed by encoding/json.
func (c *httpClient) List(ctx context.Context) ([]model.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ListError{Status: resp.StatusCode}
	}

	var docs []model.Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	// The tagging process may not have run yet for some objects.
	for i := range docs {
		if docs[i].Language == "" {
			docs[i].Language = model.LanguageUndetermined
		}
	}
	return docs, nil
}

// Presign requests a scoped write credential for (filename, contentType).
func (c *httpClient) Presign(ctx context.Context, filename, contentType string) (*PresignGrant, error) {
	body, err := json.Marshal(map[string]string{
		"filename":    filename,
		"contentType": contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("encode presign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.presignURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build presign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("presign request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PresignError{Status: resp.StatusCode}
	}

	var grant PresignGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, &PresignError{Status: resp.StatusCode, Reason: "invalid response body"}
	}
	if grant.URL == "" || len(grant.Fields) == 0 {
		return nil, &PresignError{Status: resp.StatusCode, Reason: "missing url or fields"}
	}
	return &grant, nil
}

// Upload submits the grant fields plus the file payload as a multipart form
// directly to the storage URL. The file part must come after the fields;
// S3-style POST policies ignore anything that follows it.
func (c *httpClient) Upload(ctx context.Context, grant *PresignGrant, filename, contentType string, r io.Reader) error {
	if grant == nil {
		return fmt.Errorf("grant is nil")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range grant.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("copy file payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grant.URL, &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UploadError{Status: resp.StatusCode}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ask posts the assembled request and returns the answer text.
func (c *httpClient) Ask(ctx context.Context, askReq AskRequest) (string, error) {
	body, err := json.Marshal(askReq)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ChatError{Status: resp.StatusCode}
	}

	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Answer, nil
}
