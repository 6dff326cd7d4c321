// Package provider is a thin JSON client for the upstream email-sending
// service's template API. It is the mutating collaborator the audit
// engine decorates; it performs no auditing of its own.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stencilmail/stencil-api/internal/models"
	"github.com/stencilmail/stencil-api/pkg/config"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
)

// Client talks to the email provider. It holds no credential; callers
// bind a per-tenant handle with ForKey.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a provider client from configuration.
func NewClient(cfg config.ProviderConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ForKey returns a handle bound to one tenant's provider credential. The
// credential lives only in this handle for the duration of a request.
func (c *Client) ForKey(apiKey string) *TemplateAPI {
	return &TemplateAPI{client: c, apiKey: apiKey}
}

// TemplateAPI exposes the provider's template CRUD surface for a single
// tenant credential.
type TemplateAPI struct {
	client *Client
	apiKey string
}

type templatePayload struct {
	Name        string   `json:"name"`
	Subject     string   `json:"subject"`
	HTMLContent string   `json:"html_content"`
	PlainText   string   `json:"plain_text"`
	FromEmail   string   `json:"from_email"`
	FromName    string   `json:"from_name"`
	Labels      []string `json:"labels,omitempty"`
}

// Create registers a new named template with the provider.
func (t *TemplateAPI) Create(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
	return t.do(ctx, http.MethodPost, "/v1/templates", &templatePayload{
		Name:        name,
		Subject:     fields.Subject,
		HTMLContent: fields.HTMLContent,
		PlainText:   fields.PlainText,
		FromEmail:   fields.FromEmail,
		FromName:    fields.FromName,
		Labels:      fields.Labels,
	})
}

// Update replaces the draft state of an existing template.
func (t *TemplateAPI) Update(ctx context.Context, name string, fields models.TemplateFields) (*models.TemplateSnapshot, error) {
	return t.do(ctx, http.MethodPut, "/v1/templates/"+url.PathEscape(name), &templatePayload{
		Name:        name,
		Subject:     fields.Subject,
		HTMLContent: fields.HTMLContent,
		PlainText:   fields.PlainText,
		FromEmail:   fields.FromEmail,
		FromName:    fields.FromName,
		Labels:      fields.Labels,
	})
}

// Delete removes a template and returns its final state.
func (t *TemplateAPI) Delete(ctx context.Context, name string) (*models.TemplateSnapshot, error) {
	return t.do(ctx, http.MethodDelete, "/v1/templates/"+url.PathEscape(name), nil)
}

// Get fetches the current full state of a template.
func (t *TemplateAPI) Get(ctx context.Context, name string) (*models.TemplateSnapshot, error) {
	return t.do(ctx, http.MethodGet, "/v1/templates/"+url.PathEscape(name), nil)
}

// List returns all templates visible to the credential.
func (t *TemplateAPI) List(ctx context.Context) ([]models.TemplateSnapshot, error) {
	body, err := t.request(ctx, http.MethodGet, "/v1/templates", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Templates []models.TemplateSnapshot `json:"templates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "decode provider response")
	}
	return result.Templates, nil
}

func (t *TemplateAPI) do(ctx context.Context, method, path string, payload *templatePayload) (*models.TemplateSnapshot, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "encode provider request")
		}
		body = bytes.NewReader(raw)
	}

	raw, err := t.request(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var snapshot models.TemplateSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "decode provider response")
	}
	return &snapshot, nil
}

func (t *TemplateAPI) request(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.client.baseURL+path, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "build provider request")
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "provider request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvider.Code, appErrors.ErrProvider.Status, "read provider response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "provider rejected the API key")
	case resp.StatusCode >= 400:
		return nil, appErrors.New(appErrors.ErrProvider.Code, appErrors.ErrProvider.Status,
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, truncate(raw, 200)))
	}
	return raw, nil
}

func truncate(raw []byte, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
