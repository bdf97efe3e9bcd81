package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

// Client produces a raw weekly-schedule draft from aggregated curriculum data.
type Client interface {
	GenerateDraft(ctx context.Context, input dto.GeneratorInput) (dto.GeneratedDraft, error)
}

// Config points the HTTP client at the external text-generation service.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPClient calls the external generation service over HTTP. The call is
// bounded by the configured timeout and honours caller cancellation, so a
// client disconnect does not leave an orphaned upstream request.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a generator client.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type generateRequest struct {
	Model string             `json:"model"`
	Input dto.GeneratorInput `json:"input"`
}

type generateResponse struct {
	Output string `json:"output"`
}

// GenerateDraft sends the aggregated structure and decodes the returned
// draft. Failures are reported as upstream errors; no retry happens here.
func (c *HTTPClient) GenerateDraft(ctx context.Context, input dto.GeneratorInput) (dto.GeneratedDraft, error) {
	payload, err := json.Marshal(generateRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generator payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build generator request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "generator call failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read generator response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("generator returned status %d", resp.StatusCode))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "generator response envelope is not JSON")
	}

	draft, err := DecodeDraft(out.Output)
	if err != nil {
		return nil, err
	}

	c.logger.Info("draft generated",
		zap.Duration("latency", time.Since(start)),
		zap.Int("classes", len(draft)),
	)
	return draft, nil
}
