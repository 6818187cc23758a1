package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/internal/config"
)

const (
	defaultGeneratorTimeout = 2 * time.Minute
	maxGeneratedImageSize   = 20 << 20
)

var errGeneratorResponse = errors.New("unexpected generator response")

// httpGenerator asks an HTTP endpoint for an image. The request body is
// {"prompt": ..., "params": {...}}; a 2xx answer carries the image bytes
// and their Content-Type.
type httpGenerator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ assetstore.Generator = (*httpGenerator)(nil)

func newHTTPGenerator(cfg config.GeneratorConfig) *httpGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeneratorTimeout
	}
	return &httpGenerator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Prompt string         `json:"prompt"`
	Params map[string]any `json:"params,omitempty"`
}

func (g *httpGenerator) Generate(ctx context.Context, prompt string, params map[string]any) ([]byte, string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt, Params: params})
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req) // #nosec G107 -- endpoint comes from trusted config
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("%w: %s: %s", errGeneratorResponse, resp.Status, strings.TrimSpace(string(msg)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGeneratedImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxGeneratedImageSize {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", errGeneratorResponse, maxGeneratedImageSize)
	}
	contentType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: content type %q is not an image", errGeneratorResponse, contentType)
	}
	return data, contentType, nil
}
