package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	pkgerrors "ekg-backend/pkg/errors"
)

// Config holds the client settings.
type Config struct {
	APIKey          string
	BaseURL         string
	DiscoveryModel  string
	GenerationModel string
	HTTPTimeout     time.Duration
}

// Client talks to the Responses API with the file_search tool bound to a
// vector store. All calls go through a circuit breaker so a misbehaving
// provider degrades fast instead of piling up requests.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

var _ ports.GenerationService = (*Client)(nil)

// NewClient creates a generation client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 120 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation-service",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Discover runs the question-analysis call against the discovery corpus.
func (c *Client) Discover(ctx context.Context, prompt, corpusID string) (*ports.InvokeResult, error) {
	return c.invoke(ctx, c.cfg.DiscoveryModel, prompt, corpusID, false, nil)
}

// Generate runs the grounded answer call against the document corpus.
func (c *Client) Generate(ctx context.Context, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
	return c.invoke(ctx, c.cfg.GenerationModel, prompt, corpusID, background, metadata)
}

func (c *Client) invoke(ctx context.Context, model, prompt, corpusID string, background bool, metadata map[string]string) (*ports.InvokeResult, error) {
	req := responseRequest{
		Model:      model,
		Input:      []inputMessage{{Role: "user", Content: prompt}},
		Background: background,
		Metadata:   metadata,
	}
	if corpusID != "" {
		req.Tools = []toolSpec{{Type: "file_search", VectorStoreIDs: []string{corpusID}}}
	}

	value, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, &req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, pkgerrors.NewUnavailableError("generation service")
		}
		return nil, err
	}

	resp := value.(*apiResponse)
	return &ports.InvokeResult{
		ID:          resp.ID,
		Status:      resp.Status,
		OutputText:  extractOutputText(resp),
		Annotations: extractAnnotations(resp),
	}, nil
}

func (c *Client) doRequest(ctx context.Context, payload *responseRequest) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encoding generation request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building generation request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewExternalError("generation service", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, pkgerrors.NewExternalError("generation service", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var envelope apiErrorEnvelope
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != nil {
			message = envelope.Error.Message
		}
		return nil, pkgerrors.NewExternalError("generation service",
			fmt.Errorf("status %d: %s", httpResp.StatusCode, message))
	}

	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, pkgerrors.NewExternalError("generation service", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, pkgerrors.NewExternalError("generation service",
			fmt.Errorf("%s: %s", resp.Error.Type, resp.Error.Message))
	}
	return &resp, nil
}

// extractOutputText prefers the convenience field and falls back to joining
// the message content parts.
func extractOutputText(resp *apiResponse) string {
	if resp.OutputText != "" {
		return resp.OutputText
	}

	var parts []string
	for _, item := range resp.Output {
		if item.Type != "" && item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Text != "" {
				parts = append(parts, content.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func extractAnnotations(resp *apiResponse) []ports.Annotation {
	var out []ports.Annotation
	for _, item := range resp.Output {
		for _, content := range item.Content {
			for _, a := range content.Annotations {
				out = append(out, ports.Annotation{
					Filename: a.Filename,
					Title:    a.Title,
					FileID:   a.FileID,
				})
			}
		}
	}
	return out
}
