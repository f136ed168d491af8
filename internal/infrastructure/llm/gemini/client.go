// Package gemini drives the multi-turn analysis exchange against the
// Gemini generateContent API. A Conversation replays its full history on
// every turn so later instructions can reference earlier uploads.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/medassure/claims-backoffice/internal/core/domain"
	"github.com/medassure/claims-backoffice/internal/core/ports"
	"github.com/medassure/claims-backoffice/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(apiKey, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// NewWithBaseURL is used by tests.
func NewWithBaseURL(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	c := New(apiKey, model, executor)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) StartConversation() ports.AnalysisConversation {
	return &Conversation{client: c}
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Conversation accumulates user and model turns. Not safe for
// concurrent use; the orchestrator runs turns strictly in order.
type Conversation struct {
	client  *Client
	history []content
}

func (conv *Conversation) AnalyzeScans(ctx context.Context, files []domain.Attachment) ([]domain.DocFinding, error) {
	raw, err := conv.send(ctx, "analyze scans", scanPrompt, files)
	if err != nil {
		return nil, err
	}
	return parseFindings("analyze scans", raw)
}

func (conv *Conversation) AnalyzeTexts(ctx context.Context, files []domain.Attachment) ([]domain.DocFinding, error) {
	raw, err := conv.send(ctx, "analyze texts", textPrompt, files)
	if err != nil {
		return nil, err
	}
	return parseFindings("analyze texts", raw)
}

func (conv *Conversation) TreatmentOptions(ctx context.Context, files []domain.Attachment) (string, error) {
	raw, err := conv.send(ctx, "treatment options", treatmentPrompt, files)
	if err != nil {
		return "", err
	}
	return parseSingleObject("treatment options", raw, "TreatmentDetails")
}

func (conv *Conversation) ClinicalSummary(ctx context.Context, files []domain.Attachment) (string, error) {
	raw, err := conv.send(ctx, "clinical summary", summaryPrompt, files)
	if err != nil {
		return "", err
	}
	return parseSingleObject("clinical summary", raw, "Summary")
}

// send appends one user turn, calls the API with the full history and
// records the model's reply. The turn is not recorded on failure.
func (conv *Conversation) send(ctx context.Context, operation, prompt string, files []domain.Attachment) (string, error) {
	parts := make([]part, 0, len(files)+1)
	parts = append(parts, part{Text: prompt})
	for _, file := range files {
		data, err := os.ReadFile(file.Path)
		if err != nil {
			return "", domain.WrapError(domain.ErrUpstreamGeneration, operation, fmt.Errorf("read staged file: %w", err))
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: file.MimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}

	userTurn := content{Role: "user", Parts: parts}
	contents := append(append([]content{}, conv.history...), userTurn)

	var reply string
	err := conv.client.executor.Execute(ctx, "gemini_generate", func(ctx context.Context) error {
		var callErr error
		reply, callErr = conv.client.generate(ctx, operation, contents)
		return callErr
	}, classifyGeminiError)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstreamGeneration, operation, err)
	}

	conv.history = append(conv.history, userTurn, content{Role: "model", Parts: []part{{Text: reply}}})
	return reply, nil
}

func (c *Client) generate(ctx context.Context, operation string, contents []content) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBody),
		}
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode %s response: %w", operation, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini %s: empty candidate", operation)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
