// Package oracle provides decision oracle implementations: an HTTP chat
// client for model-backed routing and judging, a deterministic rules
// engine, and resilience wrappers shared by both.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/config"
	"overseer-ai/internal/infra/tracer"
)

// maxResponseBody caps how much of an oracle response body is read.
const maxResponseBody = 1 * 1024 * 1024

// ChatOracle asks an OpenAI-compatible chat endpoint to make routing and
// judging decisions, at temperature zero, with JSON-only replies.
type ChatOracle struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ domain.DecisionOracle = (*ChatOracle)(nil)

// NewChatOracle creates a chat-backed oracle. The API key is resolved from
// the environment variable named in the config, never stored in the file.
func NewChatOracle(cfg config.OracleConfig, logger *slog.Logger) *ChatOracle {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	return &ChatOracle{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// Route implements domain.DecisionOracle.
func (o *ChatOracle) Route(ctx context.Context, req domain.RouteRequest) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "oracle.route",
		tracerAttrs("supervisor", req.Supervisor)...)
	defer span.End()

	var sb strings.Builder
	sb.WriteString(req.Prompt)
	sb.WriteString("\n\nYou are deciding which target handles the next step, if any.\nTargets:\n")
	for _, c := range req.Candidates {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Name, c.Description)
	}
	sb.WriteString("\nIf the task is already handled, or no target fits, choose ")
	sb.WriteString(domain.Terminal)
	sb.WriteString(".\n")
	if req.Guidance != "" {
		sb.WriteString("Reviewer guidance for this decision: ")
		sb.WriteString(req.Guidance)
		sb.WriteString("\n")
	}
	sb.WriteString(`Reply with JSON only: {"next": "<target name or ` + domain.Terminal + `>"}`)

	content, err := o.complete(ctx, sb.String(), req.Messages)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	var decision struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &decision); err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("parse routing decision %q: %w", content, err)
	}
	if decision.Next == "" {
		return "", fmt.Errorf("routing decision missing target: %q", content)
	}

	o.logger.Debug("oracle routed", "supervisor", req.Supervisor, "next", decision.Next)
	tracer.SetOK(span)
	return decision.Next, nil
}

// Judge implements domain.DecisionOracle.
func (o *ChatOracle) Judge(ctx context.Context, req domain.JudgeRequest) (*domain.Judgement, error) {
	ctx, span := tracer.StartSpan(ctx, "oracle.judge",
		tracerAttrs("worker", req.Worker)...)
	defer span.End()

	prompt := fmt.Sprintf(
		"You review whether a worker's output satisfies the user's task.\n"+
			"Task: %s\nWorker: %s\nOutput: %s\n\n"+
			"Score 1-10. Recommend retry only when the shortfall is fixable by "+
			"better routing, not when the capability is genuinely missing.\n"+
			`Reply with JSON only: {"score": <1-10>, "sufficient": <bool>, "critique": "<text>", "retry": <bool>}`,
		req.Task, req.Worker, req.Output)

	content, err := o.complete(ctx, prompt, nil)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var verdict domain.Judgement
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &verdict); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("parse judgement %q: %w", content, err)
	}
	tracer.SetOK(span)
	return &verdict, nil
}

// Chat wire types, OpenAI-compatible.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one chat completion and returns the reply content.
func (o *ChatOracle) complete(ctx context.Context, system string, transcript []domain.Message) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	messages := []chatMessage{{Role: domain.RoleSystem, Content: system}}
	for _, m := range transcript {
		content := m.Content
		if m.Name != "" {
			content = m.Name + ": " + content
		}
		role := m.Role
		if role == domain.RoleAssistant {
			// Worker output is presented as conversation input to the
			// deciding model.
			role = domain.RoleUser
		}
		messages = append(messages, chatMessage{Role: role, Content: content})
	}
	if len(transcript) == 0 {
		messages = append(messages, chatMessage{Role: domain.RoleUser, Content: "Decide now."})
	}

	body, err := json.Marshal(chatRequest{Model: o.model, Messages: messages, Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("oracle request: %w: %v", domain.ErrOracleUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read oracle response: %w: %v", domain.ErrOracleUnavailable, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", mapHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// mapHTTPError classifies an oracle HTTP failure. 429 and 5xx are
// transient; everything else is permanent.
func mapHTTPError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("oracle API error %d: %s: %w", status, detail, domain.ErrOracleUnavailable)
	}
	return fmt.Errorf("oracle API error %d: %s", status, detail)
}

func tracerAttrs(key, value string) []trace.SpanStartOption {
	return []trace.SpanStartOption{trace.WithAttributes(tracer.StringAttr(key, value))}
}

// codeFenceRe matches a markdown code fence wrapping JSON output.
var codeFenceRe = regexp.MustCompile("(?si)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeFences removes markdown fences if the model wrapped its reply.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}
