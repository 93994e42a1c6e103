package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
	"github.com/vericlause/vericlause-ai/internal/infra/ai/prompt"
)

const maxTokens = 4096

// Client adapts the go-openai SDK to the domain Gateway port. It works
// against any OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds gateway connection settings.
type Config struct {
	Endpoint string // base URL, empty for the default OpenAI endpoint
	APIKey   string
	Model    string
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger.Named("gateway"),
	}
}

var _ domai.Gateway = (*Client)(nil)

// AnalyzeContract issues a forced tool-call completion and parses the tool
// arguments into the structured result.
func (c *Client) AnalyzeContract(ctx context.Context, contractText string) (*analysis.Result, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.AnalystSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: contractText},
		},
		Tools:      []openai.Tool{prompt.AnalysisTool()},
		ToolChoice: prompt.AnalysisToolChoice(),
		MaxTokens:  maxTokens,
	})
	if err != nil {
		c.logger.Error("analysis request failed",
			zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, classify(err)
	}

	args, err := forcedToolArguments(resp)
	if err != nil {
		return nil, err
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(args), &result); err != nil {
		c.logger.Warn("tool arguments are not valid JSON", zap.Error(err))
		return nil, domai.ErrMalformedOutput
	}

	c.logger.Info("analysis request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return &result, nil
}

// forcedToolArguments extracts the single forced tool-call's raw arguments.
func forcedToolArguments(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", domai.ErrMalformedOutput
	}
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Function.Name == prompt.AnalysisToolName {
			return tc.Function.Arguments, nil
		}
	}
	return "", domai.ErrMalformedOutput
}

// GenerateUpdate issues a free-text completion combining the contract with
// the instruction block and returns the model's raw text content.
func (c *Client) GenerateUpdate(ctx context.Context, contractText, instructions string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.UpdateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: instructions + "\n\n=== CONTRACT ===\n" + contractText},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		c.logger.Error("update request failed", zap.Error(err))
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domai.ErrMalformedOutput
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat opens a streaming completion. Failures before the stream
// starts are classified; mid-stream failures surface through Recv.
func (c *Client) StreamChat(ctx context.Context, systemPrompt string, messages []chat.Message) (domai.ChatStream, error) {
	oaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaiMessages,
		Stream:   true,
	})
	if err != nil {
		c.logger.Error("chat stream open failed", zap.Error(err))
		return nil, classify(err)
	}
	return &chatStream{stream: stream}, nil
}

// chatStream re-serializes SDK chunks back into the gateway's wire shape so
// the HTTP layer can forward them as SSE data frames unchanged.
type chatStream struct {
	stream *openai.ChatCompletionStream
}

func (s *chatStream) Recv() ([]byte, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, classify(err)
	}
	return json.Marshal(resp)
}

func (s *chatStream) Close() error { return s.stream.Close() }

// classify maps SDK errors onto the domain error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return domai.ErrRateLimited
		case 402:
			return domai.ErrQuotaExceeded
		default:
			return &domai.GatewayError{
				StatusCode: apiErr.HTTPStatusCode,
				Message:    apiErr.Message,
			}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case 429:
			return domai.ErrRateLimited
		case 402:
			return domai.ErrQuotaExceeded
		default:
			return &domai.GatewayError{
				StatusCode: reqErr.HTTPStatusCode,
				Message:    reqErr.Error(),
			}
		}
	}
	return &domai.GatewayError{StatusCode: 0, Message: err.Error()}
}
