package ai

import (
	"context"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
)

// Gateway is the port to the external LLM provider.
type Gateway interface {
	// AnalyzeContract runs the forced tool-call analysis over the (already
	// truncated) contract text and returns the structured result.
	AnalyzeContract(ctx context.Context, contractText string) (*analysis.Result, error)

	// GenerateUpdate sends a free-text completion request combining the
	// contract with a numbered change-instruction block and returns the
	// rewritten contract text.
	GenerateUpdate(ctx context.Context, contractText, instructions string) (string, error)

	// StreamChat opens a streaming completion. Gateway failures that occur
	// before the stream starts are returned as classified errors.
	StreamChat(ctx context.Context, systemPrompt string, messages []chat.Message) (ChatStream, error)
}

// ChatStream yields incremental chunks of an in-flight completion. Recv
// returns the next chunk serialized in the gateway's wire shape (a JSON
// object carrying choices[0].delta.content) and io.EOF when the stream ends.
type ChatStream interface {
	Recv() ([]byte, error)
	Close() error
}
