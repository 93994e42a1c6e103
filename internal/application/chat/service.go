package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/apperrors"
	appanalysis "github.com/vericlause/vericlause-ai/internal/application/analysis"
	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
	"github.com/vericlause/vericlause-ai/internal/infra/ai/prompt"
)

// MaxReferenceChars caps the secondary reference corpus embedded in the
// system prompt.
const MaxReferenceChars = 30000

// Request is one streaming chat turn.
type Request struct {
	ContractText  string
	ReferenceDocs string
	Messages      []chat.Message
}

// Service orchestrates the streaming chat flow.
type Service struct {
	Gateway domai.Gateway
	Corpus  *ReferenceCorpus // optional fallback when the request has no reference docs
	Logger  *zap.Logger
}

// Stream validates the request, builds the grounded system prompt and opens
// the gateway stream. The returned stream is owned by the caller.
func (s *Service) Stream(ctx context.Context, req Request) (domai.ChatStream, error) {
	if strings.TrimSpace(req.ContractText) == "" {
		return nil, apperrors.NewValidation("contract text is required")
	}
	if len(req.Messages) == 0 {
		return nil, apperrors.NewValidation("at least one message is required")
	}
	for _, m := range req.Messages {
		if _, err := chat.ParseRole(string(m.Role)); err != nil {
			return nil, apperrors.NewValidation(err.Error())
		}
	}

	refs := req.ReferenceDocs
	if refs == "" && s.Corpus != nil {
		text, err := s.Corpus.Load()
		if err != nil {
			// The corpus grounds answers but is not required for them.
			s.Logger.Warn("reference corpus unavailable", zap.Error(err))
		} else {
			refs = text
		}
	}

	systemPrompt := prompt.ChatSystemPrompt(
		appanalysis.Truncate(req.ContractText, appanalysis.MaxContractChars),
		appanalysis.Truncate(refs, MaxReferenceChars),
	)

	window := chat.Window(req.Messages)
	s.Logger.Debug("opening chat stream",
		zap.Int("messages", len(req.Messages)),
		zap.Int("window", len(window)))
	return s.Gateway.StreamChat(ctx, systemPrompt, window)
}
