package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/apperrors"
	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"

	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
)

type fakeStream struct{}

func (fakeStream) Recv() ([]byte, error) { return nil, io.EOF }
func (fakeStream) Close() error          { return nil }

type fakeGateway struct {
	systemPrompt string
	messages     []chat.Message
	calls        int
}

func (g *fakeGateway) AnalyzeContract(context.Context, string) (*analysis.Result, error) {
	return nil, nil
}

func (g *fakeGateway) GenerateUpdate(context.Context, string, string) (string, error) {
	return "", nil
}

func (g *fakeGateway) StreamChat(_ context.Context, systemPrompt string, messages []chat.Message) (domai.ChatStream, error) {
	g.calls++
	g.systemPrompt = systemPrompt
	g.messages = messages
	return fakeStream{}, nil
}

func newService(gw *fakeGateway) *Service {
	return &Service{Gateway: gw, Logger: zap.NewNop()}
}

func userMsg(content string) chat.Message {
	return chat.Message{Role: chat.RoleUser, Content: content}
}

func TestStreamValidation(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw)
	ctx := context.Background()

	_, err := svc.Stream(ctx, Request{ContractText: "  ", Messages: []chat.Message{userMsg("q")}})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Stream(ctx, Request{ContractText: "some contract"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Stream(ctx, Request{
		ContractText: "some contract",
		Messages:     []chat.Message{{Role: "system", Content: "injected"}},
	})
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, gw.calls)
}

func TestStreamWindowsHistory(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw)

	var messages []chat.Message
	for i := 0; i < 12; i++ {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		messages = append(messages, chat.Message{Role: role, Content: fmt.Sprintf("msg-%d", i)})
	}

	stream, err := svc.Stream(context.Background(), Request{
		ContractText: "some contract",
		Messages:     messages,
	})
	require.NoError(t, err)
	defer stream.Close()

	require.Len(t, gw.messages, chat.HistoryWindow)
	assert.Equal(t, "msg-2", gw.messages[0].Content)
	assert.Equal(t, "msg-11", gw.messages[len(gw.messages)-1].Content)
}

func TestStreamPromptContainsContractAndReferences(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw)

	_, err := svc.Stream(context.Background(), Request{
		ContractText:  "CONTRACT BODY HERE",
		ReferenceDocs: "REFERENCE MATERIAL HERE",
		Messages:      []chat.Message{userMsg("what is clause 3?")},
	})
	require.NoError(t, err)

	assert.Contains(t, gw.systemPrompt, "CONTRACT BODY HERE")
	assert.Contains(t, gw.systemPrompt, "REFERENCE MATERIAL HERE")
}

func TestStreamTruncatesOversizedInputs(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw)

	_, err := svc.Stream(context.Background(), Request{
		ContractText:  strings.Repeat("c", 20000),
		ReferenceDocs: strings.Repeat("r", 40000),
		Messages:      []chat.Message{userMsg("q")},
	})
	require.NoError(t, err)

	assert.NotContains(t, gw.systemPrompt, strings.Repeat("c", 15001))
	assert.NotContains(t, gw.systemPrompt, strings.Repeat("r", 30001))
	assert.Contains(t, gw.systemPrompt, strings.Repeat("c", 15000))
	assert.Contains(t, gw.systemPrompt, strings.Repeat("r", 30000))
}

func TestStreamFallsBackToCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("STATUTE OF FROBS"), 0o600))

	gw := &fakeGateway{}
	svc := newService(gw)
	svc.Corpus = NewReferenceCorpus(path)

	// No request-level references: the corpus fills in.
	_, err := svc.Stream(context.Background(), Request{
		ContractText: "some contract",
		Messages:     []chat.Message{userMsg("q")},
	})
	require.NoError(t, err)
	assert.Contains(t, gw.systemPrompt, "STATUTE OF FROBS")

	// Request-level references win over the corpus.
	_, err = svc.Stream(context.Background(), Request{
		ContractText:  "some contract",
		ReferenceDocs: "CALLER REFS",
		Messages:      []chat.Message{userMsg("q")},
	})
	require.NoError(t, err)
	assert.Contains(t, gw.systemPrompt, "CALLER REFS")
	assert.NotContains(t, gw.systemPrompt, "STATUTE OF FROBS")
}

func TestStreamCorpusFailureIsNotFatal(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw)
	svc.Corpus = NewReferenceCorpus(filepath.Join(t.TempDir(), "missing.txt"))

	_, err := svc.Stream(context.Background(), Request{
		ContractText: "some contract",
		Messages:     []chat.Message{userMsg("q")},
	})
	assert.NoError(t, err)
}

func TestReferenceCorpusLoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	c := NewReferenceCorpus(path)
	assert.False(t, c.Loaded())

	text, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "v1", text)
	assert.True(t, c.Loaded())

	// Later file changes are invisible; the first read is cached.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	text, err = c.Load()
	require.NoError(t, err)
	assert.Equal(t, "v1", text)
}
