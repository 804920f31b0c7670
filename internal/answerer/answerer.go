// Package answerer turns a question and its retrieved context into a final
// answer by calling the configured chat model.
package answerer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/rag"
)

// systemPrompt frames the model as a generic assistant. Grounding comes from
// the context block in the user message, not from the system prompt.
const systemPrompt = "You are a helpful assistant."

// Generator produces answers from a chat model. It implements
// rag.AnswerGenerator.
type Generator struct {
	model model.ToolCallingChatModel
}

var _ rag.AnswerGenerator = (*Generator)(nil)

// New returns a Generator backed by the given chat model.
func New(m model.ToolCallingChatModel) *Generator {
	return &Generator{model: m}
}

// Generate asks the model to answer the question using only the supplied
// context passages. Contexts are joined in the order given, so callers
// control which passages the model sees first. A provider failure is
// reported as rag.ErrProviderUnavailable; the answer text is returned
// verbatim, even when empty.
func (g *Generator) Generate(ctx context.Context, question string, contexts []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("answerer: empty question: %w", rag.ErrInvalidInput)
	}

	prompt := fmt.Sprintf("Context: %s\n\nQuestion: %s", strings.Join(contexts, "\n"), question)
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	logging.FromContext(ctx).Debug("answerer: generating answer",
		slog.Int("contexts", len(contexts)),
		slog.Int("prompt_chars", len(prompt)),
	)

	resp, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answerer: generate: %v: %w", err, rag.ErrProviderUnavailable)
	}
	if resp == nil {
		return "", fmt.Errorf("answerer: model returned no message: %w", rag.ErrProviderUnavailable)
	}
	return resp.Content, nil
}
