package answerer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// fakeChatModel records the messages it receives and returns a canned
// response or error.
type fakeChatModel struct {
	got  []*schema.Message
	resp *schema.Message
	err  error
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChatModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{resp: schema.AssistantMessage("The sky is blue.", nil)}
	g := New(fake)

	answer, err := g.Generate(context.Background(), "what color is the sky?", []string{"the sky is blue", "grass is green"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "The sky is blue." {
		t.Errorf("unexpected answer %q", answer)
	}

	if len(fake.got) != 2 {
		t.Fatalf("want system + user message, got %d messages", len(fake.got))
	}
	if fake.got[0].Role != schema.System || fake.got[0].Content != systemPrompt {
		t.Errorf("unexpected system message: %+v", fake.got[0])
	}
	user := fake.got[1].Content
	if !strings.Contains(user, "Context: the sky is blue\ngrass is green") {
		t.Errorf("contexts not joined in order: %q", user)
	}
	if !strings.Contains(user, "Question: what color is the sky?") {
		t.Errorf("question missing from prompt: %q", user)
	}
}

func TestGenerateEmptyQuestion(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{resp: schema.AssistantMessage("hi", nil)}
	g := New(fake)

	_, err := g.Generate(context.Background(), "   ", []string{"context"})
	if !errors.Is(err, rag.ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput, got %v", err)
	}
	if fake.got != nil {
		t.Error("model was called for an empty question")
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("connection refused")}
	g := New(fake)

	_, err := g.Generate(context.Background(), "question", []string{"context"})
	if !errors.Is(err, rag.ErrProviderUnavailable) {
		t.Errorf("want ErrProviderUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("underlying cause not preserved: %v", err)
	}
}

func TestGenerateNilResponse(t *testing.T) {
	t.Parallel()

	g := New(&fakeChatModel{})

	_, err := g.Generate(context.Background(), "question", nil)
	if !errors.Is(err, rag.ErrProviderUnavailable) {
		t.Errorf("want ErrProviderUnavailable, got %v", err)
	}
}
