package server

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// pingFunc adapts a plain function into a Pinger.
type pingFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// PingerFunc wraps fn as a Pinger with the given name.
func PingerFunc(name string, fn func(ctx context.Context) error) Pinger {
	return &pingFunc{name: name, fn: fn}
}

func (p *pingFunc) Name() string                   { return p.name }
func (p *pingFunc) Ping(ctx context.Context) error { return p.fn(ctx) }

// StorePinger probes the document store. *store.SQLiteStore satisfies the
// embedded interface.
type StorePinger struct {
	store interface {
		Ping(ctx context.Context) error
	}
}

// NewStorePinger constructs a StorePinger for the given store.
func NewStorePinger(s interface{ Ping(ctx context.Context) error }) *StorePinger {
	return &StorePinger{store: s}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return "store" }

// Ping checks that the store's database handle is alive.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}

// EmbedderPinger probes the embedding backend by embedding a single short
// text. The call is cheap relative to a chat completion but still costs one
// embedding request per readiness check.
type EmbedderPinger struct {
	embedder rag.Embedder
}

// NewEmbedderPinger constructs an EmbedderPinger for the given embedder.
func NewEmbedderPinger(e rag.Embedder) *EmbedderPinger {
	return &EmbedderPinger{embedder: e}
}

// Name returns the dependency label used in readiness responses.
func (p *EmbedderPinger) Name() string { return "embedder" }

// Ping sends a one-word embedding request to the backend.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	if _, err := p.embedder.Embed(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("embed probe failed: %w", err)
	}
	return nil
}

// ModelPinger probes the chat backend with a one-word generation. Each
// readiness check costs one (tiny) completion request.
type ModelPinger struct {
	model model.ToolCallingChatModel
}

// NewModelPinger constructs a ModelPinger for the given chat model.
func NewModelPinger(m model.ToolCallingChatModel) *ModelPinger {
	return &ModelPinger{model: m}
}

// Name returns the dependency label used in readiness responses.
func (p *ModelPinger) Name() string { return "model" }

// Ping sends a one-word prompt to the chat backend.
func (p *ModelPinger) Ping(ctx context.Context) error {
	if _, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")}); err != nil {
		return fmt.Errorf("generate probe failed: %w", err)
	}
	return nil
}
