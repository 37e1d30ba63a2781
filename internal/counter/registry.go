package counter

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/tokencount/internal/models"
	"github.com/mark3labs/tokencount/internal/tokens"
	"golang.org/x/sync/singleflight"
)

// InitError reports that a provider's tokenizer could not be constructed.
type InitError struct {
	Provider models.Provider
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s tokenizer: %v", e.Provider, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Builder constructs the tokenizer of a provider.
type Builder func(ctx context.Context, provider models.Provider) (tokens.Tokenizer, error)

// Registry lazily constructs one tokenizer per provider and reuses it for
// the life of the process. Concurrent requests for a provider that is not
// built yet wait for a single construction. Failed constructions are not
// kept, so the next request tries again.
type Registry struct {
	build Builder

	mu         sync.RWMutex
	tokenizers map[models.Provider]tokens.Tokenizer
	group      singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry(build Builder) *Registry {
	return &Registry{
		build:      build,
		tokenizers: make(map[models.Provider]tokens.Tokenizer),
	}
}

// Get returns the tokenizer of provider, constructing it on first use.
func (r *Registry) Get(ctx context.Context, provider models.Provider) (tokens.Tokenizer, error) {
	if tok, ok := r.lookup(provider); ok {
		return tok, nil
	}

	v, err, _ := r.group.Do(string(provider), func() (any, error) {
		if tok, ok := r.lookup(provider); ok {
			return tok, nil
		}
		// The construction is shared by every waiting caller, so it must not
		// be aborted by the first caller going away.
		tok, err := r.build(context.WithoutCancel(ctx), provider)
		if err != nil {
			return nil, &InitError{Provider: provider, Err: err}
		}
		r.mu.Lock()
		r.tokenizers[provider] = tok
		r.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(tokens.Tokenizer), nil
}

// Loaded returns the providers whose tokenizer is already constructed.
func (r *Registry) Loaded() []models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Provider, 0, len(r.tokenizers))
	for p := range r.tokenizers {
		out = append(out, p)
	}
	return out
}

func (r *Registry) lookup(provider models.Provider) (tokens.Tokenizer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tok, ok := r.tokenizers[provider]
	return tok, ok
}
