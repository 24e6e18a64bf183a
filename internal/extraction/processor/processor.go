package processor

import (
	"context"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/domain"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/storage"
)

// Processor turns an uploaded document into raw text.
type Processor interface {
	// CanProcess returns true if this processor handles the given document kind
	CanProcess(kind domain.DocumentKind) bool

	// Process reads the document at path. Any intermediate files must be
	// written inside ws, which the caller removes afterwards.
	Process(ctx context.Context, path string, ws *storage.Workspace) (*domain.Text, error)

	// Name returns the processor name for logging
	Name() string
}

// Registry holds all registered processors and dispatches to the right one
type Registry struct {
	processors []Processor
}

// NewRegistry creates a new processor registry
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// FindProcessor returns the first processor that can handle the given kind
func (r *Registry) FindProcessor(kind domain.DocumentKind) Processor {
	for _, p := range r.processors {
		if p.CanProcess(kind) {
			return p
		}
	}
	return nil
}
