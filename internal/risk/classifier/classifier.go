package classifier

import (
	"context"
	"fmt"

	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
	"github.com/cardiolens/cardiolens-backend/pkg/config"
	"github.com/cardiolens/cardiolens-backend/pkg/errors"
)

// Classifier is a binary cardiovascular-risk model. Implementations are
// read-only after construction and safe for concurrent use.
type Classifier interface {
	// Predict returns the class (0 or 1) for each row
	Predict(ctx context.Context, rows []domain.FeatureVector) ([]int, error)

	// PredictProba returns [P(class 0), P(class 1)] for each row
	PredictProba(ctx context.Context, rows []domain.FeatureVector) ([][2]float64, error)

	// Name identifies the backend for logs and health output
	Name() string
}

// Unavailable stands in for a model that failed to load at startup.
// Every call fails with errors.ErrModelUnavailable.
type Unavailable struct {
	Backend string
	Cause   error
}

func (u *Unavailable) Name() string { return u.Backend }

func (u *Unavailable) Predict(context.Context, []domain.FeatureVector) ([]int, error) {
	return nil, errors.ErrModelUnavailable
}

func (u *Unavailable) PredictProba(context.Context, []domain.FeatureVector) ([][2]float64, error) {
	return nil, errors.ErrModelUnavailable
}

// Available reports whether c can actually score rows.
func Available(c Classifier) bool {
	if c == nil {
		return false
	}
	_, unavailable := c.(*Unavailable)
	return !unavailable
}

// New builds the configured backend. On failure it returns the Unavailable
// sentinel together with the load error so the caller can log it and keep
// serving everything else.
func New(cfg config.ModelConfig) (Classifier, error) {
	var (
		c   Classifier
		err error
	)
	switch cfg.Backend {
	case config.ModelBackendTree, "":
		c, err = LoadTreeEnsemble(cfg.Path)
	case config.ModelBackendRemote:
		c, err = NewRemote(cfg.RemoteURL, cfg.RemoteTimeout)
	default:
		err = fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	if err != nil {
		return &Unavailable{Backend: cfg.Backend, Cause: err}, err
	}
	return c, nil
}
