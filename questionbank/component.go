package questionbank

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/component"
)

// Component seeds the bank on start. It must start after the database.
type Component struct {
	store *Store
	seed  bool
}

// NewComponent wraps store. When seed is set an empty bank receives the
// default questions.
func NewComponent(store *Store, seed bool) *Component {
	return &Component{store: store, seed: seed}
}

func (c *Component) Name() string { return "questionbank" }

func (c *Component) Start(ctx context.Context) error {
	if !c.seed {
		return nil
	}
	if _, err := c.store.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

func (c *Component) Health(ctx context.Context) component.Health {
	qs, err := c.store.ListQuestions(ctx)
	if err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("%d questions", len(qs))}
}
