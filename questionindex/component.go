package questionindex

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/component"
)

// Component rebuilds the index from its source on start.
type Component struct {
	index  *Index
	source Source
}

// NewComponent creates the lifecycle wrapper for index.
func NewComponent(index *Index, source Source) *Component {
	return &Component{index: index, source: source}
}

func (c *Component) Name() string { return "questionindex" }

func (c *Component) Start(ctx context.Context) error {
	if err := c.index.Rebuild(ctx, c.source); err != nil {
		return fmt.Errorf("initial index build: %w", err)
	}
	return nil
}

func (c *Component) Stop(context.Context) error { return nil }

// Health is degraded while the index is empty: every window then ends in
// NoAction(NoQuestionsIndexed).
func (c *Component) Health(context.Context) component.Health {
	n := c.index.Len()
	if n == 0 {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "no questions indexed"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("%d questions", n)}
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "Question index", Type: "index", Details: "model=" + c.index.Model()}
}
