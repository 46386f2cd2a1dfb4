package storage

import (
	"context"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/logger"
)

// healthPath is looked up by Health; it never needs to exist.
const healthPath = ".podscribe-health"

// Component opens the configured store on Start.
type Component struct {
	cfg   Config
	log   *logger.Logger
	store Storage
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log}
}

func (c *Component) Name() string { return "storage" }

// Storage is nil until Start succeeds.
func (c *Component) Storage() Storage { return c.store }

func (c *Component) Start(_ context.Context) error {
	s, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	c.store = s
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.store = nil
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "provider=" + c.cfg.Provider}
	switch {
	case c.store == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	default:
		if _, err := c.store.Exists(ctx, healthPath); err != nil {
			h.Status, h.Message = component.StatusDegraded, "health check: "+err.Error()
		}
	}
	return h
}
