package database

import (
	"context"
	"fmt"

	"github.com/kbukum/podscribe/component"
	"github.com/kbukum/podscribe/logger"
)

// Component owns the history database. When cfg.Enabled is false it never
// opens anything and DB returns nil.
type Component struct {
	cfg Config
	log *logger.Logger
	db  *DB
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Get("database")
	}
	return &Component{cfg: cfg, log: log}
}

// DB returns the open database, or nil before Start or when disabled.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
	case c.db == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not opened"
	default:
		if err := c.db.Ping(ctx); err != nil {
			h.Status, h.Message = component.StatusUnhealthy, fmt.Sprintf("ping failed: %v", err)
		}
	}
	return h
}
