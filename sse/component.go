package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/podscribe/component"
)

// Component closes the hub, and with it every open stream, on shutdown.
type Component struct {
	hub *Hub
}

var _ component.Component = (*Component)(nil)

func NewComponent() *Component { return &Component{hub: NewHub()} }

func (c *Component) Hub() *Hub    { return c.hub }
func (c *Component) Name() string { return "sse" }

func (c *Component) Start(context.Context) error { return nil }

func (c *Component) Stop(context.Context) error {
	c.hub.Close()
	return nil
}

func (c *Component) Health(context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.ClientCount()),
	}
}
