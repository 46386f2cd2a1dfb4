package server

import (
	"context"

	"github.com/kbukum/podscribe/component"
)

const componentName = "http-server"

var _ component.Component = (*Component)(nil)

// Component wraps Server for the component registry.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (c *Component) Name() string { return componentName }

// Start starts the HTTP server.
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

// Stop shuts down the HTTP server.
func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health reports whether the server is listening.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.server.Listening() {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "HTTP server not started",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: c.server.Addr()}
}
