// Package server provides the HTTP server behind "podscribe serve": Gin on
// HTTP/1.1 and cleartext HTTP/2, the middleware stack in server/middleware
// and the operational endpoints in server/endpoint.
//
//	srv := server.New(cfg.Server, log, metrics)
//	srv.Engine().GET("/health", endpoint.Health(name, registry.HealthAll))
//	registry.Register(server.NewComponent(srv))
package server
