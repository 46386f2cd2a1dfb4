// Package logger provides structured logging for podscribe using zerolog.
//
// It supports JSON and console output, level configuration, named
// component loggers and context-carried identifiers (request and run IDs).
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
package logger
