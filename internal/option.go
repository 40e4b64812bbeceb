package internal

import "io"

// Mode selects what Run does after the first conversion.
type Mode string

const (
	// ModeConvert converts once, or keeps rebuilding when watching.
	ModeConvert Mode = "convert"
	// ModeServe converts, watches and serves the HTTP API.
	ModeServe Mode = "serve"
	// ModeMCP converts and serves MCP over stdio.
	ModeMCP Mode = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    Mode
	watch   bool
	version string
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeConvert.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithWatch keeps rebuilding on graph changes after the first conversion.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects logs. MCP mode needs stdout for the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
