package utils

import "go.uber.org/zap"

// NewLogger returns the service logger. Debug mode uses zap's development
// config (console encoding, debug level) for watching the suggestion
// pipeline interactively; otherwise the production config (JSON, info
// level) is used.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewProductionLogger returns a production zap logger regardless of debug
// settings, for callers that always want structured JSON output.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}
