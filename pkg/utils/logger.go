package utils

import "go.uber.org/zap"

// NewLogger builds the process logger. Debug mode gives the development
// config (console encoder, debug level); otherwise production JSON at info.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
