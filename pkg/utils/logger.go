package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger named after the running component. When debug is
// true it uses the development config (console, debug level); otherwise production (JSON, info).
func NewLogger(debug bool, name string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if name != "" {
		logger = logger.Named(name)
	}
	return logger, nil
}
