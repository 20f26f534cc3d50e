package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process-wide logger. Set APP_ENV=production for
// sampled JSON output; anything else gets the human-readable development
// encoder.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
