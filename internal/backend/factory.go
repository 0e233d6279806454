// Package backend selects and constructs the finance backend the
// application talks to.
package backend

import (
	"fmt"

	"finview/internal/config"
	"finview/internal/finance"
	"finview/internal/finance/memory"
	"finview/internal/finance/rest"
	"finview/internal/log"
)

// Type identifies a backend implementation.
type Type string

const (
	RESTBackend   Type = "rest"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	return t == RESTBackend || t == MemoryBackend
}

// Result carries the constructed backend plus its cleanup hook, nil when
// the backend needs none.
type Result struct {
	Backend finance.Backend
	Cleanup func() error
}

// Create builds the backend named by the configuration.
func Create(cfg *config.Config, logger *log.Logger) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	t := Type(cfg.DataBackend)
	switch t {
	case RESTBackend:
		client := rest.NewClient(cfg.BackendBaseURL, cfg.RequestTimeout, logger)
		logger.Info("Initialized REST backend",
			"base_url", cfg.BackendBaseURL,
			"timeout", cfg.RequestTimeout.String())
		return &Result{Backend: client}, nil
	case MemoryBackend:
		store := memory.New()
		logger.Info("Initialized memory backend")
		return &Result{Backend: store}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
