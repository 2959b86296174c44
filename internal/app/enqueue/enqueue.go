package enqueue

import (
	"context"
	"fmt"
	"strings"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage"
)

// ServiceConfig is the configuration for the enqueue service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Enqueue"})

	return nil
}

// Service appends codes to the priority list while no run is active.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new enqueue service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the enqueue request parameters.
type Request struct {
	// Codes are the raw codes, entries may hold several lines.
	Codes []string
}

// Run stores the non blank codes at the end of the priority list and returns how many were stored.
func (s *Service) Run(ctx context.Context, req Request) (int, error) {
	codes := model.ParseCodes(strings.Join(req.Codes, "\n"))
	if len(codes) == 0 {
		return 0, fmt.Errorf("at least one code is required: %w", model.ErrNotValid)
	}

	if _, err := s.repo.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("could not ensure store schema: %w", err)
	}

	if err := s.repo.AppendPriorityCodes(ctx, codes); err != nil {
		return 0, fmt.Errorf("could not append priority codes: %w", err)
	}

	s.logger.Infof("%d codes added to the priority list", len(codes))
	return len(codes), nil
}
