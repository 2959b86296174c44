package setup

import (
	"context"
	"fmt"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/storage"
	storageio "github.com/gavet/crmdialer/internal/storage/io"
	"github.com/gavet/crmdialer/internal/utils/file"
)

// ServiceConfig is the configuration for the setup service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Setup"})
	return nil
}

// Service prepares the data directory for a first run.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new setup service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters of the setup.
type Request struct {
	// CredentialsPath is where the credentials template is written if missing. Empty skips it.
	CredentialsPath string
}

// Result tells what the setup had to create.
type Result struct {
	StoreCreated       bool
	CredentialsCreated bool
}

// Run creates the task store schema and the credentials template when they are missing.
// Existing data is never modified.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	created, err := s.repo.EnsureSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not ensure store schema: %w", err)
	}
	res := &Result{StoreCreated: created}

	if req.CredentialsPath != "" {
		created, err := file.CreateIfMissing(req.CredentialsPath, []byte(storageio.CredentialsTemplate), 0600)
		if err != nil {
			return nil, fmt.Errorf("could not create credentials template: %w", err)
		}
		res.CredentialsCreated = created
		if created {
			s.logger.Infof("Credentials template created at %s", req.CredentialsPath)
		}
	}

	s.logger.Debugf("Setup finished: %+v", *res)
	return res, nil
}
