package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage"
)

// ServiceConfig is the configuration for the report service.
type ServiceConfig struct {
	Repository storage.Repository
	Now        func() time.Time
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Now == nil {
		c.Now = time.Now
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Report"})

	return nil
}

// Service reads the task store and reports its progress.
type Service struct {
	repo   storage.Repository
	now    func() time.Time
	logger log.Logger
}

// NewService creates a new report service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		now:    cfg.Now,
		logger: cfg.Logger,
	}, nil
}

// Summary counts the store records. A contact is pending when its code has no result yet.
func (s *Service) Summary(ctx context.Context) (*model.Summary, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list contacts: %w", err)
	}

	results, err := s.repo.ListResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list results: %w", err)
	}

	callbacks, err := s.repo.ListCallbacks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list callbacks: %w", err)
	}

	priority, err := s.repo.ListPriorityCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list priority codes: %w", err)
	}

	sum := &model.Summary{
		GeneratedAt:     s.now(),
		Contacts:        len(contacts),
		Results:         len(results),
		Callbacks:       len(callbacks),
		PendingPriority: len(priority),
		Outcomes:        map[model.OutcomeKind]int{},
	}

	contacted := make(map[string]struct{}, len(results))
	for _, r := range results {
		contacted[r.Code] = struct{}{}
		sum.Outcomes[model.ClassifyObservation(r.Observation)]++
	}

	for _, c := range contacts {
		if c.Phone != "" {
			sum.ContactsWithPhone++
		}
		if _, ok := contacted[c.Code]; !ok {
			sum.PendingContacts++
		}
	}

	s.logger.Debugf("Summary generated: %d contacts, %d results", sum.Contacts, sum.Results)
	return sum, nil
}

// CallbacksRequest represents the callback listing parameters.
type CallbacksRequest struct {
	// Date is an optional dd/mm/yyyy filter.
	Date string
	// Status is an optional status filter.
	Status string
}

func (r CallbacksRequest) validate() error {
	if r.Date == "" {
		return nil
	}
	if _, err := time.Parse(model.RecordDateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q, use dd/mm/yyyy: %w", r.Date, model.ErrNotValid)
	}
	return nil
}

// Callbacks lists the scheduled callbacks in the order they were scheduled.
func (s *Service) Callbacks(ctx context.Context, req CallbacksRequest) ([]model.CallbackRecord, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Status = strings.TrimSpace(req.Status)
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	callbacks, err := s.repo.ListCallbacks(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list callbacks: %w", err)
	}

	filtered := make([]model.CallbackRecord, 0, len(callbacks))
	for _, c := range callbacks {
		if req.Date != "" && c.Date != req.Date {
			continue
		}
		if req.Status != "" && !strings.EqualFold(c.Status, req.Status) {
			continue
		}
		filtered = append(filtered, c)
	}

	return filtered, nil
}
