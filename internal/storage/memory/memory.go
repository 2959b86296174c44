package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	schema    bool
	contacts  []model.Task
	results   []model.ResultRecord
	callbacks []model.CallbackRecord
	priority  []string
	mu        sync.Mutex
	logger    log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{logger: cfg.Logger}, nil
}

// EnsureSchema marks the schema as created.
func (r *Repository) EnsureSchema(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schema {
		return false, nil
	}
	r.schema = true
	r.logger.Debugf("Memory schema created")

	return true, nil
}

// ListContacts returns the contacts in insertion order.
func (r *Repository) ListContacts(ctx context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contacts := make([]model.Task, len(r.contacts))
	copy(contacts, r.contacts)
	return contacts, nil
}

// AppendContact appends a contact.
func (r *Repository) AppendContact(ctx context.Context, t model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contacts = append(r.contacts, model.Task{Code: t.Code, Phone: t.Phone, Origin: model.TaskOriginBulk})
	r.logger.Debugf("Appended contact: %s", t.Code)
	return nil
}

// UpdateContactPhone sets the phone of the first contact with the code.
func (r *Repository) UpdateContactPhone(ctx context.Context, code, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.contacts {
		if r.contacts[i].Code == code {
			r.contacts[i].Phone = phone
			r.logger.Debugf("Updated phone %s for code %s", phone, code)
			return nil
		}
	}

	r.logger.Warningf("Contact %s not found, phone not updated", code)
	return nil
}

// ListPriorityCodes returns the pending priority codes.
func (r *Repository) ListPriorityCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, len(r.priority))
	copy(codes, r.priority)
	return codes, nil
}

// AppendPriorityCodes appends codes to the priority list.
func (r *Repository) AppendPriorityCodes(ctx context.Context, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.priority = append(r.priority, codes...)
	return nil
}

// ClearPriority removes all the priority codes.
func (r *Repository) ClearPriority(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.priority = nil
	return nil
}

// AppendResult appends a result record.
func (r *Repository) AppendResult(ctx context.Context, rec model.ResultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, rec)
	r.logger.Debugf("Appended result for code %s", rec.Code)
	return nil
}

// ListResults returns the result records in insertion order.
func (r *Repository) ListResults(ctx context.Context) ([]model.ResultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]model.ResultRecord, len(r.results))
	copy(results, r.results)
	return results, nil
}

// ListResultCodes returns the codes present in the result log.
func (r *Repository) ListResultCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(r.results))
	for _, rec := range r.results {
		codes = append(codes, rec.Code)
	}
	return codes, nil
}

// AppendCallback appends a callback record.
func (r *Repository) AppendCallback(ctx context.Context, c model.CallbackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks = append(r.callbacks, c)
	r.logger.Debugf("Appended callback for code %s", c.Code)
	return nil
}

// ListCallbacks returns the callback records in insertion order.
func (r *Repository) ListCallbacks(ctx context.Context) ([]model.CallbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	callbacks := make([]model.CallbackRecord, len(r.callbacks))
	copy(callbacks, r.callbacks)
	return callbacks, nil
}
