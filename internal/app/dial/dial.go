package dial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gavet/crmdialer/internal/crm"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage"
)

// ErrAlreadyRunning is returned when a run is started while another one is active.
var ErrAlreadyRunning = errors.New("dialer is already running")

// CredentialsProvider returns the CRM credentials used to login on every run.
type CredentialsProvider func(ctx context.Context) (model.Credentials, error)

// Pacing are the pauses the loop takes after the non call outcomes.
type Pacing struct {
	// Skip is the pause after skipping an already contacted code.
	Skip time.Duration
	// NotFound is the pause after a divergence, a missing phone or an unresolved task.
	NotFound time.Duration
	// DialError is the pause after a failed call.
	DialError time.Duration
}

// DefaultPacing returns the pacing used against the real CRM.
func DefaultPacing() Pacing {
	return Pacing{
		Skip:      time.Second,
		NotFound:  2 * time.Second,
		DialError: 5 * time.Second,
	}
}

// ServiceConfig is the configuration for the dial service.
type ServiceConfig struct {
	Repository  storage.Repository
	Session     crm.Session
	Credentials CredentialsProvider
	// Pacing defaults to DefaultPacing when nil.
	Pacing *Pacing
	// Observer receives every state change. It is called without any lock held.
	Observer func(Snapshot)
	Now      func() time.Time
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Session == nil {
		return fmt.Errorf("session is required")
	}
	if c.Credentials == nil {
		return fmt.Errorf("credentials provider is required")
	}
	if c.Pacing == nil {
		p := DefaultPacing()
		c.Pacing = &p
	}
	if c.Observer == nil {
		c.Observer = func(Snapshot) {}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Dial"})
	return nil
}

// Service runs the call queue: it merges the priority queue with the contact list, resolves
// phones on the CRM, dials and waits for the operator outcome of every call.
type Service struct {
	repo        storage.Repository
	session     crm.Session
	credentials CredentialsProvider
	pacing      Pacing
	observer    func(Snapshot)
	now         func() time.Time
	logger      log.Logger

	queue *priorityQueue
	gate  *Gate

	mu        sync.Mutex
	phase     State
	status    string
	runID     string
	cancel    context.CancelFunc
	paused    bool
	resume    chan struct{}
	current   model.Task
	awaiting  bool
	processed int
	remaining int
	fatal     string
}

// NewService creates a new dial service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:        cfg.Repository,
		session:     cfg.Session,
		credentials: cfg.Credentials,
		pacing:      *cfg.Pacing,
		observer:    cfg.Observer,
		now:         cfg.Now,
		logger:      cfg.Logger,
		queue:       &priorityQueue{},
		gate:        NewGate(),
		phase:       StateIdle,
		status:      "Ocioso",
	}, nil
}

// Run logs in and processes the queue until it is exhausted or the run is stopped. Only
// setup errors are returned, every task level error is logged and the loop continues.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runID = ulid.Make().String()
	s.phase = StateStarting
	s.paused = false
	s.current = model.Task{}
	s.processed = 0
	s.remaining = 0
	s.fatal = ""
	logger := s.logger.WithValues(log.Kv{"run": s.runID})
	s.mu.Unlock()
	defer cancel()

	logger.Infof("Starting dialer run")

	if err := s.setup(ctx, logger); err != nil {
		s.finish(logger, err)
		return err
	}

	r := newRun(s, logger)
	r.load(ctx)
	s.setPhase(StateRunning)
	r.loop(ctx)

	s.finish(logger, nil)
	return nil
}

func (s *Service) setup(ctx context.Context, logger log.Logger) error {
	s.setStatus("Lendo configurações...")
	creds, err := s.credentials(ctx)
	if err != nil {
		return fmt.Errorf("could not load credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	s.setStatus("Abrindo o CRM e fazendo login...")
	if err := s.session.Login(ctx, creds); err != nil {
		return fmt.Errorf("could not login on the CRM: %w", err)
	}
	s.setStatus("Login efetuado!")
	logger.Infof("Logged in on the CRM as %s", creds.User)

	return nil
}

func (s *Service) finish(logger log.Logger, err error) {
	s.mu.Lock()
	s.cancel = nil
	if s.paused {
		close(s.resume)
		s.paused = false
	}
	s.current = model.Task{}
	s.awaiting = false
	if err != nil {
		s.phase = StateFailed
		s.fatal = err.Error()
		s.status = "Erro no setup inicial!"
	} else {
		s.phase = StateFinished
		s.status = "Automação finalizada."
	}
	s.mu.Unlock()

	if err != nil {
		logger.Errorf("Dialer run failed: %s", err)
	} else {
		logger.Infof("Dialer run finished")
	}
	s.publish()
}

// Stop ends the current run. A call waiting for its outcome is abandoned.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		s.logger.Infof("Stop requested")
		cancel()
	}
}

// Pause holds the loop before the next task. The current call is not affected.
func (s *Service) Pause() {
	s.mu.Lock()
	if s.cancel == nil || s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.resume = make(chan struct{})
	s.status = "Pausado"
	s.mu.Unlock()

	s.logger.Infof("Paused")
	s.publish()
}

// Resume releases a paused loop.
func (s *Service) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	close(s.resume)
	s.paused = false
	s.status = "Continuando automação..."
	s.mu.Unlock()

	s.logger.Infof("Resumed")
	s.publish()
}

// AddCodes appends the codes to the contact list and queues them with priority, in order.
// Codes are queued even when the contact list could not be written.
func (s *Service) AddCodes(ctx context.Context, codes []string) (int, error) {
	var tasks []model.Task
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			tasks = append(tasks, model.Task{Code: c, Origin: model.TaskOriginPriority})
		}
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	s.setStatus(fmt.Sprintf("Adicionando %d CODs à fila...", len(tasks)))

	var errs []error
	for _, t := range tasks {
		if err := s.repo.AppendContact(ctx, model.Task{Code: t.Code}); err != nil {
			s.logger.Errorf("Could not append contact %s: %s", t.Code, err)
			errs = append(errs, fmt.Errorf("could not append contact %s: %w", t.Code, err))
		}
	}
	s.queue.push(tasks...)

	if len(errs) > 0 {
		s.setStatus("Erro ao salvar na planilha!")
	} else {
		s.setStatus(fmt.Sprintf("%d CODs adicionados com prioridade.", len(tasks)))
	}
	s.logger.Infof("Queued %d priority codes", len(tasks))

	return len(tasks), errors.Join(errs...)
}

// RegisterObservation releases the current call with an observation. Empty text is stored as
// model.ObservationEmpty.
func (s *Service) RegisterObservation(text string) error {
	obs := strings.TrimSpace(text)
	if obs == "" {
		obs = model.ObservationEmpty
	}

	if err := s.gate.Fire(Outcome{Observation: obs}); err != nil {
		return fmt.Errorf("could not register observation: %w", err)
	}
	return nil
}

// ScheduleCallback validates the request and releases the current call with a callback.
// Invalid requests are rejected and the call keeps waiting.
func (s *Service) ScheduleCallback(req model.ScheduleRequest) (model.Schedule, error) {
	if !s.gate.Pending() {
		return model.Schedule{}, ErrNoPendingCall
	}

	sch, err := model.NewCallbackSchedule(req, s.now())
	if err != nil {
		return model.Schedule{}, err
	}

	if err := s.gate.Fire(Outcome{Schedule: &sch}); err != nil {
		return model.Schedule{}, fmt.Errorf("could not schedule callback: %w", err)
	}
	return sch, nil
}

// Snapshot returns the current state.
func (s *Service) Snapshot() Snapshot {
	pending := s.queue.len()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.phase
	if s.cancel != nil && s.paused {
		state = StatePaused
	}

	return Snapshot{
		RunID:           s.runID,
		State:           state,
		Status:          s.status,
		Code:            s.current.Code,
		Phone:           s.current.Phone,
		AwaitingOutcome: s.awaiting,
		Processed:       s.processed,
		Total:           s.processed + s.remaining + pending,
		PendingPriority: pending,
		Fatal:           s.fatal,
	}
}

func (s *Service) publish() { s.observer(s.Snapshot()) }

func (s *Service) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.publish()
}

func (s *Service) setPhase(phase State) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
	s.publish()
}

// waitResume blocks while the run is paused.
func (s *Service) waitResume(ctx context.Context) error {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return nil
	}
	resume := s.resume
	s.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
