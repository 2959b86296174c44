package dial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
)

// run is the state owned by the loop goroutine during a single run.
type run struct {
	svc       *Service
	logger    log.Logger
	contacted map[string]bool
	bulk      []model.Task
	next      int
}

func newRun(s *Service, logger log.Logger) *run {
	return &run{
		svc:       s,
		logger:    logger,
		contacted: map[string]bool{},
	}
}

// load seeds the run from the store. Every failure degrades to an empty source.
func (r *run) load(ctx context.Context) {
	s := r.svc

	s.setStatus("Verificando contatos já realizados...")
	codes, err := s.repo.ListResultCodes(ctx)
	if err != nil {
		r.logger.Warningf("Could not read the results, no code will be skipped: %s", err)
	}
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			r.contacted[c] = true
		}
	}
	s.setStatus(fmt.Sprintf("%d contatos já estão nos resultados.", len(r.contacted)))

	s.setStatus("Lendo a aba de Prioridade...")
	priority, err := s.repo.ListPriorityCodes(ctx)
	if err != nil {
		r.logger.Warningf("Could not read the priority list: %s", err)
	}
	var tasks []model.Task
	for _, c := range priority {
		if c = strings.TrimSpace(c); c != "" {
			tasks = append(tasks, model.Task{Code: c, Origin: model.TaskOriginPriority})
		}
	}
	if len(tasks) > 0 {
		s.queue.push(tasks...)
		s.setStatus(fmt.Sprintf("%d CODs carregados da aba Prioridade.", len(tasks)))
		if err := s.repo.ClearPriority(ctx); err != nil {
			r.logger.Errorf("Could not clear the priority list, codes may be loaded again: %s", err)
		}
	}

	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		r.logger.Errorf("Could not read the contacts, only priority codes will be called: %s", err)
		s.setStatus("Erro ao ler os contatos!")
	}
	r.bulk = contacts

	r.logger.Infof("Run loaded: %d contacted, %d priority, %d contacts", len(r.contacted), len(tasks), len(r.bulk))
}

// loop processes tasks until both sources are exhausted or ctx is cancelled.
func (r *run) loop(ctx context.Context) {
	for {
		if err := r.svc.waitResume(ctx); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		task, ok := r.acquire()
		if !ok {
			return
		}
		r.process(ctx, task)
	}
}

// acquire pops the priority queue first and falls back to the next contact. The queue is
// checked on every call so codes added at runtime are served next.
func (r *run) acquire() (model.Task, bool) {
	t, ok := r.svc.queue.pop()
	if !ok {
		if r.next >= len(r.bulk) {
			return model.Task{}, false
		}
		t = r.bulk[r.next]
		r.next++
	}

	s := r.svc
	s.mu.Lock()
	s.processed++
	s.remaining = len(r.bulk) - r.next
	s.mu.Unlock()

	return t, true
}

func (r *run) process(ctx context.Context, task model.Task) {
	s := r.svc
	code := strings.TrimSpace(task.Code)
	if code == "" {
		return
	}

	if r.contacted[code] {
		s.setStatus(fmt.Sprintf("COD %s já contatado. Pulando.", code))
		r.logger.Debugf("Code %s already contacted, skipping", code)
		r.sleep(ctx, s.pacing.Skip)
		return
	}

	phone := strings.TrimSpace(task.Phone)
	if phone == "" {
		var ok bool
		phone, ok = r.resolvePhone(ctx, code)
		if !ok {
			return
		}
	}

	s.mu.Lock()
	s.current = model.Task{Code: code, Phone: phone, Origin: task.Origin}
	s.mu.Unlock()
	defer r.releaseCurrent()

	if phone == "" {
		s.setStatus(fmt.Sprintf("Nenhum telefone para %s. Pulando.", code))
		r.sleep(ctx, s.pacing.NotFound)
		return
	}

	r.call(ctx, code, phone)
}

// resolvePhone searches the code on the CRM. It returns false when the task ended with a
// recorded outcome.
func (r *run) resolvePhone(ctx context.Context, code string) (string, bool) {
	s := r.svc

	clean := model.CleanCode(code)
	if !model.IsSearchableCode(clean) {
		r.record(ctx, code, "", model.ObservationInvalidCode)
		s.setStatus(fmt.Sprintf("COD %s inválido. Pulando.", code))
		return "", false
	}

	s.setStatus(fmt.Sprintf("Buscando COD: %s", clean))
	lookup, err := s.session.FindContact(ctx, clean)
	if err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		r.logger.Warningf("Could not search code %s: %s", clean, err)
		lookup = model.ContactLookup{}
	}

	if lookup.FoundCode != "" && model.CleanCode(lookup.FoundCode) != clean {
		obs := model.ObservationDivergence(clean, lookup.FoundCode)
		r.record(ctx, code, "", obs)
		s.setStatus(obs + ". Pulando.")
		r.sleep(ctx, s.pacing.NotFound)
		return "", false
	}

	if lookup.Phone == "" {
		r.record(ctx, code, "", model.ObservationPhoneNotFound)
		s.setStatus(fmt.Sprintf("Telefone não encontrado para %s. Pulando.", code))
		r.sleep(ctx, s.pacing.NotFound)
		return "", false
	}

	s.setStatus(fmt.Sprintf("Telefone encontrado: %s", lookup.Phone))
	if err := s.repo.UpdateContactPhone(ctx, code, lookup.Phone); err != nil {
		r.logger.Errorf("Could not update phone of %s: %s", code, err)
		s.setStatus("Erro ao salvar na planilha!")
	}

	return lookup.Phone, true
}

// call dials and blocks until the operator gives the outcome or the run is stopped.
func (r *run) call(ctx context.Context, code, phone string) {
	s := r.svc

	s.setStatus(fmt.Sprintf("Discando para %s...", phone))
	ok, err := s.session.Dial(ctx, phone)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Errorf("Could not dial %s: %s", phone, err)
	}
	if !ok {
		r.record(ctx, code, phone, model.ObservationDialError)
		s.setStatus("Erro ao discar. Próximo em 5s.")
		r.sleep(ctx, s.pacing.DialError)
		return
	}

	wait := s.gate.Arm()
	s.mu.Lock()
	s.awaiting = true
	s.status = "Em chamada... Aguardando sua ação."
	s.mu.Unlock()
	s.publish()

	outcome, err := s.gate.Wait(ctx, wait)

	s.mu.Lock()
	s.awaiting = false
	s.mu.Unlock()

	if err != nil {
		r.logger.Warningf("Run stopped during the call to %s, no outcome recorded", code)
		s.publish()
		return
	}

	// The operator already decided, the outcome is stored even if the run stops meanwhile.
	ctx = context.WithoutCancel(ctx)
	if sch := outcome.Schedule; sch != nil {
		cb := model.CallbackRecord{Code: code, Phone: phone, Time: sch.Time, Date: sch.Date, Status: model.CallbackStatusWaiting}
		if err := s.repo.AppendCallback(ctx, cb); err != nil {
			r.logger.Errorf("Could not store callback of %s: %s", code, err)
			s.setStatus("Erro ao salvar na planilha!")
		}
		r.record(ctx, code, phone, model.ObservationCallbackScheduled(sch.Date, sch.Time))
		s.setStatus(fmt.Sprintf("Retorno agendado para %s às %s.", sch.Date, sch.Time))
		return
	}

	r.record(ctx, code, phone, outcome.Observation)
	s.setStatus(fmt.Sprintf("Observação registrada para %s.", code))
}

// record appends the result and marks the code contacted. The code stays contacted for the
// rest of the run even when the write failed.
func (r *run) record(ctx context.Context, code, phone, observation string) {
	s := r.svc
	r.contacted[code] = true

	rec := model.NewResultRecord(code, phone, observation, s.now())
	if err := s.repo.AppendResult(ctx, rec); err != nil {
		r.logger.Errorf("Could not store result of %s (%q), it will not be retried on this run: %s", code, observation, err)
		s.setStatus("Erro ao salvar na planilha!")
		return
	}
	r.logger.Infof("Result stored for %s: %s", code, observation)
}

// releaseCurrent clears the finished task so snapshots never show a code that is no longer
// being called.
func (r *run) releaseCurrent() {
	s := r.svc
	s.mu.Lock()
	s.current = model.Task{}
	s.mu.Unlock()
	s.publish()
}

func (r *run) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
