// Package pipeline ties a domain's collector to the compensation API: rows
// go in through Add or an import, Submit sends them and writes the results
// back, and the status area says what happened.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/collector"
	"compensa/internal/logging"
	"compensa/internal/render"
)

var ErrSubmitInFlight = errors.New("submission already in flight")

type Submitter interface {
	SubmitBatch(ctx context.Context, domain internal.Domain, items []internal.LineItem) (internal.BatchResult, error)
}

// Store persists a panel's rows and its submission history. A nil Store
// keeps everything in memory.
type Store interface {
	SaveItems(domain internal.Domain, items []internal.LineItem) error
	LoadItems(domain internal.Domain) ([]internal.LineItem, error)
	InsertRun(run internal.RunRecord) error
}

// OptionSource supplies the municipality names offered for a domain.
type OptionSource interface {
	Municipalities(ctx context.Context, domain internal.Domain, force bool) ([]string, error)
}

// Outcome is the typed result of one submission. Rendering it is left to
// the caller; the panel's status area already holds the standard text.
type Outcome struct {
	Domain    internal.Domain
	TraceID   string
	Batch     internal.BatchResult
	Err       error
	Applied   int
	Unmatched int
	// StoreErr reports a failure to persist rows or the run record after
	// the submission itself finished.
	StoreErr error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Panel struct {
	domain internal.Domain
	items  *collector.Collector
	client Submitter
	store  Store
	log    *zap.Logger

	statusMu sync.Mutex
	status   render.StatusArea

	inFlight atomic.Bool
	newTrace func() string
}

func NewPanel(domain internal.Domain, client Submitter, store Store, logger *zap.Logger) *Panel {
	return &Panel{
		domain:   domain,
		items:    collector.New(domain),
		client:   client,
		store:    store,
		log:      logging.OrNop(logger).With(zap.String("domain", string(domain))),
		newTrace: uuid.NewString,
	}
}

func (p *Panel) Collector() *collector.Collector {
	return p.items
}

func (p *Panel) Status() render.StatusArea {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.status
}

func (p *Panel) Rows() []collector.Row {
	return p.items.Rows()
}

// Load restores the rows saved for this domain.
func (p *Panel) Load() error {
	if p.store == nil {
		return nil
	}
	items, err := p.store.LoadItems(p.domain)
	if err != nil {
		return err
	}
	p.items.Restore(items)
	return nil
}

func (p *Panel) Save() error {
	if p.store == nil {
		return nil
	}
	return p.store.SaveItems(p.domain, p.items.Items())
}

// LoadOptions installs the municipality list. On failure the error line
// gets the load message and free-text names stay accepted.
func (p *Panel) LoadOptions(ctx context.Context, src OptionSource, force bool) error {
	names, err := src.Municipalities(ctx, p.domain, force)
	if err != nil {
		p.log.Warn("municipality list unavailable", zap.Error(err))
		p.updateStatus(func(s *render.StatusArea) { s.SetError(render.MunicipalityLoadError(p.domain)) })
		return err
	}
	p.items.SetOptions(names)
	return nil
}

// Add clears the error line and appends a validated row. A rejected row
// leaves its message on the error line.
func (p *Panel) Add(raw collector.RawFields) (internal.LineItem, error) {
	p.updateStatus(func(s *render.StatusArea) { s.SetError("") })

	item, err := p.items.Add(raw)
	if err != nil {
		p.updateStatus(func(s *render.StatusArea) { s.SetError(err.Error()) })
		return internal.LineItem{}, err
	}
	return item, nil
}

// Remove deletes the row currently at pos (0-based).
func (p *Panel) Remove(pos int) bool {
	return p.items.RemoveAt(pos)
}

// Submit sends the current rows and writes result i onto the row that held
// position i when the request was made. Rows removed in the meantime are
// skipped, extra results are ignored and rows without a result keep their
// previous values. Only one submission runs at a time.
func (p *Panel) Submit(ctx context.Context) Outcome {
	if !p.inFlight.CompareAndSwap(false, true) {
		return Outcome{Domain: p.domain, Err: ErrSubmitInFlight}
	}
	defer p.inFlight.Store(false)

	out := Outcome{Domain: p.domain, TraceID: p.newTrace()}
	log := p.log.With(zap.String("trace_id", out.TraceID))
	timings := map[string]float64{}
	start := time.Now()

	p.updateStatus(func(s *render.StatusArea) { s.Clear() })
	snapshot := p.items.Items()

	apiStart := time.Now()
	batch, err := p.client.SubmitBatch(ctx, p.domain, snapshot)
	timings["apiMs"] = float64(time.Since(apiStart).Milliseconds())

	if err != nil {
		out.Err = err
		msg := render.SubmitError(p.domain, err)
		p.updateStatus(func(s *render.StatusArea) { s.SetError(msg) })
		if !errors.Is(err, api.ErrEmptyBatch) {
			log.Warn("submission failed", zap.Int("items", len(snapshot)), zap.Error(err))
		}
		timings["totalMs"] = float64(time.Since(start).Milliseconds())
		out.StoreErr = p.record(out, len(snapshot), failedStatus(err), msg, timings)
		return out
	}

	out.Batch = batch
	for i, res := range batch.Results {
		if i >= len(snapshot) {
			break
		}
		if p.items.SetResult(snapshot[i].ID, internal.ComputedResult{Unit: res.Unit, Total: res.Total}) {
			out.Applied++
		}
	}
	out.Unmatched = len(batch.Unmatched)

	p.updateStatus(func(s *render.StatusArea) {
		s.Total = render.TotalLine(p.domain, batch.Total)
		if out.Unmatched > 0 {
			s.AppendError(render.UnmatchedWarning(p.domain))
		}
	})

	status := internal.RunOK
	if out.Unmatched > 0 {
		status = internal.RunPartial
	}
	timings["totalMs"] = float64(time.Since(start).Milliseconds())
	log.Info("submission applied",
		zap.Int("items", len(snapshot)),
		zap.Int("applied", out.Applied),
		zap.Int("unmatched", out.Unmatched),
		zap.Float64("total", batch.Total))

	out.StoreErr = errors.Join(
		p.Save(),
		p.record(out, len(snapshot), status, p.Status().Total, timings),
	)
	return out
}

func (p *Panel) record(out Outcome, count int, status internal.RunStatus, msg string, timings map[string]float64) error {
	if p.store == nil {
		return nil
	}
	run := internal.RunRecord{
		TraceID:   out.TraceID,
		Domain:    p.domain,
		ItemCount: count,
		Applied:   out.Applied,
		Unmatched: out.Unmatched,
		Status:    status,
		Message:   msg,
		Timings:   timings,
	}
	if out.Err == nil {
		total := out.Batch.Total
		run.Total = &total
	}
	if err := p.store.InsertRun(run); err != nil {
		p.log.Error("run not recorded", zap.String("trace_id", out.TraceID), zap.Error(err))
		return err
	}
	return nil
}

func (p *Panel) updateStatus(fn func(*render.StatusArea)) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	fn(&p.status)
}

func failedStatus(err error) internal.RunStatus {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, api.ErrEmptyBatch):
		return internal.RunEmpty
	case errors.As(err, &httpErr):
		return internal.RunRejected
	default:
		return internal.RunFailed
	}
}
