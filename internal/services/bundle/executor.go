package bundle

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/lumenfi/swap-engine/internal/domain"
)

var (
	ErrBundleBusy     = errors.New("a bundle run is already in flight")
	ErrBundleEmpty    = errors.New("bundle has no items")
	ErrNothingToRetry = errors.New("bundle has no failed items")
)

// ItemResult is the terminal outcome of a successfully executed item.
type ItemResult struct {
	Signature solana.Signature
	FeeUnits  uint64
}

// Runner executes a single bundle item end to end: build, sign, send and
// confirm one swap. The executor marks the item building before calling
// Run; implementations report the later stages through advance.
type Runner interface {
	Run(ctx context.Context, item domain.BundleItem, advance func(domain.ItemStatus)) (ItemResult, error)
}

type eventKind int

const (
	evStart eventKind = iota
	evItemStart
	evItemAdvance
	evItemConfirmed
	evItemFailed
	evCancel
	evRetry
	evRunDone
)

type event struct {
	kind   eventKind
	index  int
	status domain.ItemStatus
	result ItemResult
	err    error

	// evItemStart asks whether the item may begin; cancellation is
	// decided here so it lands deterministically between items.
	proceed chan bool

	// evRunDone closes this to release waiters.
	done chan struct{}
}

// Executor drives N independent swaps strictly one at a time. All state
// transitions flow through a single event queue, so snapshots are always
// internally consistent and cancellation takes effect exactly on an item
// boundary.
type Executor struct {
	runner Runner

	mu        sync.Mutex
	items     []domain.BundleItem
	phase     domain.BundlePhase
	current   int
	totalFee  uint64
	cancelled bool
	running   bool
	runDone   chan struct{}

	events chan event
	closed chan struct{}
}

func NewExecutor(runner Runner) *Executor {
	e := &Executor{
		runner: runner,
		phase:  domain.PhaseIdle,
		events: make(chan event, 64),
		closed: make(chan struct{}),
	}
	go e.dispatch()
	return e
}

// Close stops the event loop. Callers must not close with a run in
// flight; Wait first.
func (e *Executor) Close() {
	close(e.closed)
}

// Begin starts executing the given items in order. Any previous bundle
// state is discarded.
func (e *Executor) Begin(ctx context.Context, items []domain.BundleItem) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrBundleBusy
	}
	if len(items) == 0 {
		e.mu.Unlock()
		return ErrBundleEmpty
	}

	e.items = make([]domain.BundleItem, len(items))
	copy(e.items, items)
	for i := range e.items {
		e.items[i].Status = domain.ItemPending
		e.items[i].ErrorMsg = ""
		e.items[i].FeeUnits = 0
		e.items[i].Signature = solana.Signature{}
	}
	e.current = 0
	e.totalFee = 0
	e.cancelled = false
	e.running = true
	e.runDone = make(chan struct{})
	done := e.runDone
	e.mu.Unlock()

	indices := make([]int, len(items))
	for i := range indices {
		indices[i] = i
	}

	e.post(event{kind: evStart})
	go e.run(ctx, indices, done)
	return nil
}

// RetryFailed re-runs only the items currently failed, in their original
// order. Confirmed items are never re-attempted.
func (e *Executor) RetryFailed(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrBundleBusy
	}
	var indices []int
	for i := range e.items {
		if e.items[i].Status == domain.ItemFailed {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		e.mu.Unlock()
		return ErrNothingToRetry
	}
	e.running = true
	e.runDone = make(chan struct{})
	done := e.runDone
	e.mu.Unlock()

	e.post(event{kind: evRetry})
	go e.run(ctx, indices, done)
	return nil
}

// Cancel prevents the next not-yet-started item from beginning. The item
// currently in flight is allowed to finish; remaining items stay pending
// and the phase stays executing until Reset.
func (e *Executor) Cancel() {
	e.post(event{kind: evCancel})
}

// Reset returns the executor to idle, discarding all bundle state.
func (e *Executor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrBundleBusy
	}
	e.items = nil
	e.phase = domain.PhaseIdle
	e.current = 0
	e.totalFee = 0
	e.cancelled = false
	return nil
}

// Wait blocks until the current run stops, either because every item was
// attempted or because a cancellation took effect.
func (e *Executor) Wait() {
	e.mu.Lock()
	done := e.runDone
	e.mu.Unlock()
	if done == nil {
		return
	}
	<-done
}

// Snapshot returns a consistent copy of the bundle state.
func (e *Executor) Snapshot() domain.BundleSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]domain.BundleItem, len(e.items))
	copy(items, e.items)
	return domain.BundleSnapshot{
		Phase:         e.phase,
		Items:         items,
		CurrentIndex:  e.current,
		TotalFeeUnits: e.totalFee,
		Cancelled:     e.cancelled,
	}
}

func (e *Executor) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.closed:
	}
}

func (e *Executor) dispatch() {
	for {
		select {
		case ev := <-e.events:
			e.apply(ev)
		case <-e.closed:
			return
		}
	}
}

func (e *Executor) apply(ev event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.kind {
	case evStart, evRetry:
		e.phase = domain.PhaseExecuting
		e.cancelled = false

	case evItemStart:
		if e.cancelled {
			ev.proceed <- false
			return
		}
		e.current = ev.index
		e.items[ev.index].Status = domain.ItemBuilding
		e.items[ev.index].ErrorMsg = ""
		ev.proceed <- true

	case evItemAdvance:
		e.items[ev.index].Status = ev.status

	case evItemConfirmed:
		it := &e.items[ev.index]
		it.Status = domain.ItemConfirmed
		it.Signature = ev.result.Signature
		it.FeeUnits = ev.result.FeeUnits
		e.totalFee += ev.result.FeeUnits

	case evItemFailed:
		it := &e.items[ev.index]
		it.Status = domain.ItemFailed
		it.ErrorMsg = ev.err.Error()
		log.Warn().
			Int("item", ev.index).
			Str("asset", it.TargetAsset.String()).
			Err(ev.err).
			Msg("bundle item failed")

	case evCancel:
		if e.phase == domain.PhaseExecuting {
			e.cancelled = true
		}

	case evRunDone:
		e.running = false
		if e.allTerminalLocked() {
			e.phase = domain.PhaseComplete
		}
		close(ev.done)
	}
}

func (e *Executor) allTerminalLocked() bool {
	for i := range e.items {
		if !e.items[i].Status.Terminal() {
			return false
		}
	}
	return len(e.items) > 0
}

// run executes the given item indices sequentially, posting every state
// change through the event queue. A failed item never halts the run.
func (e *Executor) run(ctx context.Context, indices []int, done chan struct{}) {
	defer e.post(event{kind: evRunDone, done: done})

	for _, idx := range indices {
		proceed := make(chan bool, 1)
		e.post(event{kind: evItemStart, index: idx, proceed: proceed})
		select {
		case ok := <-proceed:
			if !ok {
				return
			}
		case <-e.closed:
			return
		}

		e.mu.Lock()
		item := e.items[idx]
		e.mu.Unlock()

		advance := func(st domain.ItemStatus) {
			e.post(event{kind: evItemAdvance, index: idx, status: st})
		}

		result, err := e.runner.Run(ctx, item, advance)
		if err != nil {
			e.post(event{kind: evItemFailed, index: idx, err: err})
			continue
		}
		e.post(event{kind: evItemConfirmed, index: idx, result: result})
	}
}
