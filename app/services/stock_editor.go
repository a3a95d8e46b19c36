package services

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

type EditorState int

const (
	Idle EditorState = iota
	Editing
	Submitting
)

func (s EditorState) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "idle"
}

// StockEditor is the inline stock form of one variant:
//
//	Idle ──Open──▶ Editing ──Submit──▶ Submitting ──ok──▶ Idle
//	                  ▲                    │
//	                  └──────failure───────┘  (draft kept)
//
// The stock it shows after a successful submit is a display hint. Refresh
// replaces it with the next authoritative fetch.
type StockEditor struct {
	flow *StockFlow

	mu      sync.Mutex
	state   EditorState
	variant models.Variant
	draft   models.StockMutation
	errs    validate.Errors
}

// Editor opens an editor over a copy of v.
func (f *StockFlow) Editor(v models.Variant) *StockEditor {
	return &StockEditor{flow: f, variant: v, errs: validate.Errors{}}
}

func (e *StockEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Variant returns the locally held variant, stock hint included.
func (e *StockEditor) Variant() models.Variant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.variant
}

func (e *StockEditor) Draft() models.StockMutation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *StockEditor) Errors() validate.Errors {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := validate.Errors{}
	out.Merge(e.errs)
	return out
}

// Open enters Editing. Opening an editor that is already editing is a no-op.
func (e *StockEditor) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case Submitting:
		return ErrMutationInFlight
	case Idle:
		e.state = Editing
		e.draft = models.StockMutation{VariantID: e.variant.ID, ChangeType: models.Purchase}
		e.errs = validate.Errors{}
	}
	return nil
}

// Set changes the draft. It is only allowed while editing.
func (e *StockEditor) Set(t models.ChangeType, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing {
		return apperr.ConflictErr("the stock form is not open")
	}
	e.draft.ChangeType, e.draft.ChangeAmount = t, amount
	return nil
}

// Cancel drops the draft and returns to Idle.
func (e *StockEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Editing {
		e.state = Idle
		e.draft = models.StockMutation{}
		e.errs = validate.Errors{}
	}
}

// Submit sends the draft. On success the local stock takes the new value and
// the editor goes Idle. On failure it returns to Editing with the draft and
// the field errors kept. A stale result is dropped and the editor closed.
func (e *StockEditor) Submit(ctx context.Context) (models.StockUpdate, error) {
	e.mu.Lock()
	switch e.state {
	case Submitting:
		e.mu.Unlock()
		return models.StockUpdate{}, ErrMutationInFlight
	case Idle:
		e.mu.Unlock()
		return models.StockUpdate{}, apperr.ConflictErr("the stock form is not open")
	}
	e.state = Submitting
	m, stock := e.draft, e.variant.Stock
	e.mu.Unlock()

	res, err := e.flow.Apply(ctx, m, stock)

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case err == nil:
		e.variant.Stock = res.NewStock
		e.state = Idle
		e.draft = models.StockMutation{}
		e.errs = validate.Errors{}
	case apperr.Is(err, apperr.Stale):
		e.state = Idle
	default:
		e.state = Editing
		e.errs = validate.Errors{}
		e.errs.Merge(apperr.FieldsOf(err))
	}
	return res, err
}

// Refresh replaces the local variant with freshly fetched data, superseding
// any stock hint.
func (e *StockEditor) Refresh(v models.Variant) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variant = v
	if e.state == Editing {
		e.draft.VariantID = v.ID
	}
}
