package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/lifecycle"
	"github.com/leetrental/fleetboard/internal/pkg/metrics"
	"github.com/leetrental/fleetboard/internal/recordkeeper"
	"github.com/leetrental/fleetboard/pkg/log"
)

// TransitionEvent describes an applied transition for interested listeners
// (other open boards, mostly).
type TransitionEvent struct {
	VehicleID string                  `json:"vehicleId"`
	From      lifecycle.VehicleState  `json:"from"`
	To        lifecycle.VehicleState  `json:"to"`
	Action    string                  `json:"action"`
	Documents []model.CreatedDocument `json:"documents,omitempty"`
}

// Notifier publishes applied transitions. Implementations must not block the
// session for long; delivery is best effort.
type Notifier interface {
	TransitionApplied(ctx context.Context, ev TransitionEvent)
}

// Session owns the snapshot cache of one board view and enforces the
// consistency discipline around transition attempts: one exclusive window
// per vehicle, stale-until-refreshed after transport failures, and forced
// re-fetches so the board never shows a state the record keeper disagrees
// with.
type Session struct {
	rk       recordkeeper.Client
	exec     *Executor
	notifier Notifier
	log      log.Logger

	mu        sync.Mutex
	snapshots map[string]*model.VehicleSnapshot
	machines  map[string]*SessionMachine
	windows   map[string]*window

	sf singleflight.Group
}

// window is one begun attempt: the target bound at resolve time and whether
// the submission is already on the wire. The inflight marker is what makes
// the Pending phase exclusive across the network call.
type window struct {
	to       lifecycle.VehicleState
	inflight bool
}

// NewSession creates a session over the given record keeper. notifier may be
// nil.
func NewSession(rk recordkeeper.Client, notifier Notifier, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Session{
		rk:        rk,
		exec:      NewExecutor(rk, logger),
		notifier:  notifier,
		log:       logger.WithName("session"),
		snapshots: map[string]*model.VehicleSnapshot{},
		machines:  map[string]*SessionMachine{},
		windows:   map[string]*window{},
	}
}

// Load performs the initial bulk fetch. The session is unusable before a
// successful Load.
func (s *Session) Load(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Column is one board column: a catalog state and the vehicles in it.
type Column struct {
	State    lifecycle.VehicleState  `json:"state"`
	Vehicles []model.VehicleSnapshot `json:"vehicles"`
}

// Board returns the snapshots grouped by catalog state in display order.
func (s *Session) Board() []Column {
	s.mu.Lock()
	defer s.mu.Unlock()

	byState := map[lifecycle.VehicleState][]model.VehicleSnapshot{}
	for _, snap := range s.snapshots {
		byState[snap.State] = append(byState[snap.State], snap.Clone())
	}

	columns := make([]Column, 0, len(lifecycle.States()))
	for _, state := range lifecycle.States() {
		vehicles := byState[state]
		sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].LicensePlate < vehicles[j].LicensePlate })
		columns = append(columns, Column{State: state, Vehicles: vehicles})
	}
	return columns
}

// Snapshot returns a copy of one vehicle's cached view.
func (s *Session) Snapshot(vehicleID string) (model.VehicleSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[vehicleID]
	if !ok {
		return model.VehicleSnapshot{}, false
	}
	return snap.Clone(), true
}

// Phase reports the consistency phase of one vehicle (clean/pending/stale).
func (s *Session) Phase(vehicleID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[vehicleID]
	if !ok {
		return "", false
	}
	return m.Current(), true
}

// BeginTransition resolves the field requirements for an intent and opens
// the vehicle's exclusive window. The returned list is what the data-entry
// dialog presents; it is empty for transitions needing no extra data, in
// which case the caller completes immediately.
//
// The window is NOT opened when resolution fails: an illegal pair is refused
// before any side effect.
func (s *Session) BeginTransition(ctx context.Context, intent model.Intent) ([]lifecycle.FieldRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, machine, err := s.lookup(intent.VehicleID)
	if err != nil {
		return nil, err
	}

	switch machine.Current() {
	case PhasePending:
		return nil, fmt.Errorf("vehicle %s: %w", intent.VehicleID, ErrAlreadyPending)
	case PhaseStale:
		return nil, fmt.Errorf("vehicle %s: %w", intent.VehicleID, ErrStale)
	}

	if intent.From != snap.State {
		return nil, fmt.Errorf("vehicle %s is %s, not %s: %w", intent.VehicleID, snap.State, intent.From, ErrOutdatedIntent)
	}

	reqs, err := lifecycle.Resolve(snap.State, intent.To)
	if err != nil {
		return nil, err
	}

	if err := machine.Event(ctx, EventSubmit); err != nil {
		return nil, err
	}
	s.windows[intent.VehicleID] = &window{to: intent.To}
	return reqs, nil
}

// CompleteTransition submits a begun attempt with the collected payload. The
// target must be the one bound at BeginTransition; while the submission is
// on the wire any further Complete fails fast with ErrAlreadyPending, so one
// begun window produces at most one record keeper call.
//
// A ValidationError leaves the window open so the operator can be
// re-prompted; no network call was made. Otherwise the outcome decides the
// vehicle's phase: success/rejected close the window, a transport failure
// marks the snapshot stale until a refresh succeeds.
func (s *Session) CompleteTransition(ctx context.Context, vehicleID string, to lifecycle.VehicleState, payload lifecycle.Payload) (model.TransitionOutcome, error) {
	s.mu.Lock()
	snap, machine, err := s.lookup(vehicleID)
	if err != nil {
		s.mu.Unlock()
		return model.TransitionOutcome{}, err
	}
	win := s.windows[vehicleID]
	if machine.Current() != PhasePending || win == nil {
		s.mu.Unlock()
		return model.TransitionOutcome{}, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotPending)
	}
	if win.inflight {
		s.mu.Unlock()
		return model.TransitionOutcome{}, fmt.Errorf("vehicle %s: %w", vehicleID, ErrAlreadyPending)
	}
	if to != win.to {
		s.mu.Unlock()
		return model.TransitionOutcome{}, fmt.Errorf("vehicle %s window was opened for %s, not %s: %w", vehicleID, win.to, to, ErrOutdatedIntent)
	}
	win.inflight = true
	from := snap.State
	working := snap.Clone()
	s.mu.Unlock()

	// The attempt runs against a working copy so concurrent board reads see
	// either the old snapshot or the merged result, nothing in between.
	outcome, err := s.exec.Execute(ctx, &working, to, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	win.inflight = false

	if err != nil {
		// Local refusal (validation or an illegal pair): nothing was sent,
		// the dialog stays open, the snapshot is untouched.
		return model.TransitionOutcome{}, err
	}

	delete(s.windows, vehicleID)
	switch outcome.Result {
	case model.ResultSuccess:
		*snap = working
		_ = machine.Event(ctx, EventSucceed)
	case model.ResultRejected:
		_ = machine.Event(ctx, EventReject)
	case model.ResultFailed:
		_ = machine.Event(ctx, EventFail)
	}

	if outcome.Result == model.ResultSuccess && s.notifier != nil {
		s.notifier.TransitionApplied(ctx, TransitionEvent{
			VehicleID: vehicleID,
			From:      from,
			To:        outcome.AppliedState,
			Action:    lifecycle.ActionName(from, outcome.AppliedState),
			Documents: outcome.CreatedDocuments,
		})
	}

	return outcome, nil
}

// Cancel closes a vehicle's window after the operator abandoned the
// data-entry dialog. The snapshot is never mutated by a cancelled attempt;
// a forced re-fetch still runs so the board re-syncs with the record keeper
// before further attempts.
func (s *Session) Cancel(ctx context.Context, vehicleID string) error {
	s.mu.Lock()
	_, machine, err := s.lookup(vehicleID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if machine.Current() != PhasePending {
		s.mu.Unlock()
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotPending)
	}
	if win := s.windows[vehicleID]; win != nil && win.inflight {
		// The submission is on the wire; only its outcome may settle the
		// window.
		s.mu.Unlock()
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrAlreadyPending)
	}
	delete(s.windows, vehicleID)
	_ = machine.Event(ctx, EventCancel)
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		// The snapshot was never touched, so the board is still coherent;
		// the refresh is re-run on the next stale or explicit reload.
		s.log.Warn("post-cancel refresh failed", "vehicle", vehicleID, "error", err.Error())
	}
	return nil
}

// Refresh re-fetches authoritative state for the whole board and resolves
// every stale vehicle. Concurrent callers share one fetch; the read is
// idempotent so it retries with backoff, unlike transition attempts.
func (s *Session) Refresh(ctx context.Context) error {
	_, err, _ := s.sf.Do("refresh", func() (any, error) {
		records, err := s.listWithRetry(ctx)
		if err != nil {
			metrics.RefreshesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		s.merge(ctx, records)
		metrics.RefreshesTotal.WithLabelValues("ok").Inc()
		return nil, nil
	})
	return err
}

func (s *Session) listWithRetry(ctx context.Context) ([]recordkeeper.VehicleRecord, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	var records []recordkeeper.VehicleRecord
	operation := func() error {
		var err error
		records, err = s.rk.ListVehicles(ctx)
		return err
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Session) merge(ctx context.Context, records []recordkeeper.VehicleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	seen := map[string]bool{}

	for _, rec := range records {
		state := lifecycle.VehicleState(rec.State)
		if !lifecycle.IsKnown(state) {
			s.log.Warn("record keeper returned a state outside the catalog", "vehicle", rec.ID, "state", rec.State)
			continue
		}
		seen[rec.ID] = true

		machine, ok := s.machines[rec.ID]
		if !ok {
			machine = NewSessionMachine()
			s.machines[rec.ID] = machine
			s.snapshots[rec.ID] = &model.VehicleSnapshot{ID: rec.ID}
		}

		// A vehicle mid-attempt keeps its exclusive window; its snapshot is
		// settled by the outcome, not by this read.
		if machine.Current() == PhasePending {
			continue
		}

		snap := s.snapshots[rec.ID]
		snap.State = state
		snap.LicensePlate = rec.LicensePlate
		snap.Model = rec.Model
		snap.ModelYear = rec.ModelYear
		snap.ChassisNumber = rec.ChassisNumber
		snap.Color = rec.Color
		snap.Odometer = rec.Odometer
		snap.Driver = rec.Driver
		snap.Location = rec.Location
		snap.CurrentAgreementRef = rec.Agreement
		snap.FetchedAt = now

		if machine.Current() == PhaseStale {
			_ = machine.Event(ctx, EventRefresh)
		}
	}

	for id, machine := range s.machines {
		if !seen[id] && machine.Current() != PhasePending {
			if machine.Current() == PhaseStale {
				metrics.StaleSnapshots.Dec()
			}
			delete(s.machines, id)
			delete(s.snapshots, id)
			delete(s.windows, id)
		}
	}
}

// lookup must be called with the session lock held.
func (s *Session) lookup(vehicleID string) (*model.VehicleSnapshot, *SessionMachine, error) {
	snap, ok := s.snapshots[vehicleID]
	if !ok {
		return nil, nil, fmt.Errorf("vehicle %s: %w", vehicleID, ErrVehicleUnknown)
	}
	return snap, s.machines[vehicleID], nil
}
