package service

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/leetrental/fleetboard/internal/pkg/metrics"
	fsmutil "github.com/leetrental/fleetboard/internal/pkg/util/fsm"
)

const (
	// EventSubmit (Clean) opens the exclusive window for one vehicle: the
	// operator is collecting payload or the attempt is in flight.
	EventSubmit = "event_submit"
	// EventSucceed closes the window after an applied transition.
	EventSucceed = "event_succeed"
	// EventReject closes the window after a definitive business refusal.
	EventReject = "event_reject"
	// EventCancel closes the window when the operator abandons the dialog.
	EventCancel = "event_cancel"
	// EventFail marks the snapshot untrusted after a transport failure.
	EventFail = "event_fail"
	// EventRefresh returns a stale vehicle to Clean after a successful
	// re-fetch of authoritative state.
	EventRefresh = "event_refresh"
)

const (
	PhaseClean   = "clean"
	PhasePending = "pending"
	PhaseStale   = "stale"
)

// SessionMachine tracks the consistency phase of one vehicle within a board
// session. No transition may be attempted while its vehicle is Pending or
// Stale.
type SessionMachine struct {
	*fsm.FSM
}

func NewSessionMachine() *SessionMachine {
	m := &SessionMachine{}

	events := fsm.Events{
		{Name: EventSubmit, Src: []string{PhaseClean}, Dst: PhasePending},
		{Name: EventSucceed, Src: []string{PhasePending}, Dst: PhaseClean},
		{Name: EventReject, Src: []string{PhasePending}, Dst: PhaseClean},
		{Name: EventCancel, Src: []string{PhasePending}, Dst: PhaseClean},
		{Name: EventFail, Src: []string{PhasePending}, Dst: PhaseStale},
		{Name: EventRefresh, Src: []string{PhaseStale}, Dst: PhaseClean},
	}

	callbacks := fsm.Callbacks{
		"enter_" + PhaseStale: fsmutil.WrapEvent(m.ActionEnterStale),
		"leave_" + PhaseStale: fsmutil.WrapEvent(m.ActionLeaveStale),
	}

	m.FSM = fsm.NewFSM(PhaseClean, events, callbacks)
	return m
}

// ActionEnterStale is a side-effect callback keeping the stale gauge honest.
func (m *SessionMachine) ActionEnterStale(ctx context.Context, e *fsm.Event) error {
	metrics.StaleSnapshots.Inc()
	return nil
}

// ActionLeaveStale is a side-effect callback fired by a successful refresh.
func (m *SessionMachine) ActionLeaveStale(ctx context.Context, e *fsm.Event) error {
	metrics.StaleSnapshots.Dec()
	return nil
}
