package service

import (
	"context"
	"time"

	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/lifecycle"
	"github.com/leetrental/fleetboard/internal/pkg/metrics"
	"github.com/leetrental/fleetboard/internal/recordkeeper"
	"github.com/leetrental/fleetboard/pkg/log"
)

// Executor orchestrates one transition attempt: offline validation, a single
// submission to the record keeper, interpretation of the outcome and
// application of side effects to the in-memory snapshot. It never retries:
// transitions may create dependent business documents, so a blind retry
// risks duplicates.
type Executor struct {
	rk  recordkeeper.Client
	log log.Logger
}

func NewExecutor(rk recordkeeper.Client, logger log.Logger) *Executor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Executor{rk: rk, log: logger.WithName("executor")}
}

// Execute validates payload against the policy for (snapshot.State, to) and
// submits the transition.
//
// Local failures (ErrInvalidState, ErrNotAllowed, ValidationError) return a
// non-nil error before any network call; the snapshot is untouched and no
// outcome is produced. Otherwise exactly one attempt is issued and the
// returned outcome classifies it:
//
//   - Success: snapshot state and document refs updated.
//   - Rejected: snapshot untouched, record keeper message passed through.
//   - Failed: snapshot contents untouched but no longer trustworthy; the
//     caller must mark it stale and force a re-fetch.
func (e *Executor) Execute(ctx context.Context, snap *model.VehicleSnapshot, to lifecycle.VehicleState, payload lifecycle.Payload) (model.TransitionOutcome, error) {
	from := snap.State

	reqs, err := lifecycle.Resolve(from, to)
	if err != nil {
		return model.TransitionOutcome{}, err
	}

	resolved, err := lifecycle.ValidatePayload(reqs, payload)
	if err != nil {
		return model.TransitionOutcome{}, err
	}

	action := lifecycle.ActionName(from, to)

	start := time.Now()
	reply, err := e.rk.AttemptTransition(ctx, snap.ID, string(from), string(to), resolved)
	metrics.TransitionSeconds.WithLabelValues(action).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(model.ResultFailed), action).Inc()
		e.log.Error(err, "transition attempt failed", "vehicle", snap.ID, "from", from, "to", to)
		return model.TransitionOutcome{
			Result:  model.ResultFailed,
			Message: err.Error(),
		}, nil
	}

	if !reply.Success {
		metrics.TransitionsTotal.WithLabelValues(string(model.ResultRejected), action).Inc()
		e.log.Info("transition rejected", "vehicle", snap.ID, "from", from, "to", to, "reason", reply.Message)
		return model.TransitionOutcome{
			Result:  model.ResultRejected,
			Message: reply.Message,
		}, nil
	}

	applied := lifecycle.VehicleState(reply.AppliedState)
	if applied == "" {
		applied = to
	}

	outcome := model.TransitionOutcome{
		Result:       model.ResultSuccess,
		AppliedState: applied,
		Message:      reply.Message,
	}
	for _, d := range reply.CreatedDocuments {
		outcome.CreatedDocuments = append(outcome.CreatedDocuments, model.CreatedDocument{Type: d.Type, ID: d.ID})
	}

	e.apply(snap, applied, resolved, outcome.CreatedDocuments)

	metrics.TransitionsTotal.WithLabelValues(string(model.ResultSuccess), action).Inc()
	e.log.Info("transition applied", "vehicle", snap.ID, "from", from, "to", applied, "action", action, "documents", len(outcome.CreatedDocuments))
	return outcome, nil
}

// apply merges a successful outcome into the snapshot.
func (e *Executor) apply(snap *model.VehicleSnapshot, applied lifecycle.VehicleState, payload lifecycle.Payload, docs []model.CreatedDocument) {
	snap.State = applied

	for _, d := range docs {
		switch d.Type {
		case "Rental Agreement":
			snap.CurrentAgreementRef = d.ID
		case "Reservation":
			snap.OpenReservationRef = d.ID
		case "Service Order":
			snap.OpenServiceRef = d.ID
		case "Vehicle Movement":
			snap.LastMovementRef = d.ID
		}
	}

	if m, ok := payloadNumber(payload, "out_mileage"); ok && m > snap.Odometer {
		snap.Odometer = m
	}
	if m, ok := payloadNumber(payload, "in_mileage"); ok && m > snap.Odometer {
		snap.Odometer = m
	}
	if applied == lifecycle.StateAvailable {
		snap.CurrentAgreementRef = ""
	}
}

func payloadNumber(payload lifecycle.Payload, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
