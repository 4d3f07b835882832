// Package memory is an in-process record keeper implementing the back
// office's own rules: transition legality, overlapping-reservation conflicts,
// dependent document creation and odometer updates. It backs the dev stub
// server and the engine tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/leetrental/fleetboard/internal/lifecycle"
	"github.com/leetrental/fleetboard/internal/recordkeeper"
)

const (
	DocReservation      = "Reservation"
	DocVehicleMovement  = "Vehicle Movement"
	DocRentalAgreement  = "Rental Agreement"
	DocWorkshopTransfer = "Workshop Transfer"
	DocServiceOrder     = "Service Order"
)

var docPrefixes = map[string]string{
	DocReservation:      "RES",
	DocVehicleMovement:  "VM",
	DocRentalAgreement:  "AGR",
	DocWorkshopTransfer: "WT",
	DocServiceOrder:     "SVC",
}

type reservation struct {
	id        string
	vehicleID string
	start     time.Time
	end       time.Time
	active    bool
}

// Store holds the authoritative fleet state in memory.
type Store struct {
	mu           sync.Mutex
	vehicles     map[string]*recordkeeper.VehicleRecord
	order        []string
	reservations []reservation
	seq          map[string]int
}

var _ recordkeeper.Client = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		vehicles: map[string]*recordkeeper.VehicleRecord{},
		seq:      map[string]int{},
	}
}

// AddVehicle registers a vehicle. An empty state defaults to the catalog's
// initial state.
func (s *Store) AddVehicle(rec recordkeeper.VehicleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.State == "" {
		rec.State = string(lifecycle.InitialState())
	}
	if _, exists := s.vehicles[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.vehicles[rec.ID] = &rec
}

func (s *Store) ListVehicles(ctx context.Context) ([]recordkeeper.VehicleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", recordkeeper.ErrUnreachable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]recordkeeper.VehicleRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.vehicles[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LicensePlate < out[j].LicensePlate })
	return out, nil
}

func (s *Store) AttemptTransition(ctx context.Context, vehicleID, from, to string, payload map[string]any) (*recordkeeper.AttemptReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", recordkeeper.ErrUnreachable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[vehicleID]
	if !ok {
		return reject("Vehicle %s not found", vehicleID), nil
	}

	if v.State != from {
		return reject("Vehicle %s is in state %s, not %s; reload the board", vehicleID, v.State, from), nil
	}

	fromState, toState := lifecycle.VehicleState(from), lifecycle.VehicleState(to)
	if !lifecycle.Allowed(fromState, toState) {
		return reject("Transition from %s to %s is not allowed", from, to), nil
	}

	action := lifecycle.ActionName(fromState, toState)
	var docs []recordkeeper.Document

	switch action {
	case "Reserve":
		start, end, perr := period(payload, "start_time", "end_time")
		if perr != nil {
			return reject("%s", perr.Error()), nil
		}
		if conflict := s.findConflict(vehicleID, start, end); conflict != nil {
			return reject("Vehicle %s is already reserved from %s to %s (Reservation: %s)",
				vehicleID, conflict.start.Format(time.RFC3339), conflict.end.Format(time.RFC3339), conflict.id), nil
		}
		res := s.createReservation(vehicleID, start, end)
		docs = append(docs, recordkeeper.Document{Type: DocReservation, ID: res})

	case "Cancel Reservation":
		s.cancelReservations(vehicleID)

	case "Dispatch":
		docs = append(docs, s.createDocument(DocVehicleMovement))

	case "Hand Over":
		docs = append(docs, s.createDocument(DocVehicleMovement))
		if stringValue(payload, "agreement_no") == "" {
			agr := s.createDocument(DocRentalAgreement)
			docs = append(docs, agr)
			v.Agreement = agr.ID
		} else {
			v.Agreement = stringValue(payload, "agreement_no")
		}

	case "Walk-in Handover":
		start, end, perr := period(payload, "start_time", "end_time")
		if perr != nil {
			return reject("%s", perr.Error()), nil
		}
		if conflict := s.findConflict(vehicleID, start, end); conflict != nil {
			return reject("Vehicle %s is already reserved from %s to %s (Reservation: %s)",
				vehicleID, conflict.start.Format(time.RFC3339), conflict.end.Format(time.RFC3339), conflict.id), nil
		}
		docs = append(docs, s.createDocument(DocVehicleMovement))
		if stringValue(payload, "agreement_no") == "" {
			agr := s.createDocument(DocRentalAgreement)
			docs = append(docs, agr)
			v.Agreement = agr.ID
		} else {
			v.Agreement = stringValue(payload, "agreement_no")
		}

	case "Recall", "Check-in":
		docs = append(docs, s.createDocument(DocVehicleMovement))

	case "Ready":
		v.Agreement = ""
		s.cancelReservations(vehicleID)

	case "Send to Workshop", "Tow to Workshop":
		docs = append(docs, s.createDocument(DocWorkshopTransfer))

	case "Start Maintenance", "Incident":
		docs = append(docs, s.createDocument(DocServiceOrder))
	}

	if m := numberValue(payload, "out_mileage"); m > v.Odometer {
		v.Odometer = m
	}
	if m := numberValue(payload, "in_mileage"); m > v.Odometer {
		v.Odometer = m
	}

	v.State = to

	return &recordkeeper.AttemptReply{
		Success:          true,
		AppliedState:     to,
		CreatedDocuments: docs,
		Message:          fmt.Sprintf("Vehicle %s moved to %s", label(v), to),
	}, nil
}

func (s *Store) findConflict(vehicleID string, start, end time.Time) *reservation {
	for i := range s.reservations {
		r := &s.reservations[i]
		if r.vehicleID != vehicleID || !r.active {
			continue
		}
		if !start.After(r.end) && !end.Before(r.start) {
			return r
		}
	}
	return nil
}

func (s *Store) createReservation(vehicleID string, start, end time.Time) string {
	doc := s.createDocument(DocReservation)
	s.reservations = append(s.reservations, reservation{
		id:        doc.ID,
		vehicleID: vehicleID,
		start:     start,
		end:       end,
		active:    true,
	})
	return doc.ID
}

func (s *Store) cancelReservations(vehicleID string) {
	for i := range s.reservations {
		if s.reservations[i].vehicleID == vehicleID {
			s.reservations[i].active = false
		}
	}
}

func (s *Store) createDocument(docType string) recordkeeper.Document {
	s.seq[docType]++
	return recordkeeper.Document{
		Type: docType,
		ID:   fmt.Sprintf("%s-%05d", docPrefixes[docType], s.seq[docType]),
	}
}

func reject(format string, args ...any) *recordkeeper.AttemptReply {
	return &recordkeeper.AttemptReply{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	}
}

func period(payload map[string]any, startKey, endKey string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, stringValue(payload, startKey))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", startKey)
	}
	end, err := time.Parse(time.RFC3339, stringValue(payload, endKey))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", endKey)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%s must be after %s", endKey, startKey)
	}
	return start, end, nil
}

func stringValue(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func numberValue(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func label(v *recordkeeper.VehicleRecord) string {
	if v.LicensePlate != "" {
		return v.LicensePlate
	}
	return v.ID
}
