package statemachine

import (
	"errors"
	"time"

	"deliverus-api/models"
)

// UndoWindow is how long after entering a status an owner may still back
// out of it. The comparison is inclusive: exactly five minutes is allowed.
const UndoWindow = 5 * time.Minute

var (
	ErrAlreadyDelivered = errors.New("the order is already delivered")
	ErrAlreadyPending   = errors.New("the order is already pending")
	ErrWindowExpired    = errors.New("the order cannot be backwarded after 5 minutes")
	ErrUnknownStatus    = errors.New("unknown order status")
)

// forward is the authoritative one-step-ahead table. Delivered is terminal.
var forward = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:   models.StatusInProcess,
	models.StatusInProcess: models.StatusSent,
	models.StatusSent:      models.StatusDelivered,
}

// backward mirrors forward. Pending is the floor.
var backward = map[models.OrderStatus]models.OrderStatus{
	models.StatusInProcess: models.StatusPending,
	models.StatusSent:      models.StatusInProcess,
	models.StatusDelivered: models.StatusSent,
}

// Next returns the status one step ahead of from, or ErrAlreadyDelivered
// at the end of the pipeline.
func Next(from models.OrderStatus) (models.OrderStatus, error) {
	if to, ok := forward[from]; ok {
		return to, nil
	}
	if from == models.StatusDelivered {
		return "", ErrAlreadyDelivered
	}
	return "", ErrUnknownStatus
}

// Prev returns the status one step behind from, or ErrAlreadyPending at
// the start of the pipeline.
func Prev(from models.OrderStatus) (models.OrderStatus, error) {
	if to, ok := backward[from]; ok {
		return to, nil
	}
	if from == models.StatusPending {
		return "", ErrAlreadyPending
	}
	return "", ErrUnknownStatus
}

// entryStamp returns a pointer to the timestamp field recording when the
// order entered the given status. Pending has no stamp.
func entryStamp(o *models.Order, status models.OrderStatus) **time.Time {
	switch status {
	case models.StatusInProcess:
		return &o.StartedAt
	case models.StatusSent:
		return &o.SentAt
	case models.StatusDelivered:
		return &o.DeliveredAt
	}
	return nil
}

// Advance moves the order one step forward along the pipeline, stamping
// the timestamp of the status being entered. It mutates the order in
// memory only; persistence is the caller's job.
func Advance(o *models.Order, now time.Time) error {
	next, err := Next(o.Status)
	if err != nil {
		return err
	}
	o.Status = next
	if stamp := entryStamp(o, next); stamp != nil {
		t := now
		*stamp = &t
	}
	return nil
}

// Revert moves the order one step backward, clearing the timestamp of the
// status being exited. The undo is only legal while the order entered its
// current status no more than UndoWindow ago.
func Revert(o *models.Order, now time.Time) error {
	prev, err := Prev(o.Status)
	if err != nil {
		return err
	}
	stamp := entryStamp(o, o.Status)
	if stamp == nil || *stamp == nil {
		return ErrUnknownStatus
	}
	if now.Sub(**stamp) > UndoWindow {
		return ErrWindowExpired
	}
	*stamp = nil
	o.Status = prev
	return nil
}

// IsConflict reports whether err is one of the legal-state violations the
// engine produces, as opposed to an internal failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyDelivered) ||
		errors.Is(err, ErrAlreadyPending) ||
		errors.Is(err, ErrWindowExpired)
}

// PipelinePosition returns the index of a status along the pipeline,
// pending first. Used to present restaurant orders ordered by status.
func PipelinePosition(status models.OrderStatus) int {
	for i, s := range models.AllStatuses {
		if s == status {
			return i
		}
	}
	return len(models.AllStatuses)
}
