package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

// DateLayout is the calendar-day format used on the wire and in storage.
const DateLayout = "2006-01-02"

// DefaultSlotCapacity caps capacity-consuming bookings per slot.
const DefaultSlotCapacity = 2

// SlotCatalog is the fixed, ordered set of bookable time labels.
type SlotCatalog struct {
	labels []string
	index  map[string]struct{}
}

// NewSlotCatalog builds a catalog, dropping blanks and duplicates while keeping order.
func NewSlotCatalog(labels []string) SlotCatalog {
	catalog := SlotCatalog{index: make(map[string]struct{}, len(labels))}
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		if _, dup := catalog.index[label]; dup {
			continue
		}
		catalog.index[label] = struct{}{}
		catalog.labels = append(catalog.labels, label)
	}
	return catalog
}

// Labels returns a copy of the catalog in order.
func (c SlotCatalog) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Len reports the catalog size.
func (c SlotCatalog) Len() int {
	return len(c.labels)
}

// Contains reports whether label is bookable.
func (c SlotCatalog) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// ValidateSlot checks a (date, label) pair against the calendar and the catalog.
func (c SlotCatalog) ValidateSlot(date, label string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	if !c.Contains(label) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time must be one of: %s", strings.Join(c.labels, ", ")))
	}
	return nil
}

// ComputeAvailability marks each catalog label available unless it is blocked or at capacity.
func ComputeAvailability(catalog SlotCatalog, blocked []string, counts []models.SlotCount, capacity int) []models.SlotAvailability {
	if capacity <= 0 {
		capacity = DefaultSlotCapacity
	}
	blockedSet := make(map[string]struct{}, len(blocked))
	for _, label := range blocked {
		blockedSet[label] = struct{}{}
	}
	booked := make(map[string]int, len(counts))
	for _, c := range counts {
		booked[c.Time] += c.Count
	}

	result := make([]models.SlotAvailability, 0, catalog.Len())
	for _, label := range catalog.labels {
		_, isBlocked := blockedSet[label]
		full := booked[label] >= capacity
		result = append(result, models.SlotAvailability{Time: label, Available: !isBlocked && !full})
	}
	return result
}

// Transition applies action to appt on behalf of actorID and returns the resulting status.
// An actorID of zero is an unidentified caller and is only accepted for cancel and reschedule.
func Transition(appt *models.Appointment, action models.AppointmentAction, actorID int64) (models.AppointmentStatus, error) {
	if appt == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
	}

	switch action {
	case models.ActionApprove, models.ActionReject:
		if actorID != appt.FacultyID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "Not your appointment")
		}
		if appt.Status != models.StatusWaiting {
			return "", alreadyError(appt.Status)
		}
		if action == models.ActionApprove {
			return models.StatusApproved, nil
		}
		return models.StatusRejected, nil

	case models.ActionCancel, models.ActionReschedule:
		if actorID != 0 && actorID != appt.StudentID && actorID != appt.FacultyID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "Not your appointment")
		}
		if appt.Status.Terminal() {
			return "", alreadyError(appt.Status)
		}
		if action == models.ActionCancel {
			return models.StatusCanceled, nil
		}
		return models.StatusRescheduled, nil
	}

	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action %q", action))
}

func alreadyError(status models.AppointmentStatus) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrConflict, "Already "+strings.ToLower(string(status)))
}
