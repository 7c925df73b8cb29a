package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusInProgress, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusRescheduled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusRescheduled, StatusConfirmed, true},
		{StatusNoShow, StatusCompleted, true},
		// Terminal states are absorbing.
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		// Self transitions are rejected.
		{StatusScheduled, StatusScheduled, false},
		{StatusConfirmed, StatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusScheduled.IsTerminal())
	assert.False(t, StatusRescheduled.IsTerminal())
	assert.False(t, StatusNoShow.IsTerminal())
}

func TestReferenceFormats(t *testing.T) {
	apptRef := NewAppointmentReference()
	assert.True(t, strings.HasPrefix(apptRef, "APT-"))
	assert.Len(t, apptRef, 12)
	assert.Equal(t, strings.ToUpper(apptRef), apptRef)

	slotRef := NewSlotReference()
	assert.True(t, strings.HasPrefix(slotRef, "SLT-"))
	assert.Len(t, slotRef, 12)

	assert.NotEqual(t, NewAppointmentReference(), NewAppointmentReference())
}
