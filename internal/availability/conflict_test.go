package availability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	nine := WallClock{Hour: 9}
	ten := WallClock{Hour: 10}
	eleven := WallClock{Hour: 11}
	noon := WallClock{Hour: 12}

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd WallClock
		want                       bool
	}{
		{"identical ranges", nine, ten, nine, ten, true},
		{"partial overlap", nine, eleven, ten, noon, true},
		{"containment", nine, noon, ten, eleven, true},
		{"adjacent ranges do not conflict", nine, ten, ten, eleven, false},
		{"adjacent the other way", ten, eleven, nine, ten, false},
		{"disjoint", nine, ten, eleven, noon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestDetectConflict(t *testing.T) {
	existing := []Window{
		{StartTime: WallClock{Hour: 9}, EndTime: WallClock{Hour: 12}},
		{StartTime: WallClock{Hour: 14}, EndTime: WallClock{Hour: 17}},
	}

	// Fits in the gap.
	assert.NoError(t, DetectConflict(WallClock{Hour: 12}, WallClock{Hour: 14}, existing))

	err := DetectConflict(WallClock{Hour: 11}, WallClock{Hour: 15}, existing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAvailabilityConflict)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, WallClock{Hour: 9}, conflict.ExistingStart)
	assert.Equal(t, WallClock{Hour: 12}, conflict.ExistingEnd)

	assert.NoError(t, DetectConflict(WallClock{Hour: 8}, WallClock{Hour: 9}, nil))
}
