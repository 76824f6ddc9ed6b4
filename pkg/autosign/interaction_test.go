package autosign

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionDrag(t *testing.T) {
	var in Interaction
	dims := PageDimensions{Width: 1000, Height: 500}
	f := SignatureField{ID: "f1", NormalizedRect: NormalizedRect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05}}

	require.NoError(t, in.BeginDrag(f, dims))
	assert.Equal(t, InteractionDragging, in.State())

	_, ok := in.Move(100, 0)
	require.True(t, ok)
	// deltas are totals since the gesture began, not increments
	rect, ok := in.Move(200, 50)
	require.True(t, ok)
	assert.InDelta(t, 0.3, rect.X, 1e-9)
	assert.InDelta(t, 0.2, rect.Y, 1e-9)

	id, final, ok := in.End()
	require.True(t, ok)
	assert.Equal(t, "f1", id)
	assert.Equal(t, rect, final)
	assert.Equal(t, InteractionIdle, in.State())
}

func TestInteractionResizeFloor(t *testing.T) {
	var in Interaction
	f := SignatureField{ID: "f1", NormalizedRect: NormalizedRect{Width: 0.2, Height: 0.05}}

	require.NoError(t, in.BeginResize(f, PageDimensions{Width: 100, Height: 100}))
	rect, ok := in.Move(-100, -100)
	require.True(t, ok)
	assert.Equal(t, MinFieldWidth, rect.Width)
	assert.Equal(t, MinFieldHeight, rect.Height)
}

func TestInteractionBusyAndIdle(t *testing.T) {
	var in Interaction
	dims := PageDimensions{Width: 100, Height: 100}

	_, ok := in.Move(10, 10)
	assert.False(t, ok)
	_, _, ok = in.End()
	assert.False(t, ok)

	require.NoError(t, in.BeginDrag(SignatureField{ID: "a"}, dims))
	err := in.BeginResize(SignatureField{ID: "b"}, dims)
	assert.True(t, errors.Is(err, ErrInteractionBusy))
	assert.Equal(t, "a", in.FieldID())
}
