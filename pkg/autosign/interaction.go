package autosign

import (
	"errors"
	"fmt"
)

type InteractionState int

const (
	InteractionIdle InteractionState = iota
	InteractionDragging
	InteractionResizing
)

func (s InteractionState) String() string {
	switch s {
	case InteractionDragging:
		return "dragging"
	case InteractionResizing:
		return "resizing"
	default:
		return "idle"
	}
}

var ErrInteractionBusy = errors.New("another interaction is in progress")

// Interaction tracks a single drag or resize gesture on one field.
// Pointer deltas are accumulated from the position where the gesture started,
// so every Move yields a rectangle relative to the field's starting geometry.
type Interaction struct {
	state   InteractionState
	fieldID string
	start   NormalizedRect
	dims    PageDimensions
	current NormalizedRect
}

func (in *Interaction) State() InteractionState {
	return in.state
}

func (in *Interaction) FieldID() string {
	return in.fieldID
}

func (in *Interaction) BeginDrag(f SignatureField, dims PageDimensions) error {
	return in.begin(InteractionDragging, f, dims)
}

func (in *Interaction) BeginResize(f SignatureField, dims PageDimensions) error {
	return in.begin(InteractionResizing, f, dims)
}

func (in *Interaction) begin(state InteractionState, f SignatureField, dims PageDimensions) error {
	if in.state != InteractionIdle {
		return fmt.Errorf("%w: %s field %s", ErrInteractionBusy, in.state, in.fieldID)
	}

	in.state = state
	in.fieldID = f.ID
	in.start = f.Rect()
	in.current = f.Rect()
	in.dims = dims
	return nil
}

// Move applies the total pointer delta (in page pixels) since the gesture
// began. It reports false while idle.
func (in *Interaction) Move(dx, dy float64) (NormalizedRect, bool) {
	switch in.state {
	case InteractionDragging:
		in.current = Drag(in.start, dx, dy, in.dims)
	case InteractionResizing:
		in.current = Resize(in.start, dx, dy, in.dims)
	default:
		return NormalizedRect{}, false
	}

	return in.current, true
}

// End detaches from the field and returns its final rectangle.
func (in *Interaction) End() (string, NormalizedRect, bool) {
	if in.state == InteractionIdle {
		return "", NormalizedRect{}, false
	}

	fieldID, rect := in.fieldID, in.current
	*in = Interaction{}
	return fieldID, rect, true
}
