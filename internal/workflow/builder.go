package workflow

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BuilderEvent is a generic wrapper that holds the event type and raw payload.
type BuilderEvent struct {
	Type constant.EventType `json:"type" binding:"required"`
	Data json.RawMessage    `json:"data" binding:"required"`
}

type RecipientAdd struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RecipientUpdate struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type RemoveByID struct {
	ID string `json:"id"`
}

// ClickPoint is a click on the rendered page, in pixels.
type ClickPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
}

type FieldAdd struct {
	RecipientID string             `json:"recipientId"`
	Type        autosign.FieldType `json:"type"`
	Page        int                `json:"page"`
	autosign.NormalizedRect
	// Used instead of the rectangle when present
	Click *ClickPoint `json:"click,omitempty"`
}

type FieldUpdate struct {
	ID string `json:"id"`
	autosign.FieldUpdate
}

// FieldGesture is a completed drag or resize, deltas in rendered page pixels.
type FieldGesture struct {
	ID         string  `json:"id"`
	DX         float64 `json:"dx"`
	DY         float64 `json:"dy"`
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
}

type PageRotate struct {
	Page     int `json:"page"`
	Rotation int `json:"rotation"`
}

// Builder applies setup edits to a template in memory. Nothing is persisted
// until the caller saves the template.
type Builder struct {
	t      *model.Template
	fields *autosign.FieldSet
	newID  func() (string, error)
	// id handed to the next placed field, when the caller supplied one
	nextFieldID string
}

func NewBuilder(t *model.Template, newID func() (string, error)) *Builder {
	b := &Builder{t: t, newID: newID}
	b.fields = autosign.NewFieldSet(t.Fields, t.RecipientIDs(), t.PageCount, b.fieldID)
	return b
}

func (b *Builder) fieldID() (string, error) {
	if id := b.nextFieldID; id != "" {
		b.nextFieldID = ""
		return id, nil
	}
	return b.newID()
}

// Template returns the edited template.
func (b *Builder) Template() *model.Template {
	b.t.Fields = b.fields.Fields()
	return b.t
}

func (b *Builder) Apply(event BuilderEvent) error {
	switch event.Type {
	case constant.EventRecipientAdd:
		var payload RecipientAdd
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		_, err := b.AddRecipient(model.Recipient{ID: payload.ID, Name: payload.Name, Email: payload.Email, Phone: payload.Phone})
		return err
	case constant.EventRecipientUpdate:
		var payload RecipientUpdate
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		return b.UpdateRecipient(payload)
	case constant.EventRecipientRemove:
		var payload RemoveByID
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		return b.RemoveRecipient(payload.ID)
	case constant.EventFieldAdd:
		var payload FieldAdd
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		_, err := b.PlaceField(payload)
		return err
	case constant.EventFieldUpdate:
		var payload FieldUpdate
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		_, err := b.fields.Update(payload.ID, payload.FieldUpdate)
		return err
	case constant.EventFieldMove:
		var payload FieldGesture
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		_, err := b.MoveField(payload)
		return err
	case constant.EventFieldResize:
		var payload FieldGesture
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		_, err := b.ResizeField(payload)
		return err
	case constant.EventFieldRemove:
		var payload RemoveByID
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		b.RemoveField(payload.ID)
		return nil
	case constant.EventPageRotate:
		var payload PageRotate
		if err := decodePayload(event, &payload); err != nil {
			return err
		}
		return b.RotatePage(payload.Page, payload.Rotation)
	default:
		return validationError("events", "unknown event type %q", event.Type)
	}
}

func decodePayload(event BuilderEvent, v any) error {
	if err := json.Unmarshal(event.Data, v); err != nil {
		return validationError("events", "invalid payload for %s", event.Type)
	}
	return nil
}

func (b *Builder) AddRecipient(r model.Recipient) (model.Recipient, error) {
	if err := validateRecipient(r); err != nil {
		return model.Recipient{}, err
	}

	if r.ID == "" {
		id, err := b.newID()
		if err != nil {
			return model.Recipient{}, fmt.Errorf("failed to generate recipient id: %w", err)
		}
		r.ID = id
	}
	if _, exists := b.t.Recipient(r.ID); exists {
		return model.Recipient{}, validationError("recipients", "recipient %s already exists", r.ID)
	}

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if used := b.usedColors(); r.Color == "" || slices.Contains(used, r.Color) {
		r.Color = pickColor(used)
	}
	r.Reset()

	b.t.Recipients = append(b.t.Recipients, r)
	b.fields.AddRecipient(r.ID)
	return r, nil
}

func (b *Builder) UpdateRecipient(u RecipientUpdate) error {
	r, ok := b.t.Recipient(u.ID)
	if !ok {
		return validationError("recipients", "recipient %s not found", u.ID)
	}

	next := *r
	if u.Name != nil {
		next.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		next.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		next.Phone = strings.TrimSpace(*u.Phone)
	}
	if err := validateRecipient(next); err != nil {
		return err
	}

	*r = next
	return nil
}

// RemoveRecipient drops the recipient with their fields and attachments.
func (b *Builder) RemoveRecipient(recipientID string) error {
	if _, ok := b.t.Recipient(recipientID); !ok {
		return validationError("recipients", "recipient %s not found", recipientID)
	}

	for _, fieldID := range b.fields.RemoveRecipient(recipientID) {
		RemoveAttachment(b.t, fieldID)
	}
	b.t.Recipients = slices.DeleteFunc(b.t.Recipients, func(r model.Recipient) bool {
		return r.ID == recipientID
	})
	return nil
}

func (b *Builder) PlaceField(in FieldAdd) (autosign.SignatureField, error) {
	rect := in.NormalizedRect
	if in.Click != nil {
		rect = autosign.DefaultRectAt(in.Type, in.Click.X, in.Click.Y, autosign.PageDimensions{Width: in.Click.PageWidth, Height: in.Click.PageHeight})
	}
	return b.fields.Place(in.RecipientID, in.Type, in.Page, rect)
}

// PlaceFieldWithID keeps a caller supplied field id, e.g. on template creation.
func (b *Builder) PlaceFieldWithID(f autosign.SignatureField) (autosign.SignatureField, error) {
	if f.ID != "" {
		if _, exists := b.fields.Get(f.ID); exists {
			return autosign.SignatureField{}, validationError("fields", "field %s already exists", f.ID)
		}
		b.nextFieldID = f.ID
	}
	defer func() { b.nextFieldID = "" }()

	return b.fields.Place(f.RecipientID, f.Type, f.Page, f.Rect())
}

func (b *Builder) MoveField(g FieldGesture) (autosign.SignatureField, error) {
	return b.gesture(g, (*autosign.Interaction).BeginDrag)
}

func (b *Builder) ResizeField(g FieldGesture) (autosign.SignatureField, error) {
	return b.gesture(g, (*autosign.Interaction).BeginResize)
}

func (b *Builder) gesture(g FieldGesture, begin func(*autosign.Interaction, autosign.SignatureField, autosign.PageDimensions) error) (autosign.SignatureField, error) {
	f, ok := b.fields.Get(g.ID)
	if !ok {
		return autosign.SignatureField{}, &autosign.ConstraintError{Kind: autosign.ConstraintFieldNotFound, Message: fmt.Sprintf("field %s not found", g.ID)}
	}

	dims := autosign.PageDimensions{Width: g.PageWidth, Height: g.PageHeight}
	if !dims.Valid() {
		return autosign.SignatureField{}, validationError("events", "page dimensions are required to move or resize a field")
	}

	var in autosign.Interaction
	if err := begin(&in, f, dims); err != nil {
		return autosign.SignatureField{}, err
	}
	in.Move(g.DX, g.DY)
	_, rect, _ := in.End()

	return b.fields.SetRect(f.ID, rect)
}

// RemoveField also drops the attachment uploaded for the field.
func (b *Builder) RemoveField(fieldID string) bool {
	removed := b.fields.Remove(fieldID)
	RemoveAttachment(b.t, fieldID)
	return removed
}

func (b *Builder) RotatePage(page, rotation int) error {
	if page < 1 || (b.t.PageCount > 0 && page > b.t.PageCount) {
		return validationError("page", "page %d is out of range", page)
	}

	rotation = autosign.NormalizeRotation(rotation)
	if rotation == 0 {
		delete(b.t.PageRotations, page)
		return nil
	}

	if b.t.PageRotations == nil {
		b.t.PageRotations = map[int]int{}
	}
	b.t.PageRotations[page] = rotation
	return nil
}

func (b *Builder) usedColors() []string {
	used := make([]string, 0, len(b.t.Recipients))
	for _, r := range b.t.Recipients {
		used = append(used, r.Color)
	}
	return used
}

// pickColor returns a random unused palette color, or any palette color
// once all are taken.
func pickColor(used []string) string {
	var free []string
	for _, c := range constant.RecipientColors {
		if !slices.Contains(used, c) {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		free = constant.RecipientColors
	}
	return free[rand.IntN(len(free))]
}

func validateRecipient(r model.Recipient) error {
	if strings.TrimSpace(r.Name) == "" {
		return validationError("name", "recipient name is required")
	}
	if err := validate.Var(strings.TrimSpace(r.Email), "required,email"); err != nil {
		return validationError("email", "recipient %s needs a valid email", r.Name)
	}
	return nil
}
