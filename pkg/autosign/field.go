package autosign

import (
	"errors"
	"fmt"
	"slices"
)

type FieldType string

const (
	FieldTypeSignature  FieldType = "SIGNATURE"
	FieldTypeInitials   FieldType = "INITIALS"
	FieldTypeFullName   FieldType = "FULL_NAME"
	FieldTypeDate       FieldType = "DATE"
	FieldTypeFileUpload FieldType = "FILE_UPLOAD"
)

var fieldTypes = []FieldType{
	FieldTypeSignature,
	FieldTypeInitials,
	FieldTypeFullName,
	FieldTypeDate,
	FieldTypeFileUpload,
}

func (t FieldType) Valid() bool {
	return slices.Contains(fieldTypes, t)
}

// Exclusive field types may appear at most once per recipient.
func (t FieldType) Exclusive() bool {
	switch t {
	case FieldTypeSignature, FieldTypeInitials, FieldTypeFullName:
		return true
	default:
		return false
	}
}

type SignatureField struct {
	ID          string    `json:"id" form:"id"`
	RecipientID string    `json:"recipientId" form:"recipientId"`
	Page        int       `json:"page" form:"page"`
	Type        FieldType `json:"type" form:"type"`
	NormalizedRect
}

func (f SignatureField) Rect() NormalizedRect {
	return f.NormalizedRect
}

type ConstraintKind string

const (
	ConstraintMissingRecipient        ConstraintKind = "MissingRecipient"
	ConstraintDuplicateExclusiveField ConstraintKind = "DuplicateExclusiveField"
	ConstraintUnknownFieldType        ConstraintKind = "UnknownFieldType"
	ConstraintInvalidPage             ConstraintKind = "InvalidPage"
	ConstraintFieldNotFound           ConstraintKind = "FieldNotFound"
)

type ConstraintError struct {
	Kind        ConstraintKind
	RecipientID string
	FieldType   FieldType
	Message     string
}

func (e *ConstraintError) Error() string {
	return e.Message
}

func IsConstraintError(err error, kind ConstraintKind) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == kind
}

// FieldUpdate carries the mutable geometry of a field. Nil members are left
// untouched; recipient, type and page can never change.
type FieldUpdate struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// FieldSet enforces per-recipient cardinality on a template's fields.
type FieldSet struct {
	fields     []SignatureField
	recipients map[string]struct{}
	pageCount  int
	newID      func() (string, error)
}

// NewFieldSet wraps existing fields. pageCount <= 0 disables the upper page check.
func NewFieldSet(fields []SignatureField, recipientIDs []string, pageCount int, newID func() (string, error)) *FieldSet {
	recipients := make(map[string]struct{}, len(recipientIDs))
	for _, id := range recipientIDs {
		recipients[id] = struct{}{}
	}

	return &FieldSet{
		fields:     slices.Clone(fields),
		recipients: recipients,
		pageCount:  pageCount,
		newID:      newID,
	}
}

func (fs *FieldSet) Fields() []SignatureField {
	return slices.Clone(fs.fields)
}

func (fs *FieldSet) ForRecipient(recipientID string) []SignatureField {
	var out []SignatureField
	for _, f := range fs.fields {
		if f.RecipientID == recipientID {
			out = append(out, f)
		}
	}
	return out
}

func (fs *FieldSet) Get(fieldID string) (SignatureField, bool) {
	idx := fs.indexOf(fieldID)
	if idx < 0 {
		return SignatureField{}, false
	}
	return fs.fields[idx], true
}

func (fs *FieldSet) HasType(recipientID string, t FieldType) bool {
	return slices.ContainsFunc(fs.fields, func(f SignatureField) bool {
		return f.RecipientID == recipientID && f.Type == t
	})
}

func (fs *FieldSet) Place(recipientID string, t FieldType, page int, rect NormalizedRect) (SignatureField, error) {
	if recipientID == "" {
		return SignatureField{}, &ConstraintError{Kind: ConstraintMissingRecipient, FieldType: t, Message: "select a recipient before placing a field"}
	}
	if _, ok := fs.recipients[recipientID]; !ok {
		return SignatureField{}, &ConstraintError{Kind: ConstraintMissingRecipient, RecipientID: recipientID, FieldType: t, Message: fmt.Sprintf("recipient %s does not exist", recipientID)}
	}
	if !t.Valid() {
		return SignatureField{}, &ConstraintError{Kind: ConstraintUnknownFieldType, RecipientID: recipientID, FieldType: t, Message: fmt.Sprintf("unknown field type %q", t)}
	}
	if page < 1 || (fs.pageCount > 0 && page > fs.pageCount) {
		return SignatureField{}, &ConstraintError{Kind: ConstraintInvalidPage, RecipientID: recipientID, FieldType: t, Message: fmt.Sprintf("page %d is out of range", page)}
	}
	if t.Exclusive() && fs.HasType(recipientID, t) {
		return SignatureField{}, &ConstraintError{
			Kind:        ConstraintDuplicateExclusiveField,
			RecipientID: recipientID,
			FieldType:   t,
			Message:     fmt.Sprintf("only one %s field is allowed per recipient", t),
		}
	}

	id, err := fs.newID()
	if err != nil {
		return SignatureField{}, fmt.Errorf("failed to generate field id: %w", err)
	}

	rect.Width, rect.Height = ClampSize(rect.Width, rect.Height)
	f := SignatureField{
		ID:             id,
		RecipientID:    recipientID,
		Page:           page,
		Type:           t,
		NormalizedRect: rect,
	}
	fs.fields = append(fs.fields, f)

	return f, nil
}

func (fs *FieldSet) Update(fieldID string, u FieldUpdate) (SignatureField, error) {
	idx := fs.indexOf(fieldID)
	if idx < 0 {
		return SignatureField{}, &ConstraintError{Kind: ConstraintFieldNotFound, Message: fmt.Sprintf("field %s not found", fieldID)}
	}

	f := fs.fields[idx]
	if u.X != nil {
		f.X = *u.X
	}
	if u.Y != nil {
		f.Y = *u.Y
	}
	if u.Width != nil {
		f.Width = *u.Width
	}
	if u.Height != nil {
		f.Height = *u.Height
	}
	f.Width, f.Height = ClampSize(f.Width, f.Height)

	fs.fields[idx] = f
	return f, nil
}

// SetRect replaces the geometry of a field, e.g. at the end of a drag.
func (fs *FieldSet) SetRect(fieldID string, r NormalizedRect) (SignatureField, error) {
	return fs.Update(fieldID, FieldUpdate{X: &r.X, Y: &r.Y, Width: &r.Width, Height: &r.Height})
}

// Remove is unconditional; it reports whether a field was removed.
func (fs *FieldSet) Remove(fieldID string) bool {
	idx := fs.indexOf(fieldID)
	if idx < 0 {
		return false
	}

	fs.fields = slices.Delete(fs.fields, idx, idx+1)
	return true
}

// RemoveRecipient drops every field owned by the recipient and forgets it.
func (fs *FieldSet) RemoveRecipient(recipientID string) []string {
	var removed []string
	fs.fields = slices.DeleteFunc(fs.fields, func(f SignatureField) bool {
		if f.RecipientID == recipientID {
			removed = append(removed, f.ID)
			return true
		}
		return false
	})
	delete(fs.recipients, recipientID)
	return removed
}

func (fs *FieldSet) AddRecipient(recipientID string) {
	fs.recipients[recipientID] = struct{}{}
}

func (fs *FieldSet) indexOf(fieldID string) int {
	return slices.IndexFunc(fs.fields, func(f SignatureField) bool {
		return f.ID == fieldID
	})
}
