package model

import (
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
)

type Recipient struct {
	ID     string                   `json:"id" form:"id"`
	Name   string                   `json:"name" form:"name" binding:"required,strNotEmpty,cmax=100"`
	Email  string                   `json:"email" form:"email" binding:"required,email"`
	Phone  string                   `json:"phone,omitempty" form:"phone" binding:"omitempty,cmax=30"`
	Color  string                   `json:"color" form:"color"`
	Status constant.RecipientStatus `json:"status" form:"status"`

	SignedAt   *time.Time    `json:"signedAt,omitempty"`
	SignerInfo *SignerRecord `json:"signerInfo,omitempty"`
}

// SignerRecord is what survives of the SignerInfo after signing. Images are
// only ever burnt into the PDF.
type SignerRecord struct {
	FullName    string                `json:"fullName"`
	Initials    string                `json:"initials"`
	Attestation *autosign.Attestation `json:"attestation,omitempty"`
}

// Reset puts the recipient back to an unsigned state.
func (r *Recipient) Reset() {
	r.Status = constant.RecipientStatusPending
	r.SignedAt = nil
	r.SignerInfo = nil
}
