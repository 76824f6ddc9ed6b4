package constant

type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "Draft"
	TemplateStatusSent      TemplateStatus = "Sent"
	TemplateStatusCompleted TemplateStatus = "Completed"
	TemplateStatusApproved  TemplateStatus = "Approved"
	TemplateStatusRejected  TemplateStatus = "Rejected"
)

// Editable reports whether recipients and fields may still change.
func (s TemplateStatus) Editable() bool {
	return s == TemplateStatusDraft || s == TemplateStatusSent
}

// Terminal states have no outgoing transitions.
func (s TemplateStatus) Terminal() bool {
	return s == TemplateStatusApproved || s == TemplateStatusRejected
}

type RecipientStatus string

const (
	RecipientStatusPending RecipientStatus = "Pending"
	RecipientStatusSigned  RecipientStatus = "Signed"
)

// Recipient colors, handed out unused-first.
var RecipientColors = []string{
	"#f97316",
	"#22c55e",
	"#06b6d4",
	"#8b5cf6",
	"#d946ef",
	"#f43f5e",
	"#eab308",
}
