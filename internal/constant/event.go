package constant

type EventType string

// Builder events, applied in order within a single request.
const (
	EventRecipientAdd    EventType = "recipient:add"
	EventRecipientUpdate EventType = "recipient:update"
	EventRecipientRemove EventType = "recipient:remove"
	EventFieldAdd        EventType = "field:add"
	EventFieldUpdate     EventType = "field:update"
	EventFieldMove       EventType = "field:move"
	EventFieldResize     EventType = "field:resize"
	EventFieldRemove     EventType = "field:remove"
	EventPageRotate      EventType = "page:rotate"
)

type ActivityAction string

// Actions published alongside activity log entries.
const (
	ActivityCreated   ActivityAction = "created"
	ActivitySaved     ActivityAction = "saved"
	ActivityUploaded  ActivityAction = "attachment_uploaded"
	ActivityRemoved   ActivityAction = "attachment_removed"
	ActivitySigned    ActivityAction = "signed"
	ActivityCompleted ActivityAction = "completed"
	ActivityReverted  ActivityAction = "reverted"
	ActivityApproved  ActivityAction = "approved"
	ActivityRejected  ActivityAction = "rejected"
	ActivityDeleted   ActivityAction = "deleted"
)
