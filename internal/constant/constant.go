package constant

import "time"

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

const QUERY_TIMEOUT_DURATION = 5 * time.Second

const (
	TEMPLATE_KEY_PREFIX = "template-"
	// Current layout of persisted templates, see model.Migrate
	TEMPLATE_SCHEMA_VERSION = 2
)
