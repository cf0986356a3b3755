package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldEntryID    = "entry_id"
	FieldSpentDate  = "spent_date"
	FieldProjectID  = "project_id"
	FieldTaskID     = "task_id"
	FieldAccountID  = "account_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentEngine   = "engine"
	ComponentHarvest  = "harvest"
	ComponentProxy    = "proxy"
	ComponentSession  = "session"
	ComponentCache    = "cache"
	ComponentTrace    = "trace"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpWeekFill   = "week_fill"
	OpRevalidate = "revalidate"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)
