package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldRangeStart = "range_start"
	FieldRangeEnd   = "range_end"
	FieldRangeKind  = "range_kind"
	FieldTxID       = "transaction_id"
	FieldCategoryID = "category_id"
	FieldAmount     = "amount"
	FieldFormat     = "format"
	FieldSequence   = "sequence"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentBackend  = "backend"
	ComponentQuery    = "query"
	ComponentMutation = "mutation"
	ComponentCategory = "category"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRefresh  = "refresh"
	OpExport   = "export"
	OpResolve  = "resolve"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
