package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldGoalID      = "goal_id"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldLimitCents  = "limit_cents"
	FieldSpentCents  = "spent_cents"
	FieldPercentage  = "percentage"
	FieldStatus      = "status"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentSession   = "session"
	ComponentAccounts  = "accounts"
	ComponentLedger    = "ledger"
	ComponentGoals     = "goals"
	ComponentLimits    = "limits"
	ComponentGateway   = "gateway"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpCheck    = "check"
	OpSweep    = "sweep"
	OpNotify   = "notify"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
