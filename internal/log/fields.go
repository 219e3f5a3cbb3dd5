package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldAccountID   = "account_id"
	FieldTxID        = "transaction_id"
	FieldMonth       = "month"
	FieldAmountCents = "amount_cents"
	FieldRevision    = "revision"
	FieldHorizon     = "horizon"
	FieldModelPath   = "model_path"
	FieldEpoch       = "epoch"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentForecast = "forecast"
	ComponentTrainer  = "trainer"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpOverwrite = "overwrite_month"
	OpExport    = "export"
	OpPredict   = "predict"
	OpTrend     = "trend"
	OpTrain     = "train"
)
