package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldWalletID    = "wallet_id"
	FieldWalletName  = "wallet_name"
	FieldTxID        = "transaction_id"
	FieldTransferID  = "transfer_id"
	FieldKind        = "kind"
	FieldAmountCents = "amount_cents"
	FieldExportRef   = "export_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
