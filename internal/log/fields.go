package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPersonID    = "person_id"
	FieldPurchaseID  = "purchase_id"
	FieldInstallment = "installment_id"
	FieldPeriod      = "invoice_period"
	FieldAmount      = "amount"
	FieldReceiptRef  = "receipt_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentPurchase  = "purchase"
	ComponentPayment   = "payment"
	ComponentStorage   = "storage"
	ComponentBlob      = "blob"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentAuth      = "auth"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpPay      = "pay"
	OpUnpay    = "unpay"
	OpSettle   = "settle"
	OpCleanup  = "receipt_cleanup"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithInstallment adds the installment id and, when known, its receipt.
func (f LogFields) WithInstallment(id, receiptRef string) LogFields {
	f[FieldInstallment] = id
	if receiptRef != "" {
		f[FieldReceiptRef] = receiptRef
	}
	return f
}

// WithSettlement adds the fields that identify a bulk settle.
func (f LogFields) WithSettlement(personID, period string) LogFields {
	f[FieldPersonID] = personID
	f[FieldPeriod] = period
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
