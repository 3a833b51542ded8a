package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldUsername    = "username"
	FieldTitle       = "title"
	FieldAmount      = "amount"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldIncome      = "total_income"
	FieldExpense     = "total_expense"
	FieldBalance     = "balance"
	FieldBudget      = "monthly_budget"
	FieldBudgetMonth = "budget_month"
	FieldAlert       = "alert"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentAuth    = "auth"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpSeed      = "seed"
	OpAppend    = "append"
	OpReplace   = "replace"
	OpRemove    = "remove"
	OpReconcile = "reconcile"
	OpSetBudget = "set_budget"
	OpNotify    = "notify"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeStorage  = "storage_error"
	ErrorTypeDelivery = "delivery_error"
	ErrorTypeInternal = "internal_error"
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

func (f LogFields) WithUsername(username string) LogFields {
	f[FieldUsername] = username
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the fields describing one ledger record
func (f LogFields) WithTransaction(title string, amount decimal.Decimal, kind, category string) LogFields {
	f[FieldTitle] = title
	f[FieldAmount] = amount.StringFixed(2)
	f[FieldKind] = kind
	f[FieldCategory] = category
	return f
}

// WithTotals adds running ledger totals
func (f LogFields) WithTotals(income, expense decimal.Decimal) LogFields {
	f[FieldIncome] = income.StringFixed(2)
	f[FieldExpense] = expense.StringFixed(2)
	f[FieldBalance] = income.Sub(expense).StringFixed(2)
	return f
}

// WithBudget adds the monthly budget and the month it was set in
func (f LogFields) WithBudget(amount decimal.Decimal, month string) LogFields {
	f[FieldBudget] = amount.StringFixed(2)
	f[FieldBudgetMonth] = month
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
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
