package logger

// Standard field names for consistent structured logging across cadence.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldSequence = "sequence"
	FieldRunID    = "run_id"
	FieldClientID = "client_id"

	// Actions
	FieldActionType = "action_type"
	FieldActionVerb = "action_verb"
	FieldKey        = "key"
	FieldButton     = "button"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldIntervalS  = "interval_s"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Files and paths
	FieldFile = "file"
	FieldPath = "path"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount = "count"

	// FieldSymbol carries the cadence marker glyph (▸, ↻, ⌖, etc.)
	FieldSymbol = "symbol"
)
