package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal         ErrorCode = "COMMON_001"
	ErrCodeIO               ErrorCode = "COMMON_002"
	ErrCodeInvalidOperation ErrorCode = "COMMON_003"
	ErrCodeInvalidConfig    ErrorCode = "COMMON_004"
)

// Input error codes: rejected at parse time.
const (
	ErrCodeInvalidMapping  ErrorCode = "INPUT_001"
	ErrCodeInvalidRelation ErrorCode = "INPUT_002"
	ErrCodeOntologyParse   ErrorCode = "INPUT_003"
)

// Reasoning and binding error codes.
const (
	ErrCodeBinding   ErrorCode = "REASON_001"
	ErrCodeReasoning ErrorCode = "REASON_002"
)
