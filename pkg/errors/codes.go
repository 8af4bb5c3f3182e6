package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: COMMON, RAC, MOL, ELM, IO.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Short aliases used at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Descriptor engine error codes.
const (
	ErrCodeMissingNodeLabel   ErrorCode = "RAC_001"
	ErrCodeInvalidProperty    ErrorCode = "RAC_002"
	ErrCodeUnknownElement     ErrorCode = "RAC_003"
	ErrCodeInvalidStatistic   ErrorCode = "RAC_004"
	ErrCodeInvalidGraph       ErrorCode = "RAC_005"
	ErrCodeInvalidDepth       ErrorCode = "RAC_006"
	ErrCodeCanonicalization   ErrorCode = "RAC_007"
	ErrCodeBatchFailed        ErrorCode = "RAC_008"
	ErrCodeEmptyBatch         ErrorCode = "RAC_009"
	ErrCodeComputationAborted ErrorCode = "RAC_010"
)

// Molecule input error codes.
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeMoleculeInvalidFormat ErrorCode = "MOL_003"
	ErrCodeMoleculeNotFound      ErrorCode = "MOL_004"
	ErrCodeMoleculeParsingFailed ErrorCode = "MOL_006"
)

// Element data error codes.
const (
	ErrCodeElementTableInvalid ErrorCode = "ELM_001"
)

// Input/output sink error codes.
const (
	ErrCodeStorageError      ErrorCode = "IO_001"
	ErrCodeMessageQueueError ErrorCode = "IO_002"
	ErrCodeGraphStoreError   ErrorCode = "IO_003"
)

// Aliases kept for infrastructure call sites.
const (
	CodeMoleculeInvalidSMILES = ErrCodeMoleculeInvalidSMILES
	CodeMoleculeNotFound      = ErrCodeMoleculeNotFound
	CodeStorageError          = ErrCodeStorageError
	CodeMessageQueueError     = ErrCodeMessageQueueError
	CodeDBConnectionError     = ErrCodeGraphStoreError
	CodeDBQueryError          = ErrCodeGraphStoreError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMissingNodeLabel:   http.StatusUnprocessableEntity,
	ErrCodeInvalidProperty:    http.StatusBadRequest,
	ErrCodeUnknownElement:     http.StatusUnprocessableEntity,
	ErrCodeInvalidStatistic:   http.StatusBadRequest,
	ErrCodeInvalidGraph:       http.StatusUnprocessableEntity,
	ErrCodeInvalidDepth:       http.StatusBadRequest,
	ErrCodeCanonicalization:   http.StatusInternalServerError,
	ErrCodeBatchFailed:        http.StatusUnprocessableEntity,
	ErrCodeEmptyBatch:         http.StatusBadRequest,
	ErrCodeComputationAborted: http.StatusServiceUnavailable,

	ErrCodeMoleculeInvalidSMILES: http.StatusBadRequest,
	ErrCodeMoleculeInvalidFormat: http.StatusBadRequest,
	ErrCodeMoleculeNotFound:      http.StatusNotFound,
	ErrCodeMoleculeParsingFailed: http.StatusBadRequest,

	ErrCodeElementTableInvalid: http.StatusInternalServerError,

	ErrCodeStorageError:      http.StatusBadGateway,
	ErrCodeMessageQueueError: http.StatusBadGateway,
	ErrCodeGraphStoreError:   http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeMissingNodeLabel:   "node is missing its element label",
	ErrCodeInvalidProperty:    "invalid property",
	ErrCodeUnknownElement:     "unknown element symbol",
	ErrCodeInvalidStatistic:   "invalid statistic",
	ErrCodeInvalidGraph:       "invalid molecular graph",
	ErrCodeInvalidDepth:       "invalid autocorrelation depth",
	ErrCodeCanonicalization:   "graph canonicalization failed",
	ErrCodeBatchFailed:        "descriptor batch failed",
	ErrCodeEmptyBatch:         "descriptor batch is empty",
	ErrCodeComputationAborted: "descriptor computation aborted",

	ErrCodeMoleculeInvalidSMILES: "invalid SMILES format",
	ErrCodeMoleculeInvalidFormat: "unsupported molecule format",
	ErrCodeMoleculeNotFound:      "molecule not found",
	ErrCodeMoleculeParsingFailed: "failed to parse molecule",

	ErrCodeElementTableInvalid: "element table is invalid",

	ErrCodeStorageError:      "object storage error",
	ErrCodeMessageQueueError: "message queue error",
	ErrCodeGraphStoreError:   "graph database error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
