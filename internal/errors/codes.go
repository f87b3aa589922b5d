// Package errors provides structured error handling for benchgate.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (directories, files, subprocesses)
//   - 4XX: Validation errors (measurement contents and grouping)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, directory and subprocess errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates malformed measurement input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeRead               = "ERR_201_READ"
	ErrCodeBadFileContents    = "ERR_202_BAD_FILE_CONTENTS"
	ErrCodeMissingFilename    = "ERR_203_MISSING_FILENAME"
	ErrCodeFilenameNotUnicode = "ERR_204_FILENAME_NOT_UNICODE"
	ErrCodeCommand            = "ERR_205_COMMAND"
	ErrCodeInvalidOutputDir   = "ERR_206_INVALID_OUTPUT_DIR"

	// Validation errors (400-499)
	ErrCodeBadJSON           = "ERR_401_BAD_JSON"
	ErrCodeNoResults         = "ERR_402_NO_RESULTS"
	ErrCodeOddResultsCount   = "ERR_403_ODD_RESULTS_COUNT"
	ErrCodeBadGroupSize      = "ERR_404_BAD_GROUP_SIZE"
	ErrCodeBadBranchName     = "ERR_405_BAD_BRANCH_NAME"
	ErrCodeMalformedFilename = "ERR_406_MALFORMED_FILENAME"
	ErrCodeEmptyResults      = "ERR_407_EMPTY_RESULTS"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_READ")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// A results directory that cannot be read at all leaves nothing to compare.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeRead, ErrCodeInternal:
		return SeverityFatal
	default:
		return SeverityError
	}
}
