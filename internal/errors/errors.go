package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// noCause is rendered in place of a missing originating error.
const noCause = "None"

// Error is the structured error type for benchgate.
// It provides rich context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_READ").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Kind returns a sentinel carrying only a code, for use with errors.Is:
//
//	errors.Is(err, errors.Kind(errors.ErrCodeNoResults))
func Kind(code string) *Error {
	return &Error{Code: code}
}

// GroupMember identifies one measurement in a run partition by its
// version and run labels.
type GroupMember struct {
	Version string
	Run     string
}

// ReadError reports a directory or file that cannot be read.
func ReadError(path string, cause error) *Error {
	msg := fmt.Sprintf("ReadErr: The file cannot be read.\nFilepath: %s\nOriginating Exception: %s",
		path, causeText(cause))
	return New(ErrCodeRead, msg, cause).
		WithDetail("path", path).
		WithDetail("cause", causeText(cause))
}

// MissingFilenameError reports a path without a file name component.
func MissingFilenameError(path string) *Error {
	msg := fmt.Sprintf("MissingFilenameErr: The path provided does not specify a file.\nFilepath: %s", path)
	return New(ErrCodeMissingFilename, msg, nil).
		WithDetail("path", path)
}

// FilenameNotUnicodeError reports a file name that is not valid UTF-8.
func FilenameNotUnicodeError(path string) *Error {
	msg := fmt.Sprintf("FilenameNotUnicodeErr: The filename is not expressible in unicode. Consider renaming the file.\nFilepath: %s", path)
	return New(ErrCodeFilenameNotUnicode, msg, nil).
		WithDetail("path", path).
		WithSuggestion("Rename the file using UTF-8 characters only")
}

// BadFileContentsError reports a located file whose bytes cannot be read.
func BadFileContentsError(path string, cause error) *Error {
	msg := fmt.Sprintf("BadFileContentsErr: Check that the file exists and is readable.\nFilepath: %s\nOriginating Exception: %s",
		path, causeText(cause))
	return New(ErrCodeBadFileContents, msg, cause).
		WithDetail("path", path).
		WithDetail("cause", causeText(cause))
}

// CommandError reports a subprocess that failed to start.
func CommandError(cause error) *Error {
	msg := fmt.Sprintf("CommandErr: System command failed to run.\nOriginating Exception: %s", causeText(cause))
	return New(ErrCodeCommand, msg, cause).
		WithDetail("cause", causeText(cause)).
		WithSuggestion("Check that hyperfine is installed and on PATH")
}

// InvalidOutputDirError reports a report destination that is missing or
// not a directory.
func InvalidOutputDirError(path string, cause error) *Error {
	msg := fmt.Sprintf("InvalidOutputDirErr: The output directory does not exist or is not a directory.\nFilepath: %s\nOriginating Exception: %s",
		path, causeText(cause))
	return New(ErrCodeInvalidOutputDir, msg, cause).
		WithDetail("path", path).
		WithSuggestion("Create the output directory before running calculate")
}

// BadJSONError reports file contents that do not match the measurement schema.
func BadJSONError(path string, cause error) *Error {
	msg := fmt.Sprintf("BadJSONErr: JSON in file cannot be deserialized as expected.\nFilepath: %s\nOriginating Exception: %s",
		path, causeText(cause))
	return New(ErrCodeBadJSON, msg, cause).
		WithDetail("path", path).
		WithDetail("cause", causeText(cause))
}

// NoResultsError reports a results directory without any json files.
func NoResultsError(path string) *Error {
	msg := fmt.Sprintf("NoResultsErr: The results directory has no json files in it.\nFilepath: %s", path)
	return New(ErrCodeNoResults, msg, nil).
		WithDetail("path", path).
		WithSuggestion("Run 'benchgate measure' for both the baseline and dev branches first")
}

// OddResultsCountError reports an odd number of result files; every run
// needs one file per branch.
func OddResultsCountError(count int, path string) *Error {
	msg := fmt.Sprintf("OddResultsCountErr: The results directory has an odd number of results in it. Expected an even number.\nFile Count: %d\nFilepath: %s",
		count, path)
	return New(ErrCodeOddResultsCount, msg, nil).
		WithDetail("count", strconv.Itoa(count)).
		WithDetail("path", path)
}

// BadGroupSizeError reports a run partition that does not hold exactly two
// measurements.
func BadGroupSizeError(count int, group []GroupMember) *Error {
	rendered := renderGroup(group)
	msg := fmt.Sprintf("BadGroupSizeErr: Expected two results per group, one for each branch-project pair.\nCount: %d\nGroup: %s",
		count, rendered)
	return New(ErrCodeBadGroupSize, msg, nil).
		WithDetail("count", strconv.Itoa(count)).
		WithDetail("group", rendered)
}

// BadBranchNameError reports a pair whose version labels are not exactly
// baseline and dev. Names are given in sorted position order.
func BadBranchNameError(baseline, dev string) *Error {
	msg := fmt.Sprintf("BadBranchNameErr: Branch names must be 'baseline' and 'dev'.\nFound: %s, %s", baseline, dev)
	return New(ErrCodeBadBranchName, msg, nil).
		WithDetail("baseline", baseline).
		WithDetail("dev", dev)
}

// UnknownBranchError reports a measure branch that is neither baseline nor
// dev. Result files for it could never be paired.
func UnknownBranchError(branch string) *Error {
	msg := fmt.Sprintf("BadBranchNameErr: Branch names must be 'baseline' and 'dev'.\nFound: %s", branch)
	return New(ErrCodeBadBranchName, msg, nil).
		WithDetail("branch", branch)
}

// MalformedFilenameError reports a file name that does not split into a
// version and a run identifier.
func MalformedFilenameError(path string) *Error {
	msg := fmt.Sprintf("MalformedFilenameErr: Result filenames must look like <version>_<run>.json.\nFilepath: %s", path)
	return New(ErrCodeMalformedFilename, msg, nil).
		WithDetail("path", path)
}

// EmptyResultsError reports a measurement file whose results array is empty.
func EmptyResultsError(path string) *Error {
	msg := fmt.Sprintf("EmptyResultsErr: The measurement file contains no results.\nFilepath: %s", path)
	return New(ErrCodeEmptyResults, msg, nil).
		WithDetail("path", path)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first Error in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from the first Error in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}

func causeText(cause error) string {
	if cause == nil {
		return noCause
	}
	return cause.Error()
}

// renderGroup formats members as [("dev", "parse_proj"), ...].
func renderGroup(group []GroupMember) string {
	parts := make([]string, 0, len(group))
	for _, m := range group {
		parts = append(parts, fmt.Sprintf("(%q, %q)", m.Version, m.Run))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
