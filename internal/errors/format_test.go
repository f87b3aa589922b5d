package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesFullMessageAndCode(t *testing.T) {
	// Given: an odd results count error
	err := OddResultsCountError(3, "results/")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: every line of the message survives
	assert.Contains(t, result, "OddResultsCountErr")
	assert.Contains(t, result, "File Count: 3")
	assert.Contains(t, result, "Filepath: results/")
	assert.Contains(t, result, "Code: ERR_403_ODD_RESULTS_COUNT")
}

func TestFormatForCLI_WithSuggestion(t *testing.T) {
	err := NoResultsError("results/")

	result := FormatForCLI(err)

	assert.Contains(t, result, "Hint: Run 'benchgate measure'")
}

func TestFormatForCLI_UnwrapsChain(t *testing.T) {
	// Given: a structured error wrapped with fmt
	err := fmt.Errorf("calculate: %w", BadBranchNameError("dev", "dev"))

	// When: formatting
	result := FormatForCLI(err)

	// Then: the structured message is used
	assert.Contains(t, result, "Found: dev, dev")
	assert.Contains(t, result, ErrCodeBadBranchName)
}

func TestFormatForCLI_StandardError(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"))

	assert.True(t, strings.HasPrefix(result, "Error: something went wrong"))
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_ContainsAllFields(t *testing.T) {
	// Given: a bad json error with a cause
	err := BadJSONError("results/dev_parse_a.json", errors.New("unexpected end of JSON input"))

	// When: formatting as JSON
	data, ferr := FormatJSON(err)
	require.NoError(t, ferr)

	// Then: it decodes with every field populated
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeBadJSON, decoded["code"])
	assert.Equal(t, "VALIDATION", decoded["category"])
	assert.Equal(t, "ERROR", decoded["severity"])
	assert.Equal(t, "unexpected end of JSON input", decoded["cause"])

	details, ok := decoded["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "results/dev_parse_a.json", details["path"])
}

func TestFormatJSON_Nil(t *testing.T) {
	data, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFormatForLog_SortedDetails(t *testing.T) {
	err := BadBranchNameError("boop", "noop")

	attrs := FormatForLog(err)

	assert.Equal(t, []any{
		"error_code", ErrCodeBadBranchName,
		"category", "VALIDATION",
		"severity", "ERROR",
		"detail_baseline", "boop",
		"detail_dev", "noop",
	}, attrs)
}

func TestFormatForLog_StandardError(t *testing.T) {
	attrs := FormatForLog(errors.New("plain"))
	assert.Equal(t, []any{"error", "plain"}, attrs)
	assert.Nil(t, FormatForLog(nil))
}
