package regression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/measurement"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantVersion string
		wantRun     string
	}{
		{"simple", "results/baseline_parse_proj.json", "baseline", "parse_proj"},
		{"dev", "dev_parse_proj.json", "dev", "parse_proj"},
		{"run keeps underscores", "/tmp/r/dev_a_b_c_d.json", "dev", "a_b_c_d"},
		{"no project", "baseline_parse.json", "baseline", "parse"},
		{"empty run", "dev_.json", "dev", ""},
		{"other json extension", "dev_parse_x.ndjson", "dev", "parse_x"},
		{"dots inside stem", "dev_parse_proj.v2.json", "dev", "parse_proj.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, run, err := ParseFilename(tt.path)

			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantRun, run)
		})
	}
}

func TestParseFilename_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"no underscore", "results/baseline.json", bgerrors.ErrCodeMalformedFilename},
		{"root", "/", bgerrors.ErrCodeMissingFilename},
		{"dot", ".", bgerrors.ErrCodeMissingFilename},
		{"parent", "results/..", bgerrors.ErrCodeMissingFilename},
		{"invalid utf8", "results/dev_\xff\xfe.json", bgerrors.ErrCodeFilenameNotUnicode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFilename(tt.path)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, bgerrors.GetCode(err))
		})
	}
}

func inputsFor(paths ...string) []Input {
	inputs := make([]Input, 0, len(paths))
	for i, p := range paths {
		inputs = append(inputs, Input{
			Path:        p,
			Measurement: measurement.Measurement{Command: p, Median: float64(i + 1), Stddev: float64(i + 1)},
		})
	}
	return inputs
}

func TestGroupMeasurements_PairsByRun(t *testing.T) {
	// Given: two runs with files in scrambled order
	inputs := inputsFor(
		"r/dev_parse_b.json",
		"r/baseline_parse_a.json",
		"r/baseline_parse_b.json",
		"r/dev_parse_a.json",
	)

	// When: grouping
	pairs, err := GroupMeasurements(inputs)

	// Then: pairs come back ordered by run with the right sides
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "parse_a", pairs[0].Run)
	assert.Equal(t, "r/baseline_parse_a.json", pairs[0].Baseline.Command)
	assert.Equal(t, "r/dev_parse_a.json", pairs[0].Dev.Command)
	assert.Equal(t, "parse_b", pairs[1].Run)
	assert.Equal(t, "r/baseline_parse_b.json", pairs[1].Baseline.Command)
	assert.Equal(t, "r/dev_parse_b.json", pairs[1].Dev.Command)
}

func TestGroupMeasurements_OrderIndependent(t *testing.T) {
	paths := []string{
		"baseline_parse_a.json",
		"dev_parse_a.json",
		"baseline_parse_b.json",
		"dev_parse_b.json",
		"baseline_run_c.json",
		"dev_run_c.json",
	}
	want, err := GroupMeasurements(inputsFor(paths...))
	require.NoError(t, err)

	// rotate and reverse the input; the Command field tracks identity
	byCommand := func(pairs []Pair) [][2]string {
		out := make([][2]string, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, [2]string{p.Baseline.Command, p.Dev.Command})
		}
		return out
	}
	for shift := 1; shift < len(paths); shift++ {
		rotated := append(append([]string{}, paths[shift:]...), paths[:shift]...)
		got, err := GroupMeasurements(inputsFor(rotated...))
		require.NoError(t, err)
		assert.Equal(t, byCommand(want), byCommand(got))
	}

	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}
	got, err := GroupMeasurements(inputsFor(reversed...))
	require.NoError(t, err)
	assert.Equal(t, byCommand(want), byCommand(got))
}

func TestGroupMeasurements_BadGroupSize(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		wantCount string
	}{
		{"single", []string{"dev_parse_a.json", "baseline_parse_b.json", "dev_parse_b.json"}, "1"},
		{"triple", []string{"dev_parse_a.json", "baseline_parse_a.json", "dev_parse_a.ndjson"}, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GroupMeasurements(inputsFor(tt.paths...))

			require.Error(t, err)
			var bgErr *bgerrors.Error
			require.True(t, errors.As(err, &bgErr))
			assert.Equal(t, bgerrors.ErrCodeBadGroupSize, bgErr.Code)
			assert.Equal(t, tt.wantCount, bgErr.Details["count"])
		})
	}
}

func TestGroupMeasurements_BadBranchNames(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		wantFirst string
		wantNext  string
	}{
		{"dev twice", []string{"dev_parse_a.json", "dev_parse_a.ndjson"}, "dev", "dev"},
		{"baseline twice", []string{"baseline_parse_a.json", "baseline_parse_a.ndjson"}, "baseline", "baseline"},
		{"unknown label", []string{"main_parse_a.json", "dev_parse_a.json"}, "dev", "main"},
		{"case sensitive", []string{"Baseline_parse_a.json", "dev_parse_a.json"}, "Baseline", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GroupMeasurements(inputsFor(tt.paths...))

			require.Error(t, err)
			assert.True(t, errors.Is(err, bgerrors.Kind(bgerrors.ErrCodeBadBranchName)))
			var bgErr *bgerrors.Error
			require.True(t, errors.As(err, &bgErr))
			assert.Equal(t, tt.wantFirst, bgErr.Details["baseline"])
			assert.Equal(t, tt.wantNext, bgErr.Details["dev"])
		})
	}
}

func TestGroupMeasurements_MalformedFilenameAborts(t *testing.T) {
	_, err := GroupMeasurements(inputsFor("baseline_parse_a.json", "dev.json"))

	require.Error(t, err)
	assert.Equal(t, bgerrors.ErrCodeMalformedFilename, bgerrors.GetCode(err))
}

func TestGroupMeasurements_Empty(t *testing.T) {
	pairs, err := GroupMeasurements(nil)

	require.NoError(t, err)
	assert.Empty(t, pairs)
}
