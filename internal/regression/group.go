package regression

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/measurement"
)

// Input is one measurement together with the file it came from.
type Input struct {
	Path        string
	Measurement measurement.Measurement
}

// Group is a measurement labelled with the version and run parsed from its
// file name. Version keeps the raw label for diagnostics.
type Group struct {
	Version     string
	Run         string
	Measurement measurement.Measurement
}

// Pair is a validated baseline/dev pair for one run.
type Pair struct {
	Run      string
	Baseline measurement.Measurement
	Dev      measurement.Measurement
}

// ParseFilename splits a result file path into its version label and run
// identifier: "results/baseline_parse_proj.json" -> ("baseline", "parse_proj").
func ParseFilename(path string) (version, run string, err error) {
	name, err := fileName(path)
	if err != nil {
		return "", "", err
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return "", "", bgerrors.MalformedFilenameError(path)
	}
	return parts[0], strings.Join(parts[1:], "_"), nil
}

// fileName returns the final element of path, rejecting paths that name no
// file and names that are not valid UTF-8.
func fileName(path string) (string, error) {
	name := filepath.Base(path)
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", bgerrors.MissingFilenameError(path)
	}
	if !utf8.ValidString(name) {
		return "", bgerrors.FilenameNotUnicodeError(path)
	}
	return name, nil
}

// GroupMeasurements pairs baseline and dev measurements by run.
//
// Every run must have exactly one baseline and one dev measurement. The
// first violation aborts grouping. Pairs are returned ordered by run.
func GroupMeasurements(inputs []Input) ([]Pair, error) {
	groups := make([]Group, 0, len(inputs))
	for _, in := range inputs {
		version, run, err := ParseFilename(in.Path)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Version: version, Run: run, Measurement: in.Measurement})
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := strings.Compare(a.Run, b.Run); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})

	var pairs []Pair
	for start := 0; start < len(groups); {
		end := start + 1
		for end < len(groups) && groups[end].Run == groups[start].Run {
			end++
		}

		pair, err := pairGroups(groups[start:end])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
		start = end
	}
	return pairs, nil
}

// pairGroups validates one run partition. The partition is already sorted
// by version, so a valid one reads baseline, dev.
func pairGroups(partition []Group) (Pair, error) {
	if len(partition) != 2 {
		members := make([]bgerrors.GroupMember, 0, len(partition))
		for _, g := range partition {
			members = append(members, bgerrors.GroupMember{Version: g.Version, Run: g.Run})
		}
		return Pair{}, bgerrors.BadGroupSizeError(len(partition), members)
	}

	first, second := partition[0], partition[1]
	v0, ok0 := ParseVersion(first.Version)
	v1, ok1 := ParseVersion(second.Version)
	if !ok0 || !ok1 || v0 != Baseline || v1 != Dev {
		return Pair{}, bgerrors.BadBranchNameError(first.Version, second.Version)
	}

	return Pair{
		Run:      first.Run,
		Baseline: first.Measurement,
		Dev:      second.Measurement,
	}, nil
}
