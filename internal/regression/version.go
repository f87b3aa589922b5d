package regression

// Version is the branch a measurement was taken on.
type Version int

const (
	// Baseline is the reference branch.
	Baseline Version = iota + 1
	// Dev is the branch under test.
	Dev
)

// String returns the filename label for v.
func (v Version) String() string {
	switch v {
	case Baseline:
		return "baseline"
	case Dev:
		return "dev"
	default:
		return "unknown"
	}
}

// ParseVersion parses a filename label. Labels are case-sensitive.
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "baseline":
		return Baseline, true
	case "dev":
		return Dev, true
	default:
		return 0, false
	}
}
