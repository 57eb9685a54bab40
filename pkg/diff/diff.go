// Package diff renders target listings, stores them as snapshots and
// compares two listings line by line.
package diff

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"bclharness/pkg/system"
	"bclharness/pkg/targets"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Line renders one target as a single listing line.
func Line(t *targets.Target) string {
	kind := string(t.Kind)
	if t.Flavor != "" {
		kind += ":" + string(t.Flavor)
	}

	var flags []string
	if t.GenerateVariations {
		flags = append(flags, "variations")
	}
	if t.SkipTvOSVariation {
		flags = append(flags, "skip-tvos")
	}
	if t.SkipWatchOSVariation {
		flags = append(flags, "skip-watchos")
	}
	if t.IsExecutableProject {
		flags = append(flags, "executable")
	}
	if t.Platform != "" {
		flags = append(flags, "platform="+t.Platform)
	}
	if len(flags) == 0 {
		flags = append(flags, "-")
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s", kind, t.Name, t.ProjectPath, strings.Join(flags, ","))
}

// Lines returns the sorted listing lines of list.
func Lines(list []targets.Target) []string {
	lines := make([]string, 0, len(list))
	for i := range list {
		lines = append(lines, Line(&list[i]))
	}
	sort.Strings(lines)
	return lines
}

// Listing returns the sorted, newline-terminated listing of list.
func Listing(list []targets.Target) string {
	return joinLines(Lines(list))
}

func joinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Snapshot is a stored target listing.
type Snapshot struct {
	Targets []string `yaml:"targets"`
}

// NewSnapshot captures the listing of list.
func NewSnapshot(list []targets.Target) *Snapshot {
	return &Snapshot{Targets: Lines(list)}
}

// Listing returns the snapshot as listing text.
func (s *Snapshot) Listing() string {
	return joinLines(s.Targets)
}

// WriteSnapshot stores the listing of list at path.
func WriteSnapshot(path string, list []targets.Target) error {
	data, err := yaml.Marshal(NewSnapshot(list))
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	if err := system.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := afero.ReadFile(system.AppFs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s does not exist", path)
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &s, nil
}

type Op string

const (
	OpEqual  Op = "equal"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Change is one line of a listing diff.
type Change struct {
	Op   Op     `json:"op"`
	Line string `json:"line"`
}

// Changes computes a line-level diff from before to after.
func Changes(before, after string) []Change {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var changes []Change
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			changes = append(changes, Change{Op: op, Line: strings.TrimSuffix(line, "\n")})
		}
	}
	return changes
}

// Render prints changes with "+ ", "- " and "  " prefixes.
func Render(changes []Change) string {
	var b strings.Builder
	for _, c := range changes {
		switch c.Op {
		case OpInsert:
			b.WriteString("+ ")
		case OpDelete:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(c.Line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Changed reports whether changes contains anything but equal lines.
func Changed(changes []Change) bool {
	for _, c := range changes {
		if c.Op != OpEqual {
			return true
		}
	}
	return false
}

// Compare renders the diff from before to after and reports whether they
// differ.
func Compare(before, after string) (string, bool) {
	changes := Changes(before, after)
	return Render(changes), Changed(changes)
}
