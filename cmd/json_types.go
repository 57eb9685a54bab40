package cmd

import (
	"bclharness/pkg/batch"
	"bclharness/pkg/diff"
	"bclharness/pkg/targets"
)

// targetForJSON is a struct used for marshaling a target to JSON for machine-readable output.
type targetForJSON struct {
	Name                 string   `json:"name"`
	Kind                 string   `json:"kind"`
	Flavor               string   `json:"flavor,omitempty"`
	ProjectPath          string   `json:"project_path"`
	Platform             string   `json:"platform,omitempty"`
	IsExecutableProject  bool     `json:"is_executable_project"`
	GenerateVariations   bool     `json:"generate_variations"`
	SkipTvOSVariation    bool     `json:"skip_tvos_variation"`
	SkipWatchOSVariation bool     `json:"skip_watchos_variation"`
	FailureMessage       string   `json:"failure_message,omitempty"`
	Dependency           string   `json:"dependency,omitempty"`
	Details              []string `json:"details,omitempty"`
}

func newTargetForJSON(t *targets.Target) targetForJSON {
	out := targetForJSON{
		Name:                 t.Name,
		Kind:                 string(t.Kind),
		Flavor:               string(t.Flavor),
		ProjectPath:          t.ProjectPath,
		Platform:             t.Platform,
		IsExecutableProject:  t.IsExecutableProject,
		GenerateVariations:   t.GenerateVariations,
		SkipTvOSVariation:    t.SkipTvOSVariation,
		SkipWatchOSVariation: t.SkipWatchOSVariation,
		FailureMessage:       t.FailureMessage,
	}
	if t.Dependency != nil {
		out.Dependency = t.Dependency.Description()
		out.Details = t.Dependency.ExecutionDetails()
	}
	return out
}

// resultForJSON is one entry of a prepare report.
type resultForJSON struct {
	Target     string  `json:"target"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

// reportForJSON is a prepare report for machine-readable output.
type reportForJSON struct {
	RunID    string          `json:"run_id"`
	Prepared int             `json:"prepared"`
	Failed   int             `json:"failed"`
	Skipped  int             `json:"skipped"`
	Results  []resultForJSON `json:"results"`
}

func newReportForJSON(r *batch.Report) reportForJSON {
	out := reportForJSON{
		RunID:    r.RunID,
		Prepared: r.Prepared(),
		Failed:   r.Failed(),
		Skipped:  r.Skipped(),
		Results:  []resultForJSON{},
	}
	for _, res := range r.Results {
		entry := resultForJSON{
			Target:     res.Target.Name,
			Status:     string(res.Status),
			DurationMs: float64(res.Duration.Microseconds()) / 1000,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		out.Results = append(out.Results, entry)
	}
	return out
}

// diffForJSON is the result of comparing a snapshot with the current listing.
type diffForJSON struct {
	Snapshot string        `json:"snapshot"`
	Changed  bool          `json:"changed"`
	Changes  []diff.Change `json:"changes"`
}
