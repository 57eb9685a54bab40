package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"bclharness/pkg/batch"
	"bclharness/pkg/diff"
	"bclharness/pkg/model"
	"bclharness/pkg/targets"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dryRun          bool
	prepareKind     string
	prepareFlavor   string
	preparePolicy   string
	prepareParallel int
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Runs the dependency steps of the harness targets",
	Long: `The prepare command runs the dependency step of every selected target:
a NuGet restore of the project and, for macOS targets, the BCL tests build
that precedes it. Each command runs under its configured timeout. A timed
out command is reported in the harness log.

The batch policy decides what a failure means for the other targets:
"target" fails only the affected target, "batch" cancels the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)
		h, err := loadHarness(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		list, err := selectTargets(h.factory, prepareKind, prepareFlavor)
		if err != nil {
			return err
		}
		if err := diff.ValidateTargets(list); err != nil {
			return err
		}

		if dryRun {
			return printPreparePlan(cmd.OutOrStdout(), list)
		}

		preparer := batch.FromConfig(h.cfg.Batch, logger)
		if cmd.Flags().Changed("policy") {
			policy, err := model.ParseFailurePolicy(preparePolicy)
			if err != nil {
				return err
			}
			preparer.Policy = policy
		}
		if cmd.Flags().Changed("parallel") {
			if prepareParallel < 1 {
				return fmt.Errorf("--parallel must be at least 1")
			}
			preparer.MaxParallel = prepareParallel
		}

		report := preparer.Prepare(cmd.Context(), list)

		if jsonOutput {
			jsonBytes, err := json.MarshalIndent(newReportForJSON(report), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report to JSON: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(jsonBytes))
		} else {
			printReport(cmd.OutOrStdout(), report)
		}

		if !report.OK() {
			return fmt.Errorf("%d of %d targets were not prepared", len(report.Results)-report.Prepared(), len(report.Results))
		}
		return nil
	},
}

func printPreparePlan(out io.Writer, list []targets.Target) error {
	if jsonOutput {
		targetsForJSON := []targetForJSON{}
		for i := range list {
			targetsForJSON = append(targetsForJSON, newTargetForJSON(&list[i]))
		}
		jsonBytes, err := json.MarshalIndent(targetsForJSON, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan to JSON: %w", err)
		}
		fmt.Fprint(out, string(jsonBytes))
		return nil
	}

	fmt.Fprintln(out, "Dry run enabled. The following operations would be performed:")
	for _, t := range list {
		fmt.Fprintf(out, "=> %s: %s\n", t.Name, t.Dependency.Description())
		for _, detail := range t.Dependency.ExecutionDetails() {
			fmt.Fprintf(out, "   - %s\n", detail)
		}
	}
	return nil
}

func printReport(out io.Writer, report *batch.Report) {
	for _, res := range report.Results {
		fmt.Fprintf(out, "%s %s\n", statusLabel(res.Status), res.Target.Name)
		if res.Err != nil {
			fmt.Fprintf(out, "   - %v\n", res.Err)
		}
	}
	fmt.Fprintf(out, "\n%d prepared, %d failed, %d skipped (run %s)\n",
		report.Prepared(), report.Failed(), report.Skipped(), report.RunID)
}

func statusLabel(s batch.Status) string {
	attr := color.FgGreen
	switch s {
	case batch.StatusFailed:
		attr = color.FgRed
	case batch.StatusSkipped:
		attr = color.FgYellow
	}
	return color.New(attr).Sprintf("[%s]", s)
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the commands that would run without executing them")
	prepareCmd.Flags().StringVar(&prepareKind, "kind", "all", "Target kind to prepare (ios, mac, all)")
	prepareCmd.Flags().StringVar(&prepareFlavor, "flavor", "", "Mac flavor to prepare (full, modern); requires --kind mac")
	prepareCmd.Flags().StringVar(&preparePolicy, "policy", "", "Failure policy (target, batch); overrides batch.policy")
	prepareCmd.Flags().IntVar(&prepareParallel, "parallel", 0, "Maximum targets prepared at once; overrides batch.max-parallel")
	prepareCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the plan or report in JSON format")
}
