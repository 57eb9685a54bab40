package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	targetsKind   string
	targetsFlavor string
)

// targetsCmd represents the targets command
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Lists the harness targets built from the generated test projects",
	Long: `The targets command reads the generator manifest and prints one harness
target per generated test project, with its variation flags and the
dependency step that must succeed before the target runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHarness(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		list, err := selectTargets(h.factory, targetsKind, targetsFlavor)
		if err != nil {
			return err
		}

		if jsonOutput {
			targetsForJSON := []targetForJSON{}
			for i := range list {
				targetsForJSON = append(targetsForJSON, newTargetForJSON(&list[i]))
			}
			jsonBytes, err := json.MarshalIndent(targetsForJSON, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal targets to JSON: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(jsonBytes))
			return nil
		}

		for _, t := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "=> %s\n", t.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "   - project: %s\n", t.ProjectPath)
			if t.Flavor != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "   - flavor: %s\n", t.Flavor)
			}
			if t.SkipTvOSVariation {
				fmt.Fprintln(cmd.OutOrStdout(), "   - skip tvOS variation")
			}
			if t.SkipWatchOSVariation {
				fmt.Fprintln(cmd.OutOrStdout(), "   - skip watchOS variation")
			}
			if t.FailureMessage != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "   - failure message: %s\n", t.FailureMessage)
			}
			if t.Dependency != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "   - dependency: %s\n", t.Dependency.Description())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
	targetsCmd.Flags().StringVar(&targetsKind, "kind", "all", "Target kind to list (ios, mac, all)")
	targetsCmd.Flags().StringVar(&targetsFlavor, "flavor", "", "Mac flavor to list (full, modern); requires --kind mac")
	targetsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the targets in JSON format")
}
