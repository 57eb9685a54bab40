package cmd

import (
	"encoding/json"
	"fmt"

	"bclharness/pkg/diff"

	"github.com/spf13/cobra"
)

var diffSnapshot string

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Shows how the target listing changed since a snapshot",
	Long: `The diff command compares the current target listing with a snapshot
written by "dump --output" and shows added and removed targets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHarness(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		snapshot, err := diff.ReadSnapshot(diffSnapshot)
		if err != nil {
			return err
		}
		list, err := h.factory.All()
		if err != nil {
			return err
		}

		changes := diff.Changes(snapshot.Listing(), diff.Listing(list))
		changed := diff.Changed(changes)

		if jsonOutput {
			out := diffForJSON{Snapshot: diffSnapshot, Changed: changed, Changes: changes}
			if out.Changes == nil {
				out.Changes = []diff.Change{}
			}
			jsonBytes, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal diff to JSON: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(jsonBytes))
			return nil
		}

		if !changed {
			fmt.Fprintf(cmd.OutOrStdout(), "No changes since %s\n", diffSnapshot)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Changes since %s:\n", diffSnapshot)
		fmt.Fprint(cmd.OutOrStdout(), diff.Render(changes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&diffSnapshot, "snapshot", "", "Snapshot file written by dump --output")
	_ = diffCmd.MarkFlagRequired("snapshot")
	diffCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the diff in JSON format")
}
