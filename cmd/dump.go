package cmd

import (
	"encoding/json"
	"fmt"

	"bclharness/pkg/diff"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dumpOutput string

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dumps a snapshot of the current target listing",
	Long: `The dump command prints the current target listing as a YAML snapshot.
With --output the snapshot is written to that file instead, ready to be
compared later with the diff command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)
		h, err := loadHarness(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		list, err := h.factory.All()
		if err != nil {
			return err
		}

		if dumpOutput != "" {
			if err := diff.WriteSnapshot(dumpOutput, list); err != nil {
				return err
			}
			logger.Info("Snapshot written", "path", dumpOutput, "targets", len(list))
			return nil
		}

		snapshot := diff.NewSnapshot(list)
		if jsonOutput {
			jsonData, err := json.MarshalIndent(snapshot.Targets, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling to JSON: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(jsonData))
			return nil
		}

		yamlData, err := yaml.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("error marshaling to YAML: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(yamlData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVar(&dumpOutput, "output", "", "Write the snapshot to this file instead of stdout")
	dumpCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the listing in JSON format")
}
