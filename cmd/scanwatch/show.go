package main

import (
	"fmt"

	"github.com/obentoo/scanwatch/internal/common/output"
	"github.com/obentoo/scanwatch/internal/tracking"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved snapshot",
	Long: `Print the shipment record saved by the last successful run.

Examples:
  scanwatch show
  scanwatch show --snapshot /var/lib/scanwatch/state.json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := cfg.SnapshotPath()
	if err != nil {
		return err
	}

	record, err := tracking.NewStore(path).Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if record == nil {
		fmt.Fprintf(out, "No snapshot at %s\n", path)
		return nil
	}

	lines := make([]string, 0, len(record.Events))
	for i, e := range record.Events {
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, output.FormatEvent(e.Location, e.Details)))
	}
	if len(lines) == 0 {
		lines = append(lines, output.Sprintf(output.Dim, "no scans"))
	}
	output.Box(out, "Shipment "+record.WaybillID, lines...)
	return nil
}
