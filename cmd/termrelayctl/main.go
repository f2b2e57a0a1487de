package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termrelay/termrelay/internal/journal"
	"github.com/termrelay/termrelay/internal/model"
	"github.com/termrelay/termrelay/internal/relay"
)

var (
	apiFlag      string
	idFlag       string
	startFlag    string
	endFlag      string
	outputFlag   string
	descFlag     string
	commentFlag  string
	srcHostFlag  string
	destHostFlag string
	operatorFlag string
	remoteIDFlag int64

	rootCmd = &cobra.Command{
		Use:   "termrelayctl",
		Short: "CLI client for the termrelay daemon",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://127.0.0.1:8000", "termrelay daemon base URL")

	// start subcommand
	startCmd := &cobra.Command{
		Use:   "start [flags] \"command\"",
		Short: "Submit a command-started event (pre-exec hook)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := relay.CreateRequest{
				ID:         idFlag,
				Command:    args[0],
				SourceHost: srcHostFlag,
				DestHost:   destHostFlag,
				Operator:   operatorFlag,
				Comments:   commentFlag,
			}
			var err error
			if req.StartTime, err = parseTime(startFlag); err != nil {
				return err
			}
			return submitStart(apiFlag, req, os.Stdout)
		},
	}
	startCmd.Flags().StringVarP(&idFlag, "uuid", "u", "", "Correlation identifier for the command")
	startCmd.Flags().StringVarP(&startFlag, "start-time", "s", "", "Timestamp when the command was executed")
	addEntryFlags(startCmd)
	rootCmd.AddCommand(startCmd)

	// finish subcommand
	finishCmd := &cobra.Command{
		Use:   "finish [flags] [\"command\"]",
		Short: "Submit a command-finished event, or update a known upstream record with --gw-id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := relay.UpdateRequest{
				ID:          idFlag,
				Output:      outputFlag,
				Description: descFlag,
				SourceHost:  srcHostFlag,
				DestHost:    destHostFlag,
				Operator:    operatorFlag,
				Comments:    commentFlag,
				RemoteID:    remoteIDFlag,
			}
			if len(args) == 1 {
				req.Command = args[0]
			}
			if req.ID == "" && req.RemoteID == 0 {
				return fmt.Errorf("either --uuid or --gw-id is required")
			}
			var err error
			if req.EndTime, err = parseTime(endFlag); err != nil {
				return err
			}
			return submitFinish(apiFlag, req, os.Stdout)
		},
	}
	finishCmd.Flags().StringVarP(&idFlag, "uuid", "u", "", "Correlation identifier for the command")
	finishCmd.Flags().StringVarP(&endFlag, "end-time", "e", "", "Timestamp when the command finished executing")
	finishCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "The output of the command")
	finishCmd.Flags().Int64VarP(&remoteIDFlag, "gw-id", "i", 0, "Upstream ID of a log entry to update out-of-band")
	finishCmd.Flags().StringVarP(&descFlag, "description", "d", "", "Description of the command")
	addEntryFlags(finishCmd)
	rootCmd.AddCommand(finishCmd)

	// export subcommand
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export journaled records to an upstream-compatible CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logDir, _ := cmd.Flags().GetString("log-dir")
			outDir, _ := cmd.Flags().GetString("output-dir")
			path, err := journal.ExportCSV(logDir, outDir)
			if err != nil {
				return err
			}
			fmt.Printf("[+] Successfully exported logs to: %s\n", path)
			return nil
		},
	}
	exportCmd.Flags().StringP("log-dir", "l", "", "Directory containing termrelay journal files (required)")
	exportCmd.Flags().StringP("output-dir", "o", ".", "Directory where the CSV export will be written")
	_ = exportCmd.MarkFlagRequired("log-dir")
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addEntryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&srcHostFlag, "src-host", "", "The host where the command execution originates")
	cmd.Flags().StringVar(&destHostFlag, "dest-host", "", "The host the command targets")
	cmd.Flags().StringVar(&operatorFlag, "operator", "", "The operator who ran the command")
	cmd.Flags().StringVarP(&commentFlag, "comment", "c", "", "Additional information about the command")
}

func parseTime(s string) (model.Timestamp, error) {
	if s == "" {
		return model.Timestamp{}, nil
	}
	return model.ParseTimestamp(s)
}
