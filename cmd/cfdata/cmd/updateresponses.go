package cmd

import (
	"bufio"
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"surveyops/lib/table"
	"surveyops/services/responseupdate"

	"github.com/spf13/cobra"
)

var updateFlags struct {
	input      string
	dataCenter string
	tokenEnv   string
	reportDir  string
	dumpDir    string
	report     bool
	confirm    bool
}

func init() {
	flags := updateResponsesCmd.Flags()
	flags.StringVar(&updateFlags.input, "input", "", "CSV with SurveyId, ResponseId and the embedded data columns")
	flags.StringVar(&updateFlags.dataCenter, "data-center", "", "API data center, ex. az1")
	flags.StringVar(&updateFlags.tokenEnv, "token-env", "", "environment variable holding the API token")
	flags.StringVar(&updateFlags.reportDir, "report-dir", "", "directory of the processing report, the working directory by default")
	flags.StringVar(&updateFlags.dumpDir, "dump-dir", "", "write every HTTP exchange into this directory")
	flags.BoolVar(&updateFlags.report, "report", true, "write the processing report")
	flags.BoolVar(&updateFlags.confirm, "confirm", false, "list the rows per survey and ask before updating")
	updateResponsesCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(updateResponsesCmd)
}

func confirmed(cmd *cobra.Command, batches []responseupdate.Batch) (bool, error) {
	table.Render(cmd.OutOrStdout(), responseupdate.Summary(batches), 0)
	fmt.Fprint(cmd.OutOrStdout(), "Proceed with the update? [y/N] ")

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

var updateResponsesCmd = &cobra.Command{
	Use:   "update-responses",
	Short: "Sets embedded data on survey responses listed in a CSV, one request per row.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.UpdateResponses
		if !cmd.Flags().Changed("report") {
			updateFlags.report = cfg.Report
		}

		input, err := table.ReadCSVFile(updateFlags.input, ",")
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		batches, err := responseupdate.Plan(input)
		if err != nil {
			return err
		}

		if updateFlags.confirm {
			ok, err := confirmed(cmd, batches)
			if err != nil {
				return err
			}
			if !ok {
				slog.Info("update cancelled")
				return nil
			}
		}

		tokenEnv := cmp.Or(updateFlags.tokenEnv, cfg.TokenEnv)
		token, ok := os.LookupEnv(tokenEnv)
		if !ok {
			return fmt.Errorf("environment variable %s holding the API token is not set", tokenEnv)
		}

		service, err := responseupdate.NewService(tel, responseupdate.Options{
			DataCenter:      cmp.Or(updateFlags.dataCenter, cfg.DataCenter),
			Token:           token,
			ExcludedColumns: cfg.ExcludedColumns,
			DumpDir:         cmp.Or(updateFlags.dumpDir, cfg.DumpDir),
		})
		if err != nil {
			return err
		}

		report, runErr := service.Run(cmd.Context(), input)
		if updateFlags.report && len(report.Header) > 0 {
			path := responseupdate.ReportPath(cmp.Or(updateFlags.reportDir, cfg.ReportDir))
			err := table.WriteCSVFile(path, report, ",")
			if err != nil {
				return err
			}
			slog.Info("wrote processing report", "path", path)
		}
		if runErr != nil {
			return runErr
		}
		if preview > 0 {
			table.Render(cmd.OutOrStdout(), report, preview)
		}
		return nil
	},
}
