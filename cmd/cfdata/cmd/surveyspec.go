package cmd

import (
	"cmp"

	"surveyops/lib/surveyxml"
	"surveyops/services/exportspec"

	"github.com/spf13/cobra"
)

var surveySpecFlags struct {
	xml     string
	qfields string
}

func init() {
	surveySpecCmd.Flags().StringVar(&surveySpecFlags.xml, "xml", "", "survey definition XML")
	surveySpecCmd.Flags().StringVar(&surveySpecFlags.qfields, "q", "", "q-field details file")
	rootCmd.AddCommand(surveySpecCmd)
}

var surveySpecCmd = &cobra.Command{
	Use:   "survey-spec",
	Short: "Lists every element of the survey definition with its page, group and question text.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service := exportspec.NewService(tel, exportspec.Options{AltSetColumns: config.AltSetColumns})
		nodes, err := service.SurveySpec(
			cmd.Context(),
			cmp.Or(surveySpecFlags.xml, config.ExportSpec.SurveyXML),
			cmp.Or(surveySpecFlags.qfields, config.ExportSpec.QFields),
			delim(),
		)
		if err != nil {
			return err
		}
		return emit(cmd, "survey_spec", surveyxml.ToTable(nodes))
	},
}
