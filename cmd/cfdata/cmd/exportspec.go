package cmd

import (
	"surveyops/services/exportspec"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
)

var exportSpecInputs exportspec.Inputs

func init() {
	flags := exportSpecCmd.Flags()
	flags.StringVar(&exportSpecInputs.QFields, "q", "", "q-field details file")
	flags.StringVar(&exportSpecInputs.EFields, "e", "", "e-field details file")
	flags.StringVar(&exportSpecInputs.KFields, "k", "", "k-field details file")
	flags.StringVar(&exportSpecInputs.AltSets, "alt", "", "alternative sets file")
	flags.StringVar(&exportSpecInputs.Exports, "exports", "", "export details file")
	flags.StringVar(&exportSpecInputs.SurveyXML, "xml", "", "survey definition XML")
	flags.StringVar(&exportSpecInputs.ExportName, "export-name", "", "name of the export to describe")
	rootCmd.AddCommand(exportSpecCmd)
}

var exportSpecCmd = &cobra.Command{
	Use:   "export-spec",
	Short: "Builds the export specification of one export. Flags override the export_spec config block.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := exportSpecInputs
		err := mergo.Merge(&in, config.ExportSpec)
		if err != nil {
			return err
		}
		if in.Delim == "" {
			in.Delim = delim()
		}

		service := exportspec.NewService(tel, exportspec.Options{AltSetColumns: config.AltSetColumns})
		rows, err := service.Assemble(cmd.Context(), in)
		if err != nil {
			return err
		}
		return emit(cmd, "export_spec", exportspec.ToTable(rows))
	},
}
