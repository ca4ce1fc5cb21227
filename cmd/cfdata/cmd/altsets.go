package cmd

import (
	"cmp"

	"surveyops/lib/altset"
	"surveyops/lib/bulkfile"

	"github.com/spf13/cobra"
)

var altSetFlags struct {
	path    string
	columns altset.Columns
}

func init() {
	flags := altSetsCmd.Flags()
	flags.StringVar(&altSetFlags.path, "alt", "", "alternative sets file")
	flags.StringVar(&altSetFlags.columns.Name, "name-column", "", "column holding the set name")
	flags.StringVar(&altSetFlags.columns.Number, "number-column", "", "column holding the set number")
	flags.StringVar(&altSetFlags.columns.Label, "label-column", "", "column holding the alternative label")
	flags.StringVar(&altSetFlags.columns.Value, "value-column", "", "column holding the exported value")
	rootCmd.AddCommand(altSetsCmd)
}

var altSetsCmd = &cobra.Command{
	Use:   "alt-sets",
	Short: "Collapses the alternative database into one row per alternative set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		columns := altset.Columns{
			Name:   cmp.Or(altSetFlags.columns.Name, config.AltSetColumns.Name),
			Number: cmp.Or(altSetFlags.columns.Number, config.AltSetColumns.Number),
			Label:  cmp.Or(altSetFlags.columns.Label, config.AltSetColumns.Label),
			Value:  cmp.Or(altSetFlags.columns.Value, config.AltSetColumns.Value),
		}

		reader := bulkfile.NewReader(tel)
		alts, err := reader.ReadAltSets(cmd.Context(), cmp.Or(altSetFlags.path, config.ExportSpec.AltSets), delim())
		if err != nil {
			return err
		}
		sets, err := altset.Organize(alts, columns)
		if err != nil {
			tel.ReportBroken("altset: organize", err)
			return err
		}
		return emit(cmd, "alt_sets", altset.ToTable(sets))
	},
}
