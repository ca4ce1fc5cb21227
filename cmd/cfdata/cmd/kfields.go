package cmd

import (
	"cmp"

	"surveyops/lib/bulkfile"
	"surveyops/lib/kfield"

	"github.com/spf13/cobra"
)

var kfieldFlags struct {
	q, e, a, k string
}

func init() {
	flags := kfieldRefsCmd.Flags()
	flags.StringVar(&kfieldFlags.q, "q", "", "q-field details file")
	flags.StringVar(&kfieldFlags.e, "e", "", "e-field details file")
	flags.StringVar(&kfieldFlags.a, "a", "", "a-field details file")
	flags.StringVar(&kfieldFlags.k, "k", "", "k-field details file")
	kfieldRefsCmd.MarkFlagRequired("a")
	rootCmd.AddCommand(kfieldRefsCmd)
}

var kfieldRefsCmd = &cobra.Command{
	Use:   "kfield-refs",
	Short: "Lists the fields each calculated field refers to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reader := bulkfile.NewReader(tel)

		q, err := reader.ReadQFields(ctx, cmp.Or(kfieldFlags.q, config.ExportSpec.QFields), delim())
		if err != nil {
			return err
		}
		e, err := reader.ReadEFields(ctx, cmp.Or(kfieldFlags.e, config.ExportSpec.EFields), delim())
		if err != nil {
			return err
		}
		a, err := reader.ReadAFields(ctx, kfieldFlags.a, delim())
		if err != nil {
			return err
		}
		k, err := reader.ReadKFields(ctx, cmp.Or(kfieldFlags.k, config.ExportSpec.KFields), delim())
		if err != nil {
			return err
		}

		return emit(cmd, "kfield_refs", kfield.ToTable(kfield.Parse(k, q, e, a)))
	},
}
