package cmd

import (
	"surveyops/lib/bulkfile"

	"github.com/spf13/cobra"
)

var concatFlags struct {
	dir  string
	opts bulkfile.ConcatOptions
}

func init() {
	flags := concatCmd.Flags()
	flags.StringVar(&concatFlags.dir, "dir", ".", "directory holding the files")
	flags.StringVar(&concatFlags.opts.Pattern, "pattern", "*.txt", "glob selecting the files, ** matches nested directories")
	flags.StringSliceVar(&concatFlags.opts.Names, "names", nil, "explicit file names, overrides --pattern")
	flags.StringVar(&concatFlags.opts.Delim, "in-delim", "", "delimiter of the input files, config delim by default")
	flags.BoolVar(&concatFlags.opts.DropDuplicates, "drop-duplicates", false, "remove repeated rows")
	rootCmd.AddCommand(concatCmd)
}

var concatCmd = &cobra.Command{
	Use:   "concat",
	Short: "Stacks delimited files sharing a header into one, recording each row's source file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := concatFlags.opts
		if opts.Delim == "" {
			opts.Delim = delim()
		}

		reader := bulkfile.NewReader(tel)
		t, err := reader.Concat(cmd.Context(), concatFlags.dir, opts)
		if err != nil {
			return err
		}
		return emit(cmd, "concat", t)
	},
}
