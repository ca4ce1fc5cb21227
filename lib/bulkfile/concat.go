package bulkfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"surveyops/lib/table"

	"github.com/bmatcuk/doublestar/v4"
)

const ColumnSourceFile = "source_file"

type ConcatOptions struct {
	// Pattern selects files inside the directory, ex. `*.txt`.
	// Ignored when Names is set.
	Pattern string
	Names   []string
	Delim   string
	// DropDuplicates removes repeated rows, the source_file column included.
	DropDuplicates bool
}

// Concat stacks every delimited file of `dir` into one table with an added
// source_file column. All files must share the first file's header.
func (r Reader) Concat(ctx context.Context, dir string, opts ConcatOptions) (table.Table, error) {
	const id = "concat"
	ctx, span := r.startSpan(ctx, id, dir)
	defer span.End()

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return table.Table{}, r.fail(span, id, dir, fmt.Errorf("%w: %s", ErrNotExist, dir))
	}

	names := opts.Names
	if len(names) == 0 {
		pattern := opts.Pattern
		if pattern == "" {
			pattern = "*"
		}
		names, err = doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return table.Table{}, r.fail(span, id, dir, err)
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		return table.Table{}, r.fail(span, id, dir, fmt.Errorf("%w: no files match '%s'", ErrEmpty, opts.Pattern))
	}

	var out table.Table
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return table.Table{}, err
		}

		f, err := openLatin1(filepath.Join(dir, name))
		if err != nil {
			return table.Table{}, r.fail(span, id, name, err)
		}
		t, err := table.ReadCSV(f, opts.Delim)
		f.Close()
		if err != nil {
			return table.Table{}, r.fail(span, id, name, err)
		}

		if out.Header == nil {
			out.Header = append(slices.Clone(t.Header), ColumnSourceFile)
		} else if !slices.Equal(out.Header[:len(out.Header)-1], t.Header) {
			err = fmt.Errorf("header of %s does not match %s", name, names[0])
			return table.Table{}, r.fail(span, id, name, err)
		}
		for _, row := range t.Rows {
			shaped, err := shapeRow(row, len(t.Header))
			if err != nil {
				return table.Table{}, r.fail(span, id, name, err)
			}
			out.Append(append(shaped, name)...)
		}
	}

	if opts.DropDuplicates {
		out = out.Dedupe()
	}
	r.tel.ReportCount(id, int64(out.Len()))
	return out, nil
}
