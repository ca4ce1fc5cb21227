package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

func delimiterRune(delim string) (rune, error) {
	if delim == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(delim)
	if size != len(delim) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	return r, nil
}

// ReadCSV reads a delimited file whose first row is the header.
func ReadCSV(r io.Reader, delim string) (Table, error) {
	comma, err := delimiterRune(delim)
	if err != nil {
		return Table{}, err
	}
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

func ReadCSVFile(path, delim string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	return ReadCSV(f, delim)
}

func WriteCSV(w io.Writer, t Table, delim string) error {
	comma, err := delimiterRune(delim)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.Comma = comma
	err = writer.Write(t.Header)
	if err != nil {
		return err
	}
	err = writer.WriteAll(t.Rows)
	if err != nil {
		return err
	}
	return writer.Error()
}

func WriteCSVFile(path string, t Table, delim string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteCSV(f, t, delim)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
