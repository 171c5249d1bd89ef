package configuration

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// TransformationsFromCSV reads a transformation sheet. The first row holds column names, every
// other row becomes one document keyed by those names. Empty cells are left out of the document.
func TransformationsFromCSV(fs afero.Fs, path string) ([]map[string]interface{}, error) {
	fh, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open transformation sheet")
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrInvalidFile, "%v: %v", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var rows []map[string]interface{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFile, "%v: %v", path, err)
		}

		row := make(map[string]interface{}, len(header))
		for i, name := range header {
			if i < len(record) && record[i] != "" {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
