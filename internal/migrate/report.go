package migrate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Reporter writes the per-stage result artifacts. It is the only place the
// pipeline touches the filesystem for output, so the matching logic stays
// free of file I/O.
type Reporter struct {
	Dir string
}

func NewReporter(dir string) *Reporter {
	if dir == "" {
		dir = "."
	}
	return &Reporter{Dir: dir}
}

// WriteJSON writes an indented JSON artifact and returns its path.
func (r *Reporter) WriteJSON(name string, v any) (string, error) {
	path := filepath.Join(r.Dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// WriteCSV writes a comma-separated artifact with a header row.
func (r *Reporter) WriteCSV(name string, headers []string, rows [][]string) (string, error) {
	path := filepath.Join(r.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	return path, nil
}
