package export

import (
	"encoding/json"
	"io"
	"os"

	coreexport "github.com/kilianp07/pfexport/core/export"
)

// WriteJSON writes the run report to w as indented JSON.
func WriteJSON(w io.Writer, r coreexport.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteReportFile writes the run report to path.
func WriteReportFile(path string, r coreexport.Report) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, r) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
