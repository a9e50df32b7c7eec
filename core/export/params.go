package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilianp07/pfexport/core/host"
)

// Script parameter names of a host-triggered run.
const (
	ParamName     = "name"
	ParamPath     = "path"
	ParamRefName  = "refName"
	ParamRefScale = "refScale"
)

// ErrInvalidParams is returned when required export parameters are missing.
var ErrInvalidParams = errors.New("invalid export parameters")

// Params selects where results go and how the reference signal is treated.
type Params struct {
	// Name prefixes every output file, usually the test case name.
	Name string `json:"name"`
	// Path is the output directory as seen by the host.
	Path string `json:"path"`
	// RefName is the column name given to the reference signal.
	RefName string `json:"ref_name"`
	// RefScale divides the reference signal values.
	RefScale float64 `json:"ref_scale"`
}

// Validate checks the parameters needed to export.
func (p Params) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParams)
	}
	if p.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidParams)
	}
	return nil
}

// PlotFile returns the image path for a plot page.
func (p Params) PlotFile(page string) string {
	return hostJoin(p.Path, fmt.Sprintf("%s_%s.png", p.Name, page))
}

// ResultFile returns the CSV path.
func (p Params) ResultFile() string {
	return hostJoin(p.Path, p.Name+".csv")
}

// SideFile returns a path next to the result file with another extension.
func (p Params) SideFile(ext string) string {
	return hostJoin(p.Path, p.Name+ext)
}

// hostJoin joins dir and file with the separator of the host that owns dir.
// A drive letter or a backslash marks a Windows host path; anything else uses
// the local separator.
func hostJoin(dir, file string) string {
	if !isWindowsPath(dir) {
		return filepath.Join(dir, file)
	}
	return strings.TrimRight(dir, `\/`) + `\` + file
}

func isWindowsPath(dir string) bool {
	if strings.Contains(dir, `\`) {
		return true
	}
	return len(dir) >= 2 && dir[1] == ':' &&
		(dir[0] >= 'a' && dir[0] <= 'z' || dir[0] >= 'A' && dir[0] <= 'Z')
}

// ParamsFromScript reads the run parameters from the input parameters of
// the host script that triggered the run.
func ParamsFromScript(s host.Script) (Params, error) {
	var p Params
	var err error
	if p.Name, err = s.StringParam(ParamName); err != nil {
		return Params{}, fmt.Errorf("script parameter %s: %w", ParamName, err)
	}
	if p.Path, err = s.StringParam(ParamPath); err != nil {
		return Params{}, fmt.Errorf("script parameter %s: %w", ParamPath, err)
	}
	if p.RefName, err = s.StringParam(ParamRefName); err != nil {
		return Params{}, fmt.Errorf("script parameter %s: %w", ParamRefName, err)
	}
	if p.RefScale, err = s.FloatParam(ParamRefScale); err != nil {
		return Params{}, fmt.Errorf("script parameter %s: %w", ParamRefScale, err)
	}
	return p, nil
}
