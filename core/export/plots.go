package export

import (
	"fmt"

	"github.com/kilianp07/pfexport/core/host"
	"github.com/kilianp07/pfexport/core/logger"
)

// DefaultGraphCommand is the location of the graphics export command below
// the network data folder.
const DefaultGraphCommand = `PP-MTB\exportResults\graphExport.ComWr`

// PlotExporter writes every plot page of the desktop to a PNG file.
type PlotExporter struct {
	command string
	log     logger.Logger
}

// NewPlotExporter creates a PlotExporter using the write command found at
// commandPath. An empty path selects DefaultGraphCommand.
func NewPlotExporter(commandPath string, log logger.Logger) *PlotExporter {
	if commandPath == "" {
		commandPath = DefaultGraphCommand
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &PlotExporter{command: commandPath, log: log}
}

// Export shows and autoscales each page before writing it and returns the
// written file paths in page order.
func (e *PlotExporter) Export(app host.Application, p Params) ([]string, error) {
	netdat, err := app.ProjectFolder(host.FolderNetworkData)
	if err != nil {
		return nil, fmt.Errorf("network data folder: %w", err)
	}
	cmd, err := netdat.Search(e.command)
	if err != nil {
		return nil, fmt.Errorf("graphics export command %s: %w", e.command, err)
	}
	desktop, err := app.FromStudyCase(host.ClassDesktop)
	if err != nil {
		return nil, fmt.Errorf("desktop: %w", err)
	}
	pages, err := desktop.Contents("*."+host.ClassPlotPage, true)
	if err != nil {
		return nil, fmt.Errorf("plot pages: %w", err)
	}

	files := make([]string, 0, len(pages))
	for _, page := range pages {
		if err := page.Show(); err != nil {
			return files, fmt.Errorf("show %s: %w", page.Name(), err)
		}
		if err := page.AutoScaleX(); err != nil {
			return files, fmt.Errorf("autoscale x %s: %w", page.Name(), err)
		}
		if err := page.AutoScaleY(); err != nil {
			return files, fmt.Errorf("autoscale y %s: %w", page.Name(), err)
		}
		file := p.PlotFile(page.Name())
		if err := cmd.SetAttribute("e:f", file); err != nil {
			return files, fmt.Errorf("set export file: %w", err)
		}
		if err := execute(cmd); err != nil {
			return files, fmt.Errorf("export page %s: %w", page.Name(), err)
		}
		e.log.Debugf("wrote plot %s", file)
		files = append(files, file)
	}
	e.log.Infof("exported %d plot pages", len(files))
	return files, nil
}

// execute runs a command object and turns a non-zero result into an error.
func execute(cmd host.Object) error {
	code, err := cmd.Execute()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%w: %s returned %d", ErrCommandFailed, cmd.Name(), code)
	}
	return nil
}
