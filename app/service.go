package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/kilianp07/pfexport/config"
	"github.com/kilianp07/pfexport/core/export"
	corehost "github.com/kilianp07/pfexport/core/host"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
	coremon "github.com/kilianp07/pfexport/core/monitoring"
	"github.com/kilianp07/pfexport/core/normalize"
	"github.com/kilianp07/pfexport/infra/host"
	"github.com/kilianp07/pfexport/infra/logger"
	_ "github.com/kilianp07/pfexport/infra/metrics" // register sinks
	"github.com/kilianp07/pfexport/infra/monitoring"
	"github.com/kilianp07/pfexport/infra/mqtt"
	pkgexport "github.com/kilianp07/pfexport/pkg/export"
)

// Notifier announces finished runs.
type Notifier interface {
	NotifyExport(r export.Report) error
}

// Service runs exports against the host application.
type Service struct {
	connector  corehost.Connector
	plots      *export.PlotExporter
	results    *export.ResultExporter
	normalizer *normalize.Normalizer
	normalize  bool
	headerRow  int
	output     config.OutputConfig
	sink       coremetrics.ExportSink
	notifier   Notifier
	monitor    coremon.Monitor
	log        logger.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithConnector replaces the connector built from the host configuration.
func WithConnector(c corehost.Connector) Option { return func(s *Service) { s.connector = c } }

// WithSink replaces the sinks built from the metrics configuration.
func WithSink(sink coremetrics.ExportSink) Option { return func(s *Service) { s.sink = sink } }

// WithNotifier replaces the MQTT notifier.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithMonitor replaces the Sentry monitor.
func WithMonitor(m coremon.Monitor) Option { return func(s *Service) { s.monitor = m } }

// WithNormalize overrides normalize.enabled.
func WithNormalize(enabled bool) Option { return func(s *Service) { s.normalize = enabled } }

// New creates a Service from the configuration. Options are applied before
// any external resource is created so tests can replace them.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		plots:     export.NewPlotExporter(cfg.Export.GraphCommand, logger.New("plot_exporter")),
		results:   export.NewResultExporter(cfg.Export.CSVOptions(), logger.New("result_exporter")),
		normalize: cfg.Normalize.Enabled,
		headerRow: cfg.Normalize.Row(),
		output:    cfg.Output,
		log:       logger.New("service"),
		now:       time.Now,
	}
	s.normalizer = normalize.NewNormalizer(cfg.Normalize.Mapping(), s.headerRow, logger.New("normalizer"))
	for _, o := range opts {
		o(s)
	}

	if s.connector == nil {
		s.connector = host.NewConnector(cfg.Host)
	}
	if s.sink == nil {
		sink, err := coremetrics.NewExportSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sinks: %w", err)
		}
		s.sink = sink
	}
	if s.normalize || s.output.Any() || coremetrics.WantsSeries(s.sink) {
		if err := cfg.Export.ValidateTableFormat(); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	if s.notifier == nil && cfg.MQTT.Enabled() {
		n, err := mqtt.NewNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		s.notifier = n
	}
	if s.monitor == nil {
		m, err := monitoring.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		coremon.Init(m)
		s.monitor = m
	}
	return s, nil
}

// ParamsFromHost reads the run parameters from the script that triggered the
// run inside the host application.
func (s *Service) ParamsFromHost(ctx context.Context) (export.Params, error) {
	app, err := s.connector.Connect(ctx)
	if err != nil {
		return export.Params{}, err
	}
	script, err := app.CurrentScript()
	if err != nil {
		return export.Params{}, fmt.Errorf("current script: %w", err)
	}
	return export.ParamsFromScript(script)
}

// Export runs plots, results and the optional normalization for p. The
// returned report is also handed to the sinks and the notifier; it carries
// the failure message when err is not nil.
func (s *Service) Export(ctx context.Context, p export.Params) (export.Report, error) {
	r := export.Report{RunID: uuid.NewString(), Name: p.Name, Started: s.now()}
	step, err := s.run(ctx, p, &r)
	r.Duration = s.now().Sub(r.Started)
	if err != nil {
		r.Err = err.Error()
		s.log.Errorf("export %s failed during %s: %v", p.Name, step, err)
		s.monitor.CaptureException(err, map[string]string{"run_id": r.RunID, "name": p.Name, "step": step})
	} else {
		s.log.Infof("export %s finished in %s", p.Name, r.Duration)
	}
	if s.output.Report && p.Validate() == nil {
		file := p.SideFile(".report.json")
		r.SideFiles = append(r.SideFiles, file)
		if werr := pkgexport.WriteReportFile(file, r); werr != nil {
			s.log.Warnf("write report %s: %v", file, werr)
		}
	}
	s.publish(r)
	return r, err
}

func (s *Service) run(ctx context.Context, p export.Params, r *export.Report) (string, error) {
	if err := p.Validate(); err != nil {
		return "params", err
	}
	app, err := s.connector.Connect(ctx)
	if err != nil {
		return "connect", err
	}
	project, err := app.ActiveProject()
	if err != nil {
		return "project", err
	}
	if project == nil {
		return "project", corehost.ErrNoProject
	}
	r.Project = project.Name()

	if r.Plots, err = s.plots.Export(app, p); err != nil {
		return "plots", err
	}
	if err := ctx.Err(); err != nil {
		return "plots", err
	}
	if r.ResultFile, err = s.results.Export(app, p); err != nil {
		return "results", err
	}

	headerRow := s.headerRow
	if s.normalize {
		res, err := s.normalizer.NormalizeFile(r.ResultFile, normalize.Reference{Name: p.RefName, Scale: p.RefScale})
		if err != nil {
			return "normalize", err
		}
		r.Normalized = true
		r.Renamed = res.Renamed
		r.ReferenceColumn = res.Reference
		r.ReferenceName = res.ReferenceName
		r.Columns = res.Columns
		headerRow = 0
	}

	if !s.output.Any() && !coremetrics.WantsSeries(s.sink) {
		return "", nil
	}
	df, err := normalize.ReadFile(r.ResultFile, headerRow)
	if err != nil {
		return "outputs", fmt.Errorf("read %s: %w", r.ResultFile, err)
	}
	return s.outputs(p, df, r)
}

// outputs writes the side files and forwards the result channels.
func (s *Service) outputs(p export.Params, df dataframe.DataFrame, r *export.Report) (string, error) {
	if s.output.Summary {
		r.Channels = normalize.Summarize(df)
	}
	if s.output.XLSX {
		file := p.SideFile(".xlsx")
		if err := pkgexport.SaveXLSX(file, df, r.Channels); err != nil {
			return "xlsx", fmt.Errorf("write %s: %w", file, err)
		}
		r.SideFiles = append(r.SideFiles, file)
	}
	if s.output.Preview {
		file := p.SideFile(".html")
		if err := pkgexport.SavePreview(file, df, p.Name); err != nil {
			return "preview", fmt.Errorf("write %s: %w", file, err)
		}
		r.SideFiles = append(r.SideFiles, file)
	}
	if rec, ok := s.sink.(coremetrics.SeriesRecorder); ok && coremetrics.WantsSeries(s.sink) {
		rs, ok := seriesFromTable(df, r.RunID, r.Name, r.Started)
		if !ok {
			s.log.Warnf("result table of %s has no numeric time column, series not recorded", r.Name)
			return "", nil
		}
		if err := rec.RecordSeries(rs); err != nil {
			s.log.Errorf("record series: %v", err)
		}
	}
	return "", nil
}

// publish hands the report to the sinks and the notifier. Failures are logged
// and do not change the outcome of the run.
func (s *Service) publish(r export.Report) {
	if err := s.sink.RecordExport(r); err != nil {
		s.log.Errorf("record export: %v", err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyExport(r); err != nil {
			s.log.Errorf("notify export: %v", err)
		}
	}
}

// Close releases the notifier connection and flushes the monitor.
func (s *Service) Close() error {
	if c, ok := s.notifier.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return nil
}

// IsPrecondition reports whether err is one of the fatal host preconditions.
func IsPrecondition(err error) bool {
	return errors.Is(err, corehost.ErrNoProject) || errors.Is(err, corehost.ErrNoConnection)
}
