package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/pfexport/core/export"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
	"github.com/kilianp07/pfexport/infra/logger"
)

// seriesBatch bounds the number of points sent per write request.
const seriesBatch = 500

// InfluxSink writes run reports and, when enabled, the result channels to
// InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	series   bool
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string, series bool) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		series:   series,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string, series bool) coremetrics.ExportSink {
	sink := NewInfluxSink(url, token, org, bucket, series)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordExport writes the run summary as one export_run point.
func (s *InfluxSink) RecordExport(r export.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := reportPoint(r)
	return s.writeAPI.WritePoint(ctx, p)
}

func reportPoint(r export.Report) *write.Point {
	p := write.NewPointWithMeasurement("export_run").
		AddTag("name", r.Name).
		AddTag("status", r.Status())
	if r.Project != "" {
		p = p.AddTag("project", r.Project)
	}
	p = p.AddField("run_id", r.RunID).
		AddField("plots", len(r.Plots)).
		AddField("renamed", r.Renamed).
		AddField("normalized", r.Normalized).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000))
	if r.Err != "" {
		p = p.AddField("error", r.Err)
	}
	return p.SetTime(r.Started)
}

// SeriesEnabled reports whether result channels are written.
func (s *InfluxSink) SeriesEnabled() bool { return s.series }

// RecordSeries writes one simulation_result point per sample. Simulation
// time is laid out from the series start. Empty cells are skipped.
func (s *InfluxSink) RecordSeries(rs coremetrics.ResultSeries) error {
	if !s.series {
		return nil
	}
	points := seriesPoints(rs)
	for start := 0; start < len(points); start += seriesBatch {
		end := start + seriesBatch
		if end > len(points) {
			end = len(points)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.writeAPI.WritePoint(ctx, points[start:end]...)
		cancel()
		if err != nil {
			return err
		}
	}
	s.log.Infof("wrote %d result samples of %s", len(points), rs.Name)
	return nil
}

func seriesPoints(rs coremetrics.ResultSeries) []*write.Point {
	names := make([]string, 0, len(rs.Channels))
	for n := range rs.Channels {
		names = append(names, n)
	}
	sort.Strings(names)

	points := make([]*write.Point, 0, len(rs.Time))
	for i, t := range rs.Time {
		if math.IsNaN(t) {
			continue
		}
		p := write.NewPointWithMeasurement("simulation_result").
			AddTag("name", rs.Name).
			AddTag("run_id", rs.RunID)
		fields := 0
		for _, n := range names {
			vals := rs.Channels[n]
			if i >= len(vals) || math.IsNaN(vals[i]) {
				continue
			}
			p = p.AddField(n, vals[i])
			fields++
		}
		if fields == 0 {
			continue
		}
		offset := time.Duration(math.Round(t * float64(time.Second)))
		points = append(points, p.SetTime(rs.Start.Add(offset)))
	}
	return points
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
