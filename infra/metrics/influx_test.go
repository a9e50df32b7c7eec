package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/pfexport/core/export"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
)

type lineCollector struct {
	mu     sync.Mutex
	bodies []string
}

func (c *lineCollector) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(data)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSink_RecordExport(t *testing.T) {
	var col lineCollector
	srv := col.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket", false)
	defer sink.Close()
	now := time.Now()
	r := export.Report{
		RunID:    "run-1",
		Name:     "FRT",
		Project:  "PP-MTB",
		Plots:    []string{"a.png"},
		Renamed:  22,
		Started:  now,
		Duration: 1500 * time.Millisecond,
	}
	if err := sink.RecordExport(r); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("export_run").
		AddTag("name", "FRT").
		AddTag("status", "ok").
		AddTag("project", "PP-MTB").
		AddField("run_id", "run-1").
		AddField("plots", 1).
		AddField("renamed", 22).
		AddField("normalized", false).
		AddField("duration_ms", 1500.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(col.bodies) != 1 || col.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", col.bodies)
	}
}

func TestInfluxSink_RecordSeries(t *testing.T) {
	var col lineCollector
	srv := col.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket", true)
	defer sink.Close()
	start := time.Unix(1700000000, 0)
	nan := func() float64 { var z float64; return z / z }()
	rs := coremetrics.ResultSeries{
		RunID: "run-1",
		Name:  "FRT",
		Start: start,
		Time:  []float64{0, 0.01, 0.02},
		Channels: map[string][]float64{
			"uRef":  {1, 0.5, nan},
			"f[hz]": {50, 50, nan},
		},
	}
	if err := sink.RecordSeries(rs); err != nil {
		t.Fatalf("record series: %v", err)
	}
	if len(col.bodies) != 1 {
		t.Fatalf("expected one batch, got %d", len(col.bodies))
	}
	lines := strings.Split(col.bodies[0], "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 points, got %d: %v", len(lines), lines)
	}
	p := write.NewPointWithMeasurement("simulation_result").
		AddTag("name", "FRT").
		AddTag("run_id", "run-1").
		AddField("f[hz]", 50.0).
		AddField("uRef", 0.5).
		SetTime(start.Add(10 * time.Millisecond))
	if exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)); lines[1] != exp {
		t.Errorf("unexpected line %q, want %q", lines[1], exp)
	}
}

func TestInfluxSink_SeriesDisabled(t *testing.T) {
	var col lineCollector
	srv := col.server()
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket", false)
	defer sink.Close()
	if err := sink.RecordSeries(coremetrics.ResultSeries{Time: []float64{0}, Channels: map[string][]float64{"a": {1}}}); err != nil {
		t.Fatalf("record series: %v", err)
	}
	if len(col.bodies) != 0 {
		t.Fatalf("nothing should be written")
	}
	if coremetrics.WantsSeries(sink) {
		t.Fatalf("disabled sink must not ask for the result table")
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket", true)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
