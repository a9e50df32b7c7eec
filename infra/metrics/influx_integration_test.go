package metrics

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/pfexport/core/export"
	coremetrics "github.com/kilianp07/pfexport/core/metrics"
)

// TestInfluxSinkIntegration writes a report and a result series to a real
// InfluxDB 2 instance and reads them back.
func TestInfluxSinkIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	const (
		org    = "pfexport"
		bucket = "results"
		token  = "integration-token"
	)
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "adminpassword",
			"DOCKER_INFLUXDB_INIT_ORG":         org,
			"DOCKER_INFLUXDB_INIT_BUCKET":      bucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": token,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "8086")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	url := fmt.Sprintf("http://%s:%s", host, port.Port())

	s := NewInfluxSinkWithFallback(url, token, org, bucket, true)
	sink, ok := s.(*InfluxSink)
	if !ok {
		t.Fatalf("expected InfluxSink, got %T", s)
	}
	defer sink.Close()

	start := time.Now().Add(-time.Minute).Truncate(time.Second)
	if err := sink.RecordExport(export.Report{RunID: "it-1", Name: "FRT", Started: start}); err != nil {
		t.Fatalf("record export: %v", err)
	}
	rs := coremetrics.ResultSeries{
		RunID:    "it-1",
		Name:     "FRT",
		Start:    start,
		Time:     []float64{0, 0.01, 0.02},
		Channels: map[string][]float64{"uRef": {1, 0.5, 1}},
	}
	if err := sink.RecordSeries(rs); err != nil {
		t.Fatalf("record series: %v", err)
	}

	client := influxdb2.NewClient(url, token)
	defer client.Close()
	query := fmt.Sprintf(`from(bucket:%q) |> range(start: -1h) |> filter(fn: (r) => r._measurement == "simulation_result" and r.run_id == "it-1") |> count()`, bucket)
	result, err := client.QueryAPI(org).Query(ctx, query)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var count int64
	for result.Next() {
		if v, ok := result.Record().Value().(int64); ok {
			count += v
		}
	}
	if result.Err() != nil {
		t.Fatalf("query result: %v", result.Err())
	}
	if count != 3 {
		t.Fatalf("expected 3 samples, got %d", count)
	}
}
