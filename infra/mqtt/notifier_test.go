package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pfexport/core/export"
	coremon "github.com/kilianp07/pfexport/core/monitoring"
)

// generateCert writes a self-signed certificate used as client cert and CA.
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "pfexport"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))
	return
}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
	disconnects int
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	return &dummyToken{err: m.connectErr}
}
func (m *mockClient) Disconnect(uint) { m.disconnects++ }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, published{topic, qos, retained, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestNotifyExportPublishesReport(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", QoS: 1, Retain: true})
	require.NoError(t, err)
	defer n.Close()

	r := export.Report{RunID: "r1", Name: "FRT", Plots: []string{"FRT_Voltage.png"}, Renamed: 22}
	require.NoError(t, n.NotifyExport(r))

	require.Len(t, mc.published, 1)
	p := mc.published[0]
	assert.Equal(t, "pfexport/reports/FRT", p.topic)
	assert.Equal(t, byte(1), p.qos)
	assert.True(t, p.retain)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(p.payload, &msg))
	assert.Equal(t, "r1", msg["run_id"])
	assert.Equal(t, "ok", msg["status"])
	assert.EqualValues(t, 22, msg["renamed"])
	assert.Equal(t, "pfexport", mc.opts.ClientID)
}

func TestNotifyExportRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{errors.New("net fail"), nil}}
	withMock(t, mc)
	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	require.NoError(t, n.NotifyExport(export.Report{RunID: "r2"}))
	assert.Len(t, mc.published, 2)
	assert.Equal(t, DefaultTopic, mc.published[0].topic)
}

func TestNotifyExportErrorCaptured(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	n, err := NewNotifier(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	err = n.NotifyExport(export.Report{RunID: "r3", Name: "LVRT"})
	require.ErrorIs(t, err, fail)

	require.Error(t, mon.err)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "r3", mon.tags["run_id"])
	assert.Equal(t, "pfexport/reports/LVRT", mon.tags["topic"])
}

func TestNewNotifierConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	withMock(t, mc)
	_, err := NewNotifier(Config{Broker: "tcp://localhost:1883"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", LWTTopic: "pfexport/status", LWTPayload: "offline"})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "pfexport/status", opts.WillTopic)
	assert.Equal(t, "offline", string(opts.WillPayload))
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	tlsCfg, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)

	tlsCfg, err = Config{UseTLS: true, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Empty(t, tlsCfg.Certificates)

	_, err = Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Broker: "tcp://b:1883", QoS: 3}.Validate())
	assert.Error(t, Config{Broker: "tcp://b:1883", Topic: "pfexport/#"}.Validate())

	c := Config{Broker: "tcp://b:1883"}
	c.SetDefaults()
	assert.Equal(t, DefaultTopic, c.Topic)
	assert.Equal(t, 3, c.MaxRetries)
	assert.NoError(t, c.Validate())
}
