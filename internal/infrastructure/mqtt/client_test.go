package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
// Only the integration tests actually connect.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "plccodec-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// =============================================================================
// Topics
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("plant/")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Raw", topics.Raw("flow_temp"), "plant/raw/flow_temp"},
		{"Value", topics.Value("flow_temp"), "plant/value/flow_temp"},
		{"CBOR", topics.CBOR("flow_temp"), "plant/cbor/flow_temp"},
		{"Error", topics.Error("flow_temp"), "plant/error/flow_temp"},
		{"KNXD", topics.KNXD(), "plant/knxd"},
		{"Status", topics.Status(), "plant/status"},
		{"AllRaw", topics.AllRaw(), "plant/raw/+"},
		{"DefaultPrefix", NewTopics("").Status(), "plccodec/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestTopics_RawDatapoint(t *testing.T) {
	topics := NewTopics("plccodec")

	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"plccodec/raw/flow_temp", "flow_temp", true},
		{"plccodec/raw/", "", false},
		{"plccodec/raw/a/b", "", false},
		{"plccodec/value/flow_temp", "", false},
		{"other/raw/flow_temp", "", false},
	}
	for _, tt := range tests {
		got, ok := topics.RawDatapoint(tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("RawDatapoint(%q) = %q, %v; want %q, %v", tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}

// =============================================================================
// Options
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth = config.MQTTAuthConfig{Username: "codec", Password: "secret"}

	opts := buildClientOptions(cfg, "codec-1")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "codec-1" || opts.Username != "codec" || opts.Password != "secret" {
		t.Errorf("identity = %q/%q/%q", opts.ClientID, opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

func TestClientID_GeneratedWhenEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = ""

	a, b := clientID(cfg), clientID(cfg)
	if !strings.HasPrefix(a, "plccodec-") || a == b {
		t.Errorf("clientID() = %q, %q; want distinct plccodec- ids", a, b)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig(), "codec-1")
	configureLWT(opts, NewTopics("plant"), "codec-1")

	if !opts.WillEnabled || opts.WillTopic != "plant/status" || !opts.WillRetained {
		t.Fatalf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	var payload statusPayload
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if payload.Status != statusOffline || payload.ClientID != "codec-1" || payload.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", payload)
	}
}

// =============================================================================
// Disconnected client
// =============================================================================

func TestDisconnectedClient(t *testing.T) {
	c := newClient(testConfig(), NewTopics(""))
	handler := func(string, []byte) error { return nil }

	if c.IsConnected() {
		t.Fatal("IsConnected() = true before Connect")
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish invalid qos", c.Publish("t", nil, 3, false), ErrInvalidQoS},
		{"publish oversize", c.Publish("t", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish disconnected", c.PublishRetained("t", []byte("x")), ErrNotConnected},
		{"subscribe empty topic", c.Subscribe("", 1, handler), ErrInvalidTopic},
		{"subscribe invalid qos", c.Subscribe("t", 3, handler), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("t", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", c.Subscribe("t", 1, handler), ErrNotConnected},
		{"unsubscribe empty topic", c.Unsubscribe(""), ErrInvalidTopic},
		{"unsubscribe disconnected", c.Unsubscribe("t"), ErrNotConnected},
		{"health", c.HealthCheck(context.Background()), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}

	if c.SubscriptionCount() != 0 || c.HasSubscription("t") {
		t.Error("failed subscription was tracked")
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig(), NewTopics(""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// =============================================================================
// Handler dispatch
// =============================================================================

func TestDispatch_LogsErrorsAndRecoversPanics(t *testing.T) {
	c := newClient(testConfig(), NewTopics(""))
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "plccodec/raw/x", nil)
	c.dispatch(func(string, []byte) error { panic("boom") }, "plccodec/raw/x", nil)

	if len(logger.warns) != 1 || len(logger.errs) != 1 {
		t.Errorf("warns = %v, errs = %v", logger.warns, logger.errs)
	}
}

func TestHandleDisconnect_InvokesCallback(t *testing.T) {
	c := newClient(testConfig(), NewTopics(""))
	c.setConnected(true)

	var got error
	c.SetOnDisconnect(func(err error) { got = err })
	c.handleDisconnect(errors.New("network down"))

	if got == nil || got.Error() != "network down" {
		t.Errorf("callback error = %v", got)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
