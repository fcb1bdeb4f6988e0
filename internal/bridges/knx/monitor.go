package knx

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor defaults.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute
	handshakeWriteTimeout    = 5 * time.Second

	// frameBufferSize bounds one knxd frame. Group packets are far smaller.
	frameBufferSize = 256

	telegramQueueSize = 100
	handlerWorkers    = 4
)

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// URL is the knxd socket: "unix:///run/knxd" or "tcp://host:6720".
	URL string

	// ConnectTimeout bounds dialling and the group connection handshake.
	// Default: 10s.
	ConnectTimeout time.Duration

	// ReadTimeout is the idle read deadline. Expiry is not an error.
	// Default: 30s.
	ReadTimeout time.Duration

	// ReconnectInterval is the first reconnect delay; it grows by half on
	// each failure up to two minutes. Default: 5s.
	ReconnectInterval time.Duration
}

func (c *MonitorConfig) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = defaultReconnectInterval
	}
}

// MonitorStats counts monitor activity.
type MonitorStats struct {
	Received     uint64    `json:"received"`
	Dropped      uint64    `json:"dropped"`
	Errors       uint64    `json:"errors"`
	Reconnects   uint64    `json:"reconnects"`
	LastActivity time.Time `json:"last_activity"`
	Connected    bool      `json:"connected"`
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Monitor listens on a knxd group socket and hands every group telegram to
// a handler. It never writes to the bus.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The handler runs on a small worker pool; telegrams arriving while the
//     queue is full are dropped and counted.
//
// A lost connection is re-established with backoff until Close.
type Monitor struct {
	cfg     MonitorConfig
	network string
	address string
	logger  Logger

	connMu    sync.Mutex
	conn      net.Conn
	connected atomic.Bool

	handlerMu sync.RWMutex
	handler   func(Telegram)

	queue chan Telegram
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	received     atomic.Uint64
	dropped      atomic.Uint64
	errorsTotal  atomic.Uint64
	reconnects   atomic.Uint64
	lastActivity atomic.Int64
}

// Connect dials knxd, opens a group connection and starts receiving.
//
// Parameters:
//   - ctx: bounds the initial dial and handshake
//   - cfg: socket URL and timeouts
//   - logger: optional, may be nil
//
// Returns:
//   - *Monitor: receiving monitor; call Close to stop it
//   - error: ErrConnectionFailed wrapping the cause
func Connect(ctx context.Context, cfg MonitorConfig, logger Logger) (*Monitor, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = noopLogger{}
	}

	network, address, err := parseSocketURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	m := &Monitor{
		cfg:     cfg,
		network: network,
		address: address,
		logger:  logger,
		queue:   make(chan Telegram, telegramQueueSize),
		done:    make(chan struct{}),
	}
	conn, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}
	m.conn = conn
	m.connected.Store(true)
	m.lastActivity.Store(time.Now().Unix())

	for range handlerWorkers {
		m.wg.Add(1)
		go m.worker()
	}
	m.wg.Add(1)
	go m.receiveLoop()

	return m, nil
}

// parseSocketURL maps a knxd URL onto a net.Dial network and address.
func parseSocketURL(raw string) (network, address string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid knxd url: %w", err)
	}
	switch u.Scheme {
	case "unix":
		if u.Path == "" {
			return "", "", fmt.Errorf("knxd url %q has no socket path", raw)
		}
		return "unix", u.Path, nil
	case "tcp":
		if u.Host == "" {
			return "tcp", "localhost:6720", nil
		}
		return "tcp", u.Host, nil
	default:
		return "", "", fmt.Errorf("unsupported knxd scheme %q (use unix or tcp)", u.Scheme)
	}
}

// SetHandler sets the function called for each received telegram.
// Telegrams received with no handler set are counted and discarded.
func (m *Monitor) SetHandler(fn func(Telegram)) {
	m.handlerMu.Lock()
	m.handler = fn
	m.handlerMu.Unlock()
}

// IsConnected reports whether the group socket is open.
func (m *Monitor) IsConnected() bool {
	return m.connected.Load()
}

// HealthCheck returns ErrNotConnected while reconnecting.
func (m *Monitor) HealthCheck(_ context.Context) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Stats returns the activity counters.
func (m *Monitor) Stats() MonitorStats {
	return MonitorStats{
		Received:     m.received.Load(),
		Dropped:      m.dropped.Load(),
		Errors:       m.errorsTotal.Load(),
		Reconnects:   m.reconnects.Load(),
		LastActivity: time.Unix(m.lastActivity.Load(), 0),
		Connected:    m.IsConnected(),
	}
}

// Close stops receiving and waits for in-flight handlers. It is safe to
// call more than once.
func (m *Monitor) Close() error {
	m.once.Do(func() {
		close(m.done)
		m.connected.Store(false)
		m.connMu.Lock()
		if m.conn != nil {
			m.conn.Close() //nolint:errcheck // unblocks the pending read
		}
		m.connMu.Unlock()
	})
	m.wg.Wait()
	return nil
}

func (m *Monitor) closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// dial connects and performs the EIB_OPEN_GROUPCON handshake.
func (m *Monitor) dial(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, m.network, m.address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, m.address, err)
	}
	if err := openGroupCon(ctx, conn); err != nil {
		conn.Close() //nolint:errcheck // handshake already failed
		return nil, fmt.Errorf("%w: handshake: %w", ErrConnectionFailed, err)
	}
	return conn, nil
}

// openGroupCon sends EIB_OPEN_GROUPCON (reserved, write_only=0, reserved)
// and waits for knxd to echo the message type.
func openGroupCon(ctx context.Context, conn net.Conn) error {
	deadline := time.Now().Add(handshakeWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer conn.SetDeadline(time.Time{}) //nolint:errcheck // cleared for the receive loop

	if _, err := conn.Write(EncodeKNXDMessage(EIBOpenGroupCon, []byte{0x00, 0x00, 0x00})); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	buf := make([]byte, frameBufferSize)
	msgType, _, err := readFrame(conn, buf)
	if err != nil {
		return err
	}
	if msgType != EIBOpenGroupCon {
		return fmt.Errorf("unexpected response type 0x%04X", msgType)
	}
	return nil
}

// readFrame reads one size-prefixed knxd frame into buf. A frame larger
// than buf returns ErrProtocolDesync since the stream cannot be re-framed.
func readFrame(r io.Reader, buf []byte) (uint16, []byte, error) {
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return 0, nil, err
	}
	size := int(binary.BigEndian.Uint16(buf[:2]))
	total := 2 + size
	if size < 2 || total > len(buf) {
		return 0, nil, fmt.Errorf("%w: frame size %d", ErrProtocolDesync, size)
	}
	if _, err := io.ReadFull(r, buf[2:total]); err != nil {
		return 0, nil, err
	}
	return ParseKNXDMessage(buf[:total])
}

func (m *Monitor) receiveLoop() {
	defer m.wg.Done()
	buf := make([]byte, frameBufferSize)

	for !m.closed() {
		m.connMu.Lock()
		conn := m.conn
		m.connMu.Unlock()

		if err := conn.SetReadDeadline(time.Now().Add(m.cfg.ReadTimeout)); err != nil {
			m.lost(err)
			continue
		}
		msgType, payload, err := readFrame(conn, buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			m.lost(err)
			continue
		}
		if msgType != EIBGroupPacket {
			continue
		}
		m.dispatch(payload)
	}
}

func (m *Monitor) dispatch(payload []byte) {
	tg, err := ParseTelegram(payload)
	if err != nil {
		m.errorsTotal.Add(1)
		m.logger.Debug("discarding malformed telegram", "error", err)
		return
	}
	m.received.Add(1)
	m.lastActivity.Store(time.Now().Unix())

	select {
	case m.queue <- tg:
	default:
		m.dropped.Add(1)
		m.logger.Warn("telegram queue full, dropping", "ga", tg.Destination.String())
	}
}

func (m *Monitor) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case tg := <-m.queue:
			m.handle(tg)
		}
	}
}

func (m *Monitor) handle(tg Telegram) {
	m.handlerMu.RLock()
	fn := m.handler
	m.handlerMu.RUnlock()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.errorsTotal.Add(1)
			m.logger.Error("telegram handler panic", "panic", r)
		}
	}()
	fn(tg)
}

// lost tears down the connection after a read failure and reconnects.
// It returns once connected again or closed.
func (m *Monitor) lost(cause error) {
	if m.closed() {
		return
	}
	m.errorsTotal.Add(1)
	m.connected.Store(false)
	m.logger.Warn("knxd connection lost", "error", cause)

	m.connMu.Lock()
	m.conn.Close() //nolint:errcheck // replaced below
	m.connMu.Unlock()

	backoff := m.cfg.ReconnectInterval
	for {
		select {
		case <-m.done:
			return
		case <-time.After(backoff):
		}

		conn, err := m.dial(context.Background())
		if err != nil {
			m.errorsTotal.Add(1)
			m.logger.Warn("knxd reconnect failed", "error", err, "retry_in", backoff.String())
			backoff = min(backoff*3/2, maxReconnectInterval)
			continue
		}

		m.connMu.Lock()
		if m.closed() {
			m.connMu.Unlock()
			conn.Close() //nolint:errcheck // closed while dialling
			return
		}
		m.conn = conn
		m.connMu.Unlock()

		m.connected.Store(true)
		m.reconnects.Add(1)
		m.logger.Info("knxd reconnected", "reconnects", m.reconnects.Load())
		return
	}
}
