package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/mqtt"
)

// Pipeline errors.
var (
	// ErrAlreadyRunning is returned by Start on a started pipeline.
	ErrAlreadyRunning = errors.New("pipeline: already running")

	// ErrInvalidTopic is returned for a raw topic without a datapoint name.
	ErrInvalidTopic = errors.New("pipeline: invalid raw topic")
)

// Bus is the MQTT surface the pipeline needs. *mqtt.Client satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Catalog resolves datapoints by name or KNX group address.
// *datapoint.Registry satisfies it.
type Catalog interface {
	Get(ctx context.Context, name string) (*datapoint.Datapoint, error)
	ByGroupAddress(ga knx.GroupAddress) (*datapoint.Datapoint, error)
}

// ValueWriter records decode outcomes, e.g. *influxdb.Client.
type ValueWriter interface {
	WriteValue(name string, desc codec.Descriptor, v values.Value, at time.Time)
	WriteDecodeError(name string, desc codec.Descriptor, code string, at time.Time)
}

// Broadcaster fans events out to live subscribers, e.g. the API websocket hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
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

// Options configures a Pipeline. Only Topics is required; nil sinks are
// skipped.
type Options struct {
	Topics    mqtt.Topics
	QoS       byte
	ByteOrder bitbuf.ByteOrder

	// KNXD subscribes to {prefix}/knxd group packets.
	KNXD bool

	// CBOR also publishes {prefix}/cbor/{datapoint}.
	CBOR bool

	Writer      ValueWriter
	Broadcaster Broadcaster
	Logger      Logger

	// Now stamps events. Defaults to time.Now.
	Now func() time.Time
}

// Stats counts frames by outcome.
type Stats struct {
	Decoded uint64 `json:"decoded"`
	Failed  uint64 `json:"failed"`
	Ignored uint64 `json:"ignored"`
}

// Pipeline subscribes to raw frames, decodes them against the catalog and
// publishes the results.
//
// Thread Safety:
//   - Handlers may run concurrently; all state is atomic or mutex-guarded.
type Pipeline struct {
	bus     Bus
	catalog Catalog
	codec   *codec.Codec
	opts    Options
	logger  Logger

	mu      sync.Mutex
	running bool

	decoded atomic.Uint64
	failed  atomic.Uint64
	ignored atomic.Uint64
}

// New creates a Pipeline. Call Start to subscribe.
func New(bus Bus, catalog Catalog, c *codec.Codec, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		bus:     bus,
		catalog: catalog,
		codec:   c,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Start subscribes to the raw topics, and the knxd topic when enabled.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	if err := p.bus.Subscribe(p.opts.Topics.AllRaw(), p.opts.QoS, p.HandleRaw); err != nil {
		return fmt.Errorf("subscribing to raw frames: %w", err)
	}
	if p.opts.KNXD {
		if err := p.bus.Subscribe(p.opts.Topics.KNXD(), p.opts.QoS, p.HandleKNXD); err != nil {
			p.bus.Unsubscribe(p.opts.Topics.AllRaw()) //nolint:errcheck // best effort rollback
			return fmt.Errorf("subscribing to knxd packets: %w", err)
		}
	}

	p.running = true
	p.logger.Info("pipeline started", "raw", p.opts.Topics.AllRaw(), "knxd", p.opts.KNXD)
	return nil
}

// Stop unsubscribes. It is safe to call on a stopped pipeline.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	p.running = false

	var errs []error
	if err := p.bus.Unsubscribe(p.opts.Topics.AllRaw()); err != nil {
		errs = append(errs, err)
	}
	if p.opts.KNXD {
		if err := p.bus.Unsubscribe(p.opts.Topics.KNXD()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns the frame counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Decoded: p.decoded.Load(),
		Failed:  p.failed.Load(),
		Ignored: p.ignored.Load(),
	}
}

// HandleRaw is the MQTT handler for {prefix}/raw/{datapoint}.
func (p *Pipeline) HandleRaw(topic string, payload []byte) error {
	name, ok := p.opts.Topics.RawDatapoint(topic)
	if !ok {
		p.ignored.Add(1)
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	dp, err := p.catalog.Get(context.Background(), name)
	if err != nil {
		ev := p.newEvent(name, "", SourceRaw)
		ev.Code = codec.StatusNotFound
		ev.Error = err.Error()
		p.publish(ev, codec.Descriptor{})
		return nil
	}
	p.publish(p.Decode(dp, payload, SourceRaw))
	return nil
}

// HandleKNXD is the MQTT handler for knxd group packets.
func (p *Pipeline) HandleKNXD(_ string, payload []byte) error {
	tg, err := knx.ParseGroupPacket(payload)
	if err != nil {
		p.ignored.Add(1)
		return fmt.Errorf("parsing knxd packet: %w", err)
	}
	return p.HandleTelegram(tg)
}

// HandleTelegram decodes a group telegram against the datapoint bound to
// its destination. Reads and telegrams for unbound group addresses are
// counted as ignored. It is the handler for a directly attached
// knx.Monitor as well as the tail of HandleKNXD.
func (p *Pipeline) HandleTelegram(tg knx.Telegram) error {
	if tg.IsRead() {
		p.ignored.Add(1)
		return nil
	}

	dp, err := p.catalog.ByGroupAddress(tg.Destination)
	if err != nil {
		p.ignored.Add(1)
		p.logger.Debug("telegram for unbound group address", "ga", tg.Destination.String())
		return nil
	}

	data, err := tg.Payload()
	if err != nil {
		p.ignored.Add(1)
		return fmt.Errorf("telegram %s: %w", tg, err)
	}
	p.publish(p.Decode(dp, data, SourceKNXD))
	return nil
}

// Decode decodes data for dp without publishing. The descriptor is
// returned alongside so sinks can tag the result.
func (p *Pipeline) Decode(dp *datapoint.Datapoint, data []byte, source string) (Event, codec.Descriptor) {
	ev := p.newEvent(dp.Name, dp.Token, source)

	desc, err := dp.Descriptor(p.opts.ByteOrder)
	if err != nil {
		ev.Code, ev.Error = codec.StatusOf(err), err.Error()
		return ev, desc
	}
	ev.Unit = desc.Unit

	v, err := p.codec.Decode(data, desc)
	if err != nil {
		ev.Code, ev.Error = codec.StatusOf(err), err.Error()
		return ev, desc
	}
	ev.Code = codec.StatusOK
	ev.Kind = v.Kind().String()
	ev.Value = &v
	return ev, desc
}

func (p *Pipeline) newEvent(name, token, source string) Event {
	return Event{
		Datapoint: name,
		Token:     token,
		Source:    source,
		Timestamp: p.opts.Now().UTC(),
	}
}

// publish sends ev to every configured sink.
func (p *Pipeline) publish(ev Event, desc codec.Descriptor) {
	topics := p.opts.Topics

	if !ev.OK() {
		p.failed.Add(1)
		p.logger.Warn("decode failed", "datapoint", ev.Datapoint, "code", ev.Code, "error", ev.Error)
		p.send(topics.Error(ev.Datapoint), ev, json.Marshal, false)
		if p.opts.Writer != nil && desc.Family != 0 {
			p.opts.Writer.WriteDecodeError(ev.Datapoint, desc, string(ev.Code), ev.Timestamp)
		}
		if p.opts.Broadcaster != nil {
			p.opts.Broadcaster.Broadcast(ChannelErrors, ev)
		}
		return
	}

	p.decoded.Add(1)
	p.send(topics.Value(ev.Datapoint), ev, json.Marshal, true)
	if p.opts.CBOR {
		p.send(topics.CBOR(ev.Datapoint), ev, cbor.Marshal, true)
	}
	if p.opts.Writer != nil {
		p.opts.Writer.WriteValue(ev.Datapoint, desc, *ev.Value, ev.Timestamp)
	}
	if p.opts.Broadcaster != nil {
		p.opts.Broadcaster.Broadcast(ChannelValues, ev)
	}
}

func (p *Pipeline) send(topic string, ev Event, marshal func(any) ([]byte, error), retained bool) {
	payload, err := marshal(ev)
	if err != nil {
		p.logger.Error("encoding event", "datapoint", ev.Datapoint, "error", err)
		return
	}
	if err := p.bus.Publish(topic, payload, p.opts.QoS, retained); err != nil {
		p.logger.Warn("publishing event", "topic", topic, "error", err)
	}
}
