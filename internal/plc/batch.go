package plc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Decoder defaults.
const (
	DefaultWorkers  = 8
	DefaultMaxBatch = 1000

	workerExpiry = time.Minute
)

// Batch errors.
var (
	// ErrBatchTooLarge is returned when a batch exceeds Options.MaxBatch.
	ErrBatchTooLarge = errors.New("plc: batch too large")

	// ErrDuplicateField is returned when two fields in one batch share a name.
	ErrDuplicateField = errors.New("plc: duplicate field name")

	// ErrDecoderClosed is returned by DecodeBatch after Close.
	ErrDecoderClosed = errors.New("plc: decoder closed")

	errNotDecoded = errors.New("plc: field not decoded")
)

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

// Field is one named request in a batch.
type Field struct {
	// Name keys the field's result in the Response.
	Name string

	// Token is an address token accepted by Resolve.
	Token string

	// Data is the raw payload read from the device.
	Data []byte
}

// Result is the outcome for one field.
type Result struct {
	Code  codec.ResponseCode
	Value values.Value
	Err   error
}

// Response collects the results of one DecodeBatch call.
type Response struct {
	// ID identifies the request in logs and API responses.
	ID string

	names   []string
	results map[string]Result
}

// Code returns the response code for name, or StatusNotFound if the batch
// had no such field.
func (r *Response) Code(name string) codec.ResponseCode {
	res, ok := r.results[name]
	if !ok {
		return codec.StatusNotFound
	}
	return res.Code
}

// Value returns the decoded value for name. It is Null unless Code is OK.
func (r *Response) Value(name string) values.Value {
	return r.results[name].Value
}

// Result returns the full result for name.
func (r *Response) Result(name string) (Result, bool) {
	res, ok := r.results[name]
	return res, ok
}

// Names returns the field names in request order.
func (r *Response) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of fields in the response.
func (r *Response) Len() int { return len(r.names) }

// OK reports whether every field decoded successfully.
func (r *Response) OK() bool {
	for _, res := range r.results {
		if res.Code != codec.StatusOK {
			return false
		}
	}
	return true
}

// Options configures a Decoder.
type Options struct {
	// Workers bounds concurrent field decodes. Zero means DefaultWorkers.
	Workers int

	// MaxBatch bounds the fields per call. Zero means DefaultMaxBatch.
	MaxBatch int

	// ByteOrder applies to Modbus multi-register values.
	ByteOrder bitbuf.ByteOrder

	Logger Logger
}

// Decoder decodes batches of fields concurrently on a bounded worker pool.
// The codec itself is synchronous; only the fan-out is concurrent.
//
// A Decoder is safe for concurrent use. Close releases its workers.
type Decoder struct {
	codec    *codec.Codec
	pool     *ants.Pool
	order    bitbuf.ByteOrder
	maxBatch int
	logger   Logger
	closed   atomic.Bool
}

// NewDecoder creates a Decoder over DefaultTable.
func NewDecoder(opts Options) (*Decoder, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	logger := opts.Logger
	pool, err := ants.NewPool(opts.Workers, ants.WithOptions(ants.Options{
		ExpiryDuration: workerExpiry,
		PanicHandler: func(p any) {
			logger.Error("decode worker panic", "panic", p)
		},
	}))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	return &Decoder{
		codec:    NewCodec(),
		pool:     pool,
		order:    opts.ByteOrder,
		maxBatch: opts.MaxBatch,
		logger:   logger,
	}, nil
}

// Close releases the worker pool.
func (d *Decoder) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.pool.Release()
}

// Codec returns the codec the decoder uses.
func (d *Decoder) Codec() *codec.Codec { return d.codec }

// DecodeField resolves and decodes a single field synchronously.
func (d *Decoder) DecodeField(f Field) Result {
	desc, err := ResolveWithOrder(f.Token, d.order)
	if err != nil {
		return Result{Code: codec.StatusOf(err), Err: err}
	}
	v, err := d.codec.Decode(f.Data, desc)
	if err != nil {
		return Result{Code: codec.StatusOf(err), Err: err}
	}
	return Result{Code: codec.StatusOK, Value: v}
}

// DecodeBatch decodes every field concurrently and waits for all submitted
// decodes to finish.
//
// The context is checked between submissions. When it is cancelled the
// fields not yet submitted report StatusInternalError with the context
// error, and DecodeBatch returns the partial response together with
// ctx.Err().
//
// Parameters:
//   - ctx: cancellation for the fan-out
//   - fields: named requests; names must be unique
//
// Returns:
//   - *Response: one Result per field, keyed by name
//   - error: ErrBatchTooLarge, ErrDuplicateField, ErrDecoderClosed or ctx.Err()
func (d *Decoder) DecodeBatch(ctx context.Context, fields []Field) (*Response, error) {
	if len(fields) > d.maxBatch {
		return nil, fmt.Errorf("%w: %d fields, limit %d", ErrBatchTooLarge, len(fields), d.maxBatch)
	}
	if d.closed.Load() {
		return nil, ErrDecoderClosed
	}

	resp := &Response{
		ID:      uuid.NewString(),
		names:   make([]string, len(fields)),
		results: make(map[string]Result, len(fields)),
	}
	for i, f := range fields {
		if _, dup := resp.results[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		resp.names[i] = f.Name
		resp.results[f.Name] = Result{}
	}

	// Workers write to distinct slots; the map is filled after Wait.
	slots := make([]Result, len(fields))
	for i := range slots {
		slots[i] = Result{Code: codec.StatusInternalError, Err: errNotDecoded}
	}

	var (
		wg        sync.WaitGroup
		cancelErr error
	)
	for i := range fields {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			for j := i; j < len(fields); j++ {
				slots[j].Err = err
			}
			break
		}

		wg.Add(1)
		f, slot := fields[i], &slots[i]
		err := d.pool.Submit(func() {
			defer wg.Done()
			*slot = d.DecodeField(f)
		})
		if err != nil {
			wg.Done()
			slot.Err = fmt.Errorf("submitting %q: %w", f.Name, err)
		}
	}
	wg.Wait()

	failed := 0
	for i, name := range resp.names {
		resp.results[name] = slots[i]
		if slots[i].Code != codec.StatusOK {
			failed++
		}
	}

	d.logger.Debug("batch decoded",
		"id", resp.ID,
		"fields", len(fields),
		"failed", failed,
	)
	return resp, cancelErr
}
