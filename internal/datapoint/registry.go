package datapoint

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
)

// Logger defines the logging interface used by the Registry.
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

// Registry wraps a Repository with an in-memory cache keyed by name and an
// index from KNX group address to datapoint name.
//
// The cache is loaded by RefreshCache and kept in sync by the write methods.
// All methods are safe for concurrent use.
type Registry struct {
	repo    Repository
	cache   map[string]*Datapoint
	byGA    map[uint16]string
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a registry over repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Datapoint),
		byGA:   make(map[uint16]string),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads every datapoint from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	all, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading datapoints: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Datapoint, len(all))
	r.byGA = make(map[uint16]string)
	for i := range all {
		r.storeLocked(all[i].Clone())
	}

	r.logger.Info("datapoint cache refreshed", "count", len(all))
	return nil
}

// Get returns a copy of the named datapoint.
func (r *Registry) Get(ctx context.Context, name string) (*Datapoint, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[name]
	r.cacheMu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	d, err := r.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	r.cacheMu.Lock()
	r.storeLocked(d.Clone())
	r.cacheMu.Unlock()
	return d, nil
}

// List returns copies of every cached datapoint, sorted by name.
func (r *Registry) List() []Datapoint {
	r.cacheMu.RLock()
	out := make([]Datapoint, 0, len(r.cache))
	for _, d := range r.cache {
		out = append(out, *d)
	}
	r.cacheMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByGroupAddress returns the datapoint bound to ga.
func (r *Registry) ByGroupAddress(ga knx.GroupAddress) (*Datapoint, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	name, ok := r.byGA[ga.ToUint16()]
	if !ok {
		return nil, fmt.Errorf("%w: group address %s", ErrNotFound, ga)
	}
	return r.cache[name].Clone(), nil
}

// Count returns the number of cached datapoints.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Create validates and persists a new datapoint.
func (r *Registry) Create(ctx context.Context, d *Datapoint) error {
	if err := Validate(d); err != nil {
		return err
	}
	if d.Source == "" {
		d.Source = SourceAPI
	}
	if err := r.repo.Create(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.storeLocked(d.Clone())
	r.cacheMu.Unlock()

	r.logger.Info("datapoint created", "name", d.Name, "token", d.Token)
	return nil
}

// Update validates and persists changes to an existing datapoint.
func (r *Registry) Update(ctx context.Context, d *Datapoint) error {
	if err := Validate(d); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, d); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.storeLocked(d.Clone())
	r.cacheMu.Unlock()

	r.logger.Info("datapoint updated", "name", d.Name, "token", d.Token)
	return nil
}

// Upsert validates and creates or replaces a datapoint. It reports whether
// the datapoint was created.
func (r *Registry) Upsert(ctx context.Context, d *Datapoint) (bool, error) {
	if err := Validate(d); err != nil {
		return false, err
	}
	created, err := r.repo.Upsert(ctx, d)
	if err != nil {
		return false, err
	}

	r.cacheMu.Lock()
	r.storeLocked(d.Clone())
	r.cacheMu.Unlock()
	return created, nil
}

// Delete removes a datapoint.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.repo.Delete(ctx, name); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.removeLocked(name)
	r.cacheMu.Unlock()

	r.logger.Info("datapoint deleted", "name", name)
	return nil
}

// ApplyResult summarises a bulk Apply.
type ApplyResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// Apply upserts a set of datapoints, as loaded from a seed file or an ETS
// export. Invalid entries are skipped and reported; repository failures
// abort the run.
func (r *Registry) Apply(ctx context.Context, set []Datapoint, source Source) (ApplyResult, error) {
	var res ApplyResult
	for i := range set {
		d := set[i]
		d.Source = source

		created, err := r.Upsert(ctx, &d)
		switch {
		case err == nil && created:
			res.Created++
		case err == nil:
			res.Updated++
		case isValidationError(err):
			r.logger.Warn("skipping datapoint", "name", d.Name, "error", err)
			res.Skipped = append(res.Skipped, d.Name)
		default:
			return res, fmt.Errorf("applying %q: %w", d.Name, err)
		}
	}

	r.logger.Info("datapoints applied",
		"source", source,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// storeLocked caches d and re-indexes its group address. The caller holds
// cacheMu for writing.
func (r *Registry) storeLocked(d *Datapoint) {
	r.removeLocked(d.Name)
	r.cache[d.Name] = d
	if ga, ok := d.ParsedGroupAddress(); ok {
		r.byGA[ga.ToUint16()] = d.Name
	}
}

func (r *Registry) removeLocked(name string) {
	old, ok := r.cache[name]
	if !ok {
		return
	}
	if ga, ok := old.ParsedGroupAddress(); ok && r.byGA[ga.ToUint16()] == name {
		delete(r.byGA, ga.ToUint16())
	}
	delete(r.cache, name)
}
