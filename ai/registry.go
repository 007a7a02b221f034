package ai

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// healthProbeConcurrency bounds parallel IsAvailable probes in HealthCheck.
const healthProbeConcurrency = 8

type providerEntry struct {
	provider   Provider
	descriptor Descriptor
}

// Recorder receives registry events for metrics export. Implementations
// must be safe for concurrent use. See ai/metrics for the Prometheus one.
type Recorder interface {
	RecordChat(providerID string, fallback bool, err error)
	RecordHealth(providerID string, available bool)
}

// Registry holds the set of configured providers and routes chat requests
// to a named or default provider with one level of automatic fallback.
//
// The registry owns its descriptor set for the process lifetime; construct
// one at startup, register at least the simulated fallback provider, and
// inject it wherever needed. Tests construct their own isolated instances.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*providerEntry
	defaultID string

	recorder Recorder
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*providerEntry),
	}
}

// SetRecorder attaches a metrics recorder. Pass nil to detach.
func (r *Registry) SetRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// Register adds a provider under the descriptor's id. Registering an id
// twice fails with ErrDuplicateProvider. The first registered provider
// becomes the default; a descriptor with IsDefault set also claims the
// default slot, clearing it from all others.
func (r *Registry) Register(id string, provider Provider, desc Descriptor) error {
	if id == "" {
		return errors.New("provider id is required")
	}
	if provider == nil {
		return errors.Errorf("provider %s: nil implementation", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; exists {
		return errors.Wrap(ErrDuplicateProvider, id)
	}

	desc.ID = id
	claimDefault := desc.IsDefault || len(r.providers) == 0
	desc.IsDefault = false
	r.providers[id] = &providerEntry{provider: provider, descriptor: desc}
	if claimDefault {
		r.setDefaultLocked(id)
	}

	slog.Info("ai: provider registered", "id", id, "kind", desc.Kind, "default", claimDefault)
	return nil
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.providers[id]
	if !ok {
		return nil, false
	}
	return entry.provider, true
}

// GetAll returns descriptor snapshots for every registered provider,
// sorted by id.
func (r *Registry) GetAll() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]Descriptor, 0, len(r.providers))
	for _, entry := range r.providers {
		descs = append(descs, entry.descriptor)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
	return descs
}

// SetDefault marks id as the default provider, atomically clearing the
// flag from all others. Fails with ErrProviderNotFound for unknown ids.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[id]; !ok {
		return errors.Wrap(ErrProviderNotFound, id)
	}
	r.setDefaultLocked(id)
	return nil
}

func (r *Registry) setDefaultLocked(id string) {
	for pid, entry := range r.providers {
		entry.descriptor.IsDefault = pid == id
	}
	r.defaultID = id
}

// GetDefault returns the default provider with its descriptor. If no
// descriptor carries the default flag (which should not happen after
// startup) an arbitrary registered provider is returned. Fails with
// ErrNoProvidersRegistered only when the registry is empty.
func (r *Registry) GetDefault() (Provider, Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getDefaultLocked()
}

func (r *Registry) getDefaultLocked() (Provider, Descriptor, error) {
	if len(r.providers) == 0 {
		return nil, Descriptor{}, ErrNoProvidersRegistered
	}
	if entry, ok := r.providers[r.defaultID]; ok {
		return entry.provider, entry.descriptor, nil
	}
	for _, entry := range r.providers {
		return entry.provider, entry.descriptor, nil
	}
	return nil, Descriptor{}, ErrNoProvidersRegistered
}

// RemoveProvider removes a non-default provider. Removing the current
// default fails with ErrCannotRemoveDefault; reassign the default first.
func (r *Registry) RemoveProvider(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[id]; !ok {
		return errors.Wrap(ErrProviderNotFound, id)
	}
	if id == r.defaultID {
		return errors.Wrap(ErrCannotRemoveDefault, id)
	}
	delete(r.providers, id)
	slog.Info("ai: provider removed", "id", id)
	return nil
}

// Chat resolves the target provider (explicit id, or the default when
// providerID is empty) and invokes its generation call. If the target
// fails and was not already the default, the call is retried exactly once
// against the default provider; a default failure propagates unchanged.
// Provider calls run outside the registry lock.
func (r *Registry) Chat(ctx context.Context, req Request, providerID string) (*Response, error) {
	target, targetDesc, defaultProvider, defaultDesc, err := r.resolveChatTarget(providerID)
	if err != nil {
		return nil, err
	}

	resp, err := invokeProvider(ctx, target, targetDesc, req)
	r.record(targetDesc.ID, false, err)
	if err == nil {
		return resp, nil
	}
	if targetDesc.ID == defaultDesc.ID {
		return nil, err
	}

	slog.Warn("ai: provider failed, falling back to default",
		"provider", targetDesc.ID,
		"default", defaultDesc.ID,
		"error", err,
	)

	resp, err = invokeProvider(ctx, defaultProvider, defaultDesc, req)
	r.record(defaultDesc.ID, true, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// resolveChatTarget snapshots the target and default providers under the
// read lock so Chat never holds the lock across a provider call.
func (r *Registry) resolveChatTarget(providerID string) (Provider, Descriptor, Provider, Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defaultProvider, defaultDesc, err := r.getDefaultLocked()
	if err != nil {
		return nil, Descriptor{}, nil, Descriptor{}, err
	}
	if providerID == "" {
		return defaultProvider, defaultDesc, defaultProvider, defaultDesc, nil
	}
	entry, ok := r.providers[providerID]
	if !ok {
		return nil, Descriptor{}, nil, Descriptor{}, errors.Wrap(ErrProviderNotFound, providerID)
	}
	return entry.provider, entry.descriptor, defaultProvider, defaultDesc, nil
}

// invokeProvider calls the provider's generation method and stamps provider
// identity on the response. Providers implementing ChatCompleter get the
// full request; for the rest it is flattened into a prompt plus context,
// which drops tools and sampling parameters by construction.
func invokeProvider(ctx context.Context, p Provider, desc Descriptor, req Request) (*Response, error) {
	if completer, ok := p.(ChatCompleter); ok {
		resp, err := completer.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.ProviderID = desc.ID
		return resp, nil
	}

	prompt, aictx := splitRequest(req)
	content, err := p.GenerateResponse(ctx, prompt, aictx)
	if err != nil {
		return nil, err
	}
	return &Response{
		Content:    content,
		ProviderID: desc.ID,
	}, nil
}

// splitRequest separates the trailing user message (the prompt) from the
// preceding history and system messages.
func splitRequest(req Request) (string, *Context) {
	if len(req.Messages) == 0 {
		return "", &Context{}
	}
	last := req.Messages[len(req.Messages)-1]
	return last.Content, &Context{History: req.Messages[:len(req.Messages)-1]}
}

// HealthCheck probes every registered provider concurrently and reports
// availability per id. A probe that panics is recorded as false and never
// propagates.
func (r *Registry) HealthCheck(ctx context.Context) map[string]bool {
	r.mu.RLock()
	targets := make(map[string]Provider, len(r.providers))
	for id, entry := range r.providers {
		targets[id] = entry.provider
	}
	r.mu.RUnlock()

	var mu sync.Mutex
	results := make(map[string]bool, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(healthProbeConcurrency)
	for id, p := range targets {
		id, p := id, p
		g.Go(func() error {
			available := probe(ctx, p)
			mu.Lock()
			results[id] = available
			mu.Unlock()
			r.recordHealth(id, available)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes never return errors

	r.updateStatuses(results)
	return results
}

// probe shields HealthCheck from a misbehaving IsAvailable implementation.
func probe(ctx context.Context, p Provider) (available bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("ai: health probe panicked", "panic", rec)
			available = false
		}
	}()
	return p.IsAvailable(ctx)
}

func (r *Registry) updateStatuses(results map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, available := range results {
		entry, ok := r.providers[id]
		if !ok {
			continue
		}
		if available {
			entry.descriptor.Status = StatusConnected
		} else {
			entry.descriptor.Status = StatusDisconnected
		}
	}
}

func (r *Registry) record(providerID string, fallback bool, err error) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordChat(providerID, fallback, err)
	}
}

func (r *Registry) recordHealth(providerID string, available bool) {
	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordHealth(providerID, available)
	}
}
