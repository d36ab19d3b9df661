package bridge

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-wallet-bridge/adapters/gojob"
	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/transport"
)

// TransportPack is a named set of transport factories a host application
// contributes to the bridge's transport registry.
type TransportPack struct {
	Name  string
	Kinds map[string]transport.Factory
}

// JobPack is a named set of scheduled job definitions a host application
// runs alongside the built-in maintenance jobs.
type JobPack struct {
	Name        string
	Definitions []gojob.Definition
}

// BundleFactory builds a host-defined command/query bundle against the
// bridge control surface.
type BundleFactory func(surface ControlSurface) (any, error)

// ExtensionHooks collects host-side extensions before the bridge runtime is
// assembled: extra transport kinds, extra scheduled jobs, and command/query
// bundles layered over the control surface. Registration is idempotent-safe
// in the failing direction: duplicate names are rejected.
type ExtensionHooks struct {
	mu sync.RWMutex

	transportPacks map[string]TransportPack
	jobPacks       map[string]JobPack
	bundles        map[string]BundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		transportPacks: map[string]TransportPack{},
		jobPacks:       map[string]JobPack{},
		bundles:        map[string]BundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterTransportPack(pack TransportPack) error {
	if h == nil {
		return fmt.Errorf("bridge: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("bridge: transport pack name is required")
	}
	if len(pack.Kinds) == 0 {
		return fmt.Errorf("bridge: transport pack %q has no kinds", name)
	}

	kinds := make(map[string]transport.Factory, len(pack.Kinds))
	for kind, factory := range pack.Kinds {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return fmt.Errorf("bridge: transport pack %q has a blank kind", name)
		}
		kinds[kind] = factory
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.transportPacks[name]; exists {
		return fmt.Errorf("bridge: transport pack %q already registered", name)
	}
	h.transportPacks[name] = TransportPack{Name: name, Kinds: kinds}
	return nil
}

func (h *ExtensionHooks) RegisterJobPack(pack JobPack) error {
	if h == nil {
		return fmt.Errorf("bridge: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("bridge: job pack name is required")
	}
	if len(pack.Definitions) == 0 {
		return fmt.Errorf("bridge: job pack %q has no definitions", name)
	}

	normalized := JobPack{
		Name:        name,
		Definitions: append([]gojob.Definition(nil), pack.Definitions...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.jobPacks[name]; exists {
		return fmt.Errorf("bridge: job pack %q already registered", name)
	}
	h.jobPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterBundle(name string, factory BundleFactory) error {
	if h == nil {
		return fmt.Errorf("bridge: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("bridge: bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("bridge: bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("bridge: bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyTransportPacks registers every pack's factories on the given registry.
// Packs and kinds apply in lexical order so collisions fail deterministically.
func (h *ExtensionHooks) ApplyTransportPacks(registry *transport.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("bridge: transport registry is required")
	}

	for _, pack := range h.TransportPacks() {
		kinds := make([]string, 0, len(pack.Kinds))
		for kind := range pack.Kinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			factory := pack.Kinds[kind]
			if factory == nil {
				return fmt.Errorf("bridge: transport pack %q has nil factory for kind %q", pack.Name, kind)
			}
			if err := registry.RegisterFactory(kind, factory); err != nil {
				return err
			}
		}
	}
	return nil
}

// JobDefinitions returns the built-in maintenance jobs derived from config
// followed by every registered pack's definitions, packs in lexical order.
func (h *ExtensionHooks) JobDefinitions(cfg core.Config) []gojob.Definition {
	definitions := gojob.Definitions(cfg)
	if h == nil {
		return definitions
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.jobPacks))
	for name := range h.jobPacks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		definitions = append(definitions, h.jobPacks[name].Definitions...)
	}
	h.mu.RUnlock()

	return definitions
}

// BuildBundles constructs every registered bundle against the surface, in
// lexical name order. The first factory error aborts the build.
func (h *ExtensionHooks) BuildBundles(surface ControlSurface) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if surface == nil {
		return nil, fmt.Errorf("bridge: control surface is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]BundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](surface)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) TransportPacks() []TransportPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.transportPacks))
	for name := range h.transportPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TransportPack, 0, len(names))
	for _, name := range names {
		pack := h.transportPacks[name]
		kinds := make(map[string]transport.Factory, len(pack.Kinds))
		for kind, factory := range pack.Kinds {
			kinds[kind] = factory
		}
		out = append(out, TransportPack{Name: pack.Name, Kinds: kinds})
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
