package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"veilbot/pkg/veil"
)

// Definition describes one configured driver entry.
type Definition struct {
	// Name is the stable configured driver instance identifier.
	Name string
	// Type identifies which builder should construct this runtime.
	Type string
	// Enabled controls whether this definition is active.
	Enabled bool
	// Config stores driver-type-specific JSON payload.
	Config []byte
}

// Runtime contains one fully built driver runtime instance.
type Runtime struct {
	// Source identifies the concrete event source produced by Driver.
	Source veil.EventSource
	// Driver is the inbound runtime implementation registered with kernel.
	Driver veil.Driver
	// Dispatcher adapts outbound operations for this runtime when supported.
	Dispatcher veil.OutboundDispatcher
	// MediaFetcher retrieves platform-opaque attachment content when supported.
	MediaFetcher veil.MediaFetcher
	// MediaSchemes lists attachment URI schemes handled by MediaFetcher.
	MediaSchemes []string
}

// BuilderFunc builds one runtime from one configured driver definition.
type BuilderFunc func(ctx context.Context, definition Definition, logger *slog.Logger) (Runtime, error)

// Descriptor binds one driver type token to platform metadata and a runtime builder.
type Descriptor struct {
	// Type is the driver type token from configuration (for example "telegram").
	Type string
	// Platform is the neutral veil platform for this driver type.
	Platform veil.Platform
	// Builder constructs one runtime instance for this driver type.
	Builder BuilderFunc
}

type registryEntry struct {
	platform veil.Platform
	builder  BuilderFunc
}

// Registry maps driver types to runtime builders and type-level platform metadata.
type Registry struct {
	entries map[string]registryEntry
	types   []string
}

// NewRegistry creates one immutable driver registry from descriptors.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	entries := make(map[string]registryEntry, len(descriptors))
	types := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Type == "" {
			return nil, fmt.Errorf("new registry: empty descriptor type")
		}
		if descriptor.Platform == "" {
			return nil, fmt.Errorf("new registry type %s: empty platform", descriptor.Type)
		}
		if descriptor.Builder == nil {
			return nil, fmt.Errorf("new registry type %s: nil builder", descriptor.Type)
		}
		if _, exists := entries[descriptor.Type]; exists {
			return nil, fmt.Errorf("new registry type %s: duplicate", descriptor.Type)
		}

		entries[descriptor.Type] = registryEntry{
			platform: descriptor.Platform,
			builder:  descriptor.Builder,
		}
		types = append(types, descriptor.Type)
	}
	sort.Strings(types)

	return &Registry{
		entries: entries,
		types:   types,
	}, nil
}

// Types returns all registered driver types in deterministic sorted order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}

	types := make([]string, len(r.types))
	copy(types, r.types)

	return types
}

// PlatformForType resolves one registered driver type to its neutral veil platform.
func (r *Registry) PlatformForType(driverType string) (veil.Platform, error) {
	if r == nil {
		return "", fmt.Errorf("resolve platform: nil registry")
	}

	entry, exists := r.entries[driverType]
	if !exists {
		return "", fmt.Errorf("unsupported type %s", driverType)
	}

	return entry.platform, nil
}

// BuildEnabled builds all enabled driver definitions.
func (r *Registry) BuildEnabled(
	ctx context.Context,
	definitions []Definition,
	logger *slog.Logger,
) ([]Runtime, error) {
	if r == nil {
		return nil, fmt.Errorf("build drivers: nil registry")
	}

	runtimes := make([]Runtime, 0, len(definitions))
	seenNames := make(map[string]struct{}, len(definitions))
	for _, definition := range definitions {
		if !definition.Enabled {
			continue
		}
		if definition.Name == "" {
			return nil, fmt.Errorf("build driver: empty name")
		}
		if _, exists := seenNames[definition.Name]; exists {
			return nil, fmt.Errorf("build driver %s: duplicate name", definition.Name)
		}
		seenNames[definition.Name] = struct{}{}
		if definition.Type == "" {
			return nil, fmt.Errorf("build driver %s: empty type", definition.Name)
		}

		entry, exists := r.entries[definition.Type]
		if !exists {
			return nil, fmt.Errorf("build driver %s type %s: unsupported type", definition.Name, definition.Type)
		}

		runtime, err := entry.builder(ctx, definition, logger)
		if err != nil {
			return nil, fmt.Errorf("build driver %s type %s: %w", definition.Name, definition.Type, err)
		}
		if runtime.Driver == nil {
			return nil, fmt.Errorf("build driver %s type %s: nil driver", definition.Name, definition.Type)
		}
		if runtime.Source.Platform == "" {
			return nil, fmt.Errorf("build driver %s type %s: missing source platform", definition.Name, definition.Type)
		}
		if runtime.Source.ID == "" {
			runtime.Source.ID = definition.Name
		}

		runtimes = append(runtimes, runtime)
	}

	return runtimes, nil
}

type outboundRoute struct {
	ref        veil.SinkRef
	dispatcher veil.OutboundDispatcher
}

// CompositeOutboundDispatcher routes outbound operations to per-driver dispatchers.
type CompositeOutboundDispatcher struct {
	byID         map[string]outboundRoute
	byPlatform   map[veil.Platform][]string
	sortedSinkID []string
}

// NewCompositeOutboundDispatcher creates a composite dispatcher from runtime sinks.
func NewCompositeOutboundDispatcher(runtimes []Runtime) (*CompositeOutboundDispatcher, error) {
	byID := make(map[string]outboundRoute)
	byPlatform := make(map[veil.Platform][]string)
	sortedIDs := make([]string, 0, len(runtimes))
	for _, runtime := range runtimes {
		if runtime.Dispatcher == nil {
			continue
		}
		if runtime.Source.ID == "" {
			return nil, fmt.Errorf("new composite outbound dispatcher: missing sink id")
		}
		if _, exists := byID[runtime.Source.ID]; exists {
			return nil, fmt.Errorf("new composite outbound dispatcher: duplicate sink id %s", runtime.Source.ID)
		}

		ref := veil.SinkRef{
			Platform: runtime.Source.Platform,
			ID:       runtime.Source.ID,
		}
		byID[ref.ID] = outboundRoute{
			ref:        ref,
			dispatcher: runtime.Dispatcher,
		}
		byPlatform[ref.Platform] = append(byPlatform[ref.Platform], ref.ID)
		sortedIDs = append(sortedIDs, ref.ID)
	}
	sort.Strings(sortedIDs)

	return &CompositeOutboundDispatcher{
		byID:         byID,
		byPlatform:   byPlatform,
		sortedSinkID: sortedIDs,
	}, nil
}

// SendMessage routes send-message requests to one concrete sink.
func (d *CompositeOutboundDispatcher) SendMessage(
	ctx context.Context,
	request veil.SendMessageRequest,
) (*veil.OutboundMessage, error) {
	dispatcher, err := d.resolveTarget(request.Target)
	if err != nil {
		return nil, fmt.Errorf("resolve sink for send message: %w", err)
	}

	response, err := dispatcher.SendMessage(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("route send message: %w", err)
	}

	return response, nil
}

// DeleteMessage routes delete-message requests to one concrete sink.
func (d *CompositeOutboundDispatcher) DeleteMessage(ctx context.Context, request veil.DeleteMessageRequest) error {
	dispatcher, err := d.resolveTarget(request.Target)
	if err != nil {
		return fmt.Errorf("resolve sink for delete message: %w", err)
	}

	if err := dispatcher.DeleteMessage(ctx, request); err != nil {
		return fmt.Errorf("route delete message: %w", err)
	}

	return nil
}

// FetchMessage routes fetch-message requests to one concrete sink.
func (d *CompositeOutboundDispatcher) FetchMessage(
	ctx context.Context,
	request veil.FetchMessageRequest,
) (*veil.Message, error) {
	dispatcher, err := d.resolveTarget(request.Target)
	if err != nil {
		return nil, fmt.Errorf("resolve sink for fetch message: %w", err)
	}

	message, err := dispatcher.FetchMessage(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("route fetch message: %w", err)
	}

	return message, nil
}

// SendDirect routes direct-message requests to one concrete sink.
func (d *CompositeOutboundDispatcher) SendDirect(
	ctx context.Context,
	request veil.SendDirectRequest,
) (*veil.OutboundMessage, error) {
	dispatcher, err := d.resolveSink(request.Sink)
	if err != nil {
		return nil, fmt.Errorf("resolve sink for send direct: %w", err)
	}

	response, err := dispatcher.SendDirect(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("route send direct: %w", err)
	}

	return response, nil
}

// AnswerControl routes control-answer requests to one concrete sink.
func (d *CompositeOutboundDispatcher) AnswerControl(ctx context.Context, request veil.AnswerControlRequest) error {
	dispatcher, err := d.resolveSink(request.Sink)
	if err != nil {
		return fmt.Errorf("resolve sink for answer control: %w", err)
	}

	if err := dispatcher.AnswerControl(ctx, request); err != nil {
		return fmt.Errorf("route answer control: %w", err)
	}

	return nil
}

// ListSinks returns all known concrete sinks.
func (d *CompositeOutboundDispatcher) ListSinks(ctx context.Context) ([]veil.SinkRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}
	sinks := make([]veil.SinkRef, 0, len(d.sortedSinkID))
	for _, id := range d.sortedSinkID {
		route, exists := d.byID[id]
		if !exists {
			continue
		}
		sinks = append(sinks, route.ref)
	}

	return sinks, nil
}

// ListSinksByPlatform returns all known concrete sinks for one platform.
func (d *CompositeOutboundDispatcher) ListSinksByPlatform(
	ctx context.Context,
	platform veil.Platform,
) ([]veil.SinkRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list sinks by platform: %w", err)
	}

	ids := d.byPlatform[platform]
	sinks := make([]veil.SinkRef, 0, len(ids))
	for _, id := range ids {
		route, exists := d.byID[id]
		if !exists {
			continue
		}
		sinks = append(sinks, route.ref)
	}

	return sinks, nil
}

func (d *CompositeOutboundDispatcher) resolveTarget(target veil.OutboundTarget) (veil.OutboundDispatcher, error) {
	return d.resolveSink(target.Sink)
}

func (d *CompositeOutboundDispatcher) resolveSink(ref *veil.SinkRef) (veil.OutboundDispatcher, error) {
	if d == nil {
		return nil, fmt.Errorf("nil dispatcher")
	}
	if len(d.byID) == 0 {
		return nil, fmt.Errorf("%w: no sinks configured", veil.ErrOutboundUnsupported)
	}

	if ref != nil {
		return d.resolveSinkRef(*ref)
	}
	if len(d.byID) == 1 {
		for _, route := range d.byID {
			return route.dispatcher, nil
		}
	}

	return nil, fmt.Errorf("%w: missing target sink", veil.ErrOutboundUnsupported)
}

func (d *CompositeOutboundDispatcher) resolveSinkRef(ref veil.SinkRef) (veil.OutboundDispatcher, error) {
	if ref.ID != "" {
		route, exists := d.byID[ref.ID]
		if !exists {
			return nil, fmt.Errorf("%w: sink %s not found", veil.ErrOutboundUnsupported, ref.ID)
		}
		if ref.Platform != "" && route.ref.Platform != ref.Platform {
			return nil, fmt.Errorf(
				"%w: sink %s platform mismatch: expected %s got %s",
				veil.ErrOutboundUnsupported,
				ref.ID,
				ref.Platform,
				route.ref.Platform,
			)
		}

		return route.dispatcher, nil
	}
	if ref.Platform != "" {
		ids := d.byPlatform[ref.Platform]
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: no sink for platform %s", veil.ErrOutboundUnsupported, ref.Platform)
		}
		if len(ids) > 1 {
			return nil, fmt.Errorf("%w: ambiguous sink for platform %s", veil.ErrOutboundUnsupported, ref.Platform)
		}
		route, exists := d.byID[ids[0]]
		if !exists {
			return nil, fmt.Errorf("%w: sink %s not found", veil.ErrOutboundUnsupported, ids[0])
		}

		return route.dispatcher, nil
	}

	return nil, fmt.Errorf("%w: empty sink reference", veil.ErrOutboundUnsupported)
}

// CompositeMediaFetcher routes attachment fetches to scheme-specific fetchers.
type CompositeMediaFetcher struct {
	bySchemes map[string]veil.MediaFetcher
}

// NewCompositeMediaFetcher builds one fetcher from driver runtimes plus extra
// scheme bindings (for example http/https).
func NewCompositeMediaFetcher(
	runtimes []Runtime,
	extra map[string]veil.MediaFetcher,
) (*CompositeMediaFetcher, error) {
	bySchemes := make(map[string]veil.MediaFetcher)
	for scheme, fetcher := range extra {
		if scheme == "" {
			return nil, fmt.Errorf("new composite media fetcher: empty scheme")
		}
		if fetcher == nil {
			return nil, fmt.Errorf("new composite media fetcher scheme %s: nil fetcher", scheme)
		}
		bySchemes[strings.ToLower(scheme)] = fetcher
	}
	for _, runtime := range runtimes {
		if runtime.MediaFetcher == nil {
			continue
		}
		for _, scheme := range runtime.MediaSchemes {
			normalized := strings.ToLower(scheme)
			if normalized == "" {
				return nil, fmt.Errorf("new composite media fetcher: empty scheme for source %s", runtime.Source.ID)
			}
			if _, exists := bySchemes[normalized]; exists {
				return nil, fmt.Errorf("new composite media fetcher: duplicate scheme %s", normalized)
			}
			bySchemes[normalized] = runtime.MediaFetcher
		}
	}

	return &CompositeMediaFetcher{bySchemes: bySchemes}, nil
}

// FetchMedia routes one attachment fetch to the fetcher owning the URI scheme.
func (f *CompositeMediaFetcher) FetchMedia(
	ctx context.Context,
	request veil.FetchMediaRequest,
) (*veil.MediaContent, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}

	scheme, _, found := strings.Cut(request.URI, "://")
	if !found || scheme == "" {
		return nil, fmt.Errorf("%w: uri %q has no scheme", veil.ErrMediaUnsupported, request.URI)
	}
	fetcher, exists := f.bySchemes[strings.ToLower(scheme)]
	if !exists {
		return nil, fmt.Errorf("%w: no fetcher for scheme %s", veil.ErrMediaUnsupported, scheme)
	}

	content, err := fetcher.FetchMedia(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("route fetch media scheme %s: %w", scheme, err)
	}

	return content, nil
}
