package driver

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"veilbot/pkg/veil"
)

func TestRegistryBuildEnabled(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry([]Descriptor{
		{
			Type:     "telegram",
			Platform: veil.PlatformTelegram,
			Builder: func(
				_ context.Context,
				definition Definition,
				_ *slog.Logger,
			) (Runtime, error) {
				if definition.Name == "broken" {
					return Runtime{}, errors.New("broken build")
				}

				return Runtime{
					Source: veil.EventSource{
						Platform: veil.PlatformTelegram,
					},
					Driver: stubDriver{name: definition.Name},
				}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}

	_, err = registry.BuildEnabled(context.Background(), []Definition{
		{Name: "tg-main", Type: "telegram", Enabled: true, Config: []byte("{}")},
		{Name: "broken", Type: "telegram", Enabled: true, Config: []byte("{}")},
	}, slog.Default())
	if err == nil {
		t.Fatal("expected build error")
	}
}

func TestRegistryBuildEnabledAssignsDefinitionNameAsSourceID(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry([]Descriptor{
		{
			Type:     "telegram",
			Platform: veil.PlatformTelegram,
			Builder: func(context.Context, Definition, *slog.Logger) (Runtime, error) {
				return Runtime{
					Source: veil.EventSource{Platform: veil.PlatformTelegram},
					Driver: stubDriver{name: "telegram"},
				}, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}

	runtimes, err := registry.BuildEnabled(context.Background(), []Definition{
		{Name: "tg-main", Type: "telegram", Enabled: true},
		{Name: "tg-disabled", Type: "telegram", Enabled: false},
	}, slog.Default())
	if err != nil {
		t.Fatalf("build enabled failed: %v", err)
	}
	if len(runtimes) != 1 {
		t.Fatalf("runtimes len = %d, want 1", len(runtimes))
	}
	if runtimes[0].Source.ID != "tg-main" {
		t.Fatalf("source id = %s, want tg-main", runtimes[0].Source.ID)
	}
}

func TestCompositeOutboundDispatcherRoutesByID(t *testing.T) {
	t.Parallel()

	primary := &stubOutboundDispatcher{}
	secondary := &stubOutboundDispatcher{}
	dispatcher, err := NewCompositeOutboundDispatcher([]Runtime{
		{
			Source: veil.EventSource{
				Platform: veil.PlatformTelegram,
				ID:       "tg-main",
			},
			Dispatcher: primary,
		},
		{
			Source: veil.EventSource{
				Platform: veil.PlatformTelegram,
				ID:       "tg-alt",
			},
			Dispatcher: secondary,
		},
	})
	if err != nil {
		t.Fatalf("new composite outbound dispatcher failed: %v", err)
	}

	_, err = dispatcher.SendMessage(context.Background(), veil.SendMessageRequest{
		Target: veil.OutboundTarget{
			Conversation: veil.Conversation{ID: "1", Type: veil.ConversationTypeGroup},
			Sink: &veil.SinkRef{
				ID: "tg-main",
			},
		},
		Text: "hello",
	})
	if err != nil {
		t.Fatalf("send message failed: %v", err)
	}
	if primary.sendCalls != 1 {
		t.Fatalf("primary calls = %d, want 1", primary.sendCalls)
	}
	if secondary.sendCalls != 0 {
		t.Fatalf("secondary calls = %d, want 0", secondary.sendCalls)
	}
}

func TestCompositeOutboundDispatcherRoutesSinkOnlyRequests(t *testing.T) {
	t.Parallel()

	primary := &stubOutboundDispatcher{}
	dispatcher, err := NewCompositeOutboundDispatcher([]Runtime{
		{
			Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
			Dispatcher: primary,
		},
	})
	if err != nil {
		t.Fatalf("new composite outbound dispatcher failed: %v", err)
	}

	if err := dispatcher.AnswerControl(context.Background(), veil.AnswerControlRequest{
		Sink:    &veil.SinkRef{ID: "tg-main"},
		QueryID: "q-1",
	}); err != nil {
		t.Fatalf("answer control failed: %v", err)
	}
	if primary.answerCalls != 1 {
		t.Fatalf("answer calls = %d, want 1", primary.answerCalls)
	}

	_, err = dispatcher.SendDirect(context.Background(), veil.SendDirectRequest{
		ActorID: "42",
		Text:    "hello",
	})
	if err != nil {
		t.Fatalf("send direct with single sink failed: %v", err)
	}
	if primary.directCalls != 1 {
		t.Fatalf("direct calls = %d, want 1", primary.directCalls)
	}
}

func TestCompositeOutboundDispatcherAmbiguousPlatform(t *testing.T) {
	t.Parallel()

	dispatcher, err := NewCompositeOutboundDispatcher([]Runtime{
		{
			Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
			Dispatcher: &stubOutboundDispatcher{},
		},
		{
			Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-alt"},
			Dispatcher: &stubOutboundDispatcher{},
		},
	})
	if err != nil {
		t.Fatalf("new composite outbound dispatcher failed: %v", err)
	}

	_, err = dispatcher.SendMessage(context.Background(), veil.SendMessageRequest{
		Target: veil.OutboundTarget{
			Conversation: veil.Conversation{ID: "1", Type: veil.ConversationTypeGroup},
			Sink: &veil.SinkRef{
				Platform: veil.PlatformTelegram,
			},
		},
		Text: "hello",
	})
	if err == nil {
		t.Fatal("expected ambiguity error")
	}
	if !errors.Is(err, veil.ErrOutboundUnsupported) {
		t.Fatalf("error = %v, want %v", err, veil.ErrOutboundUnsupported)
	}
}

func TestCompositeOutboundDispatcherListSinksByPlatform(t *testing.T) {
	t.Parallel()

	dispatcher, err := NewCompositeOutboundDispatcher([]Runtime{
		{
			Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
			Dispatcher: &stubOutboundDispatcher{},
		},
	})
	if err != nil {
		t.Fatalf("new composite outbound dispatcher failed: %v", err)
	}

	sinks, err := dispatcher.ListSinksByPlatform(context.Background(), veil.PlatformTelegram)
	if err != nil {
		t.Fatalf("list sinks by platform failed: %v", err)
	}
	if len(sinks) != 1 {
		t.Fatalf("sinks len = %d, want 1", len(sinks))
	}
	if sinks[0].ID != "tg-main" {
		t.Fatalf("sink id = %s, want tg-main", sinks[0].ID)
	}
}

func TestCompositeOutboundDispatcherListSinksHonorsContext(t *testing.T) {
	t.Parallel()

	dispatcher, err := NewCompositeOutboundDispatcher(nil)
	if err != nil {
		t.Fatalf("new composite outbound dispatcher failed: %v", err)
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Unix(0, 0))
	cancel()
	_, err = dispatcher.ListSinks(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, expected context cancellation", err)
	}
}

func TestCompositeMediaFetcherRoutesByScheme(t *testing.T) {
	t.Parallel()

	platformFetcher := &stubMediaFetcher{content: &veil.MediaContent{Bytes: []byte("doc")}}
	webFetcher := &stubMediaFetcher{content: &veil.MediaContent{Bytes: []byte("web")}}
	fetcher, err := NewCompositeMediaFetcher(
		[]Runtime{
			{
				Source:       veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
				MediaFetcher: platformFetcher,
				MediaSchemes: []string{"tg"},
			},
		},
		map[string]veil.MediaFetcher{
			"http":  webFetcher,
			"https": webFetcher,
		},
	)
	if err != nil {
		t.Fatalf("new composite media fetcher failed: %v", err)
	}

	content, err := fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI: "tg://doc/100/200",
	})
	if err != nil {
		t.Fatalf("fetch platform media failed: %v", err)
	}
	if string(content.Bytes) != "doc" {
		t.Fatalf("content = %q, want doc", content.Bytes)
	}

	content, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI: "https://example.com/image.png",
	})
	if err != nil {
		t.Fatalf("fetch web media failed: %v", err)
	}
	if string(content.Bytes) != "web" {
		t.Fatalf("content = %q, want web", content.Bytes)
	}

	_, err = fetcher.FetchMedia(context.Background(), veil.FetchMediaRequest{
		URI: "ftp://example.com/file",
	})
	if !errors.Is(err, veil.ErrMediaUnsupported) {
		t.Fatalf("error = %v, want %v", err, veil.ErrMediaUnsupported)
	}
}

type stubDriver struct {
	name string
}

func (d stubDriver) Name() string {
	return d.name
}

func (d stubDriver) Start(_ context.Context, _ veil.EventSink) error {
	return nil
}

func (d stubDriver) Shutdown(_ context.Context) error {
	return nil
}

type stubOutboundDispatcher struct {
	sendCalls   int
	directCalls int
	answerCalls int
}

func (d *stubOutboundDispatcher) SendMessage(
	_ context.Context,
	request veil.SendMessageRequest,
) (*veil.OutboundMessage, error) {
	d.sendCalls++

	return &veil.OutboundMessage{
		ID: "1",
		Target: veil.OutboundTarget{
			Conversation: request.Target.Conversation,
			Sink:         request.Target.Sink,
		},
	}, nil
}

func (*stubOutboundDispatcher) DeleteMessage(context.Context, veil.DeleteMessageRequest) error {
	return nil
}

func (*stubOutboundDispatcher) FetchMessage(
	_ context.Context,
	request veil.FetchMessageRequest,
) (*veil.Message, error) {
	return &veil.Message{ID: request.MessageID}, nil
}

func (d *stubOutboundDispatcher) SendDirect(
	context.Context,
	veil.SendDirectRequest,
) (*veil.OutboundMessage, error) {
	d.directCalls++

	return &veil.OutboundMessage{ID: "1"}, nil
}

func (d *stubOutboundDispatcher) AnswerControl(context.Context, veil.AnswerControlRequest) error {
	d.answerCalls++

	return nil
}

type stubMediaFetcher struct {
	content *veil.MediaContent
}

func (f *stubMediaFetcher) FetchMedia(
	context.Context,
	veil.FetchMediaRequest,
) (*veil.MediaContent, error) {
	return f.content, nil
}
