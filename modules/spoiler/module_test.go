package spoiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"veilbot/pkg/veil"

	"github.com/google/go-cmp/cmp"
)

type stubDispatcher struct {
	mu sync.Mutex

	sent    []veil.SendMessageRequest
	sendIDs []string
	sendErr error

	deleted   []veil.DeleteMessageRequest
	deleteErr error

	fetched    map[string]*veil.Message
	fetchCalls int

	directs   []veil.SendDirectRequest
	directErr error

	answers []veil.AnswerControlRequest
}

func fetchKey(conversationID, messageID string) string {
	return conversationID + "/" + messageID
}

func (d *stubDispatcher) SendMessage(_ context.Context, request veil.SendMessageRequest) (*veil.OutboundMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return nil, d.sendErr
	}
	d.sent = append(d.sent, request)
	id := fmt.Sprintf("generated-%d", len(d.sent))
	if len(d.sendIDs) > 0 {
		id = d.sendIDs[0]
		d.sendIDs = d.sendIDs[1:]
	}

	return &veil.OutboundMessage{ID: id, Target: request.Target}, nil
}

func (d *stubDispatcher) DeleteMessage(_ context.Context, request veil.DeleteMessageRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, request)

	return d.deleteErr
}

func (d *stubDispatcher) FetchMessage(_ context.Context, request veil.FetchMessageRequest) (*veil.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetchCalls++
	message, ok := d.fetched[fetchKey(request.Target.Conversation.ID, request.MessageID)]
	if !ok {
		return nil, &veil.OutboundError{
			Operation: veil.OutboundOperationFetchMessage,
			Kind:      veil.OutboundErrorKindNotFound,
			Platform:  veil.PlatformTelegram,
		}
	}

	return message, nil
}

func (d *stubDispatcher) SendDirect(_ context.Context, request veil.SendDirectRequest) (*veil.OutboundMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.directErr != nil {
		return nil, d.directErr
	}
	d.directs = append(d.directs, request)

	return &veil.OutboundMessage{ID: "direct-1"}, nil
}

func (d *stubDispatcher) AnswerControl(_ context.Context, request veil.AnswerControlRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, request)

	return nil
}

type stubFetcher struct {
	mu       sync.Mutex
	contents map[string]*veil.MediaContent
	errs     map[string]error
	calls    []veil.FetchMediaRequest
}

func (f *stubFetcher) FetchMedia(_ context.Context, request veil.FetchMediaRequest) (*veil.MediaContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, request)
	if err, ok := f.errs[request.URI]; ok {
		return nil, err
	}
	content, ok := f.contents[request.URI]
	if !ok {
		return nil, fmt.Errorf("no content for %s", request.URI)
	}

	return content, nil
}

func testConfig() Config {
	return Config{
		ArchiveConversationID:   "777000",
		ArchiveConversationType: veil.ConversationTypeChannel,
		MarkerEmoji:             "🙈",
		RevealCooldown:          10 * time.Second,
		PublishDelay:            200 * time.Millisecond,
	}
}

type testHarness struct {
	module     *Module
	dispatcher *stubDispatcher
	fetcher    *stubFetcher
	clock      *fakeClock
	slept      *[]time.Duration
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	dispatcher := &stubDispatcher{fetched: make(map[string]*veil.Message)}
	fetcher := &stubFetcher{
		contents: make(map[string]*veil.MediaContent),
		errs:     make(map[string]error),
	}
	clock := newFakeClock()
	var slept []time.Duration

	module, err := New(
		testConfig(),
		withClock(clock.Now),
		withSleep(func(_ context.Context, d time.Duration) {
			slept = append(slept, d)
		}),
	)
	if err != nil {
		t.Fatalf("new spoiler module failed: %v", err)
	}
	module.dispatcher = dispatcher
	module.fetcher = fetcher
	module.logger = slog.New(slog.DiscardHandler)

	return &testHarness{
		module:     module,
		dispatcher: dispatcher,
		fetcher:    fetcher,
		clock:      clock,
		slept:      &slept,
	}
}

func commandEvent(value string, media []veil.MediaAttachment) *veil.Event {
	return &veil.Event{
		ID:         "evt-1#command",
		Kind:       veil.EventKindCommandReceived,
		OccurredAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Platform:   veil.PlatformTelegram,
		Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
		Conversation: veil.Conversation{
			ID:   "100200",
			Type: veil.ConversationTypeGroup,
		},
		Actor: veil.Actor{ID: "42", Username: "alice", DisplayName: "Alice"},
		Message: &veil.Message{
			ID:    "555",
			Text:  "/spoiler " + value,
			Media: media,
		},
		Command: &veil.CommandInvocation{
			Name:          commandName,
			Value:         value,
			SourceEventID: "evt-1",
		},
	}
}

func controlEvent(messageID string) *veil.Event {
	return &veil.Event{
		ID:         "evt-2",
		Kind:       veil.EventKindControlPressed,
		OccurredAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Platform:   veil.PlatformTelegram,
		Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
		Conversation: veil.Conversation{
			ID:   "100200",
			Type: veil.ConversationTypeGroup,
		},
		Actor: veil.Actor{ID: "77", Username: "bob"},
		Control: &veil.ControlPress{
			MessageID: messageID,
			ControlID: revealControlID,
			QueryID:   "31337",
		},
	}
}

func reactionEvent(messageID, actorID, emoji string, isBot bool) *veil.Event {
	return &veil.Event{
		ID:         "evt-3",
		Kind:       veil.EventKindReactionAdded,
		OccurredAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Platform:   veil.PlatformTelegram,
		Source:     veil.EventSource{Platform: veil.PlatformTelegram, ID: "tg-main"},
		Conversation: veil.Conversation{
			ID:   "100200",
			Type: veil.ConversationTypeGroup,
		},
		Actor: veil.Actor{ID: actorID, IsBot: isBot},
		Reaction: &veil.Reaction{
			MessageID: messageID,
			Emoji:     emoji,
			Action:    veil.ReactionActionAdd,
		},
	}
}

// primeArchive installs a front door and its archive message in the stub so
// reconstruction can resolve them.
func primeArchive(h *testHarness, frontDoorID string, pointer string, record SpoilerRecord) {
	h.dispatcher.fetched[fetchKey("100200", frontDoorID)] = &veil.Message{
		ID:   frontDoorID,
		Card: encodeFrontDoor(record, "Alice", mustInt64(pointer)),
	}
	h.dispatcher.fetched[fetchKey("777000", pointer)] = archiveMessageFor(record)
}

func mustInt64(value string) int64 {
	var parsed int64
	_, _ = fmt.Sscanf(value, "%d", &parsed)

	return parsed
}

func TestHandleCommandPublishesSpoiler(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.dispatcher.sendIDs = []string{"9001", "9100"}
	h.fetcher.contents["tg://doc/1"] = &veil.MediaContent{
		Bytes:    []byte("png-bytes"),
		MIMEType: "image/png",
		FileName: "cat.png",
	}

	event := commandEvent("Launch Plans | the secret text", []veil.MediaAttachment{
		{FileName: "cat.png", URI: "tg://doc/1", SizeBytes: 9},
	})
	if err := h.module.handleCommand(context.Background(), event); err != nil {
		t.Fatalf("handle command failed: %v", err)
	}

	if len(h.dispatcher.sent) != 2 {
		t.Fatalf("sent %d messages, want archive and front door", len(h.dispatcher.sent))
	}

	archive := h.dispatcher.sent[0]
	if archive.Target.Conversation.ID != "777000" {
		t.Fatalf("archive target = %s, want archive conversation", archive.Target.Conversation.ID)
	}
	if !archive.Silent {
		t.Fatal("archive write must be silent")
	}
	wantArchiveCard := &veil.Card{
		Headline:     "Launch Plans",
		Body:         "the secret text",
		AttributedTo: "42",
		Footer:       "100200",
	}
	if diff := cmp.Diff(wantArchiveCard, archive.Card); diff != "" {
		t.Fatalf("archive card mismatch (-want +got):\n%s", diff)
	}
	if len(archive.Files) != 1 || string(archive.Files[0].Bytes) != "png-bytes" {
		t.Fatalf("archive files = %+v, want fetched content upload", archive.Files)
	}

	if len(*h.slept) != 1 || (*h.slept)[0] != 200*time.Millisecond {
		t.Fatalf("slept = %v, want single publish delay", *h.slept)
	}

	if len(h.dispatcher.deleted) != 1 {
		t.Fatalf("deleted %d messages, want origin delete", len(h.dispatcher.deleted))
	}
	deleted := h.dispatcher.deleted[0]
	if deleted.Target.Conversation.ID != "100200" || deleted.MessageID != "555" || !deleted.Revoke {
		t.Fatalf("delete = %+v, want revoked origin message", deleted)
	}

	frontDoor := h.dispatcher.sent[1]
	if frontDoor.Target.Conversation.ID != "100200" {
		t.Fatalf("front door target = %s, want origin conversation", frontDoor.Target.Conversation.ID)
	}
	if frontDoor.Card.Headline != "Launch Plans Spoiler" {
		t.Fatalf("front door headline = %q, want suffixed title", frontDoor.Card.Headline)
	}
	if frontDoor.Card.Body != hiddenNotice {
		t.Fatalf("front door body = %q, want hidden notice", frontDoor.Card.Body)
	}
	if frontDoor.Card.AttributedTo != "Alice" {
		t.Fatalf("front door attribution = %q, want display name", frontDoor.Card.AttributedTo)
	}
	if frontDoor.Card.Footer != "9001" {
		t.Fatalf("front door footer = %q, want archive pointer", frontDoor.Card.Footer)
	}
	if frontDoor.Control == nil || frontDoor.Control.ID != revealControlID || frontDoor.Control.Label != revealControlLabel {
		t.Fatalf("front door control = %+v, want persistent reveal control", frontDoor.Control)
	}
	if len(frontDoor.Files) != 0 {
		t.Fatal("front door must not carry files")
	}

	record, ok := h.module.cache.get(cacheKey("100200", "9100"))
	if !ok {
		t.Fatal("expected published record in lookup cache")
	}
	if record.Title != "Launch Plans" || record.Text != "the secret text" {
		t.Fatalf("cached record = %+v, want published content", record)
	}
	if len(record.Attachments) != 1 || record.Attachments[0].URI != "tg://doc/1" {
		t.Fatalf("cached attachments = %+v, want origin reference", record.Attachments)
	}
}

func TestHandleCommandRejectsUnsupportedAttachmentBeforeFetch(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	event := commandEvent("Payload | run me", []veil.MediaAttachment{
		{FileName: "evil.exe", URI: "tg://doc/666", SizeBytes: 100},
	})

	if err := h.module.handleCommand(context.Background(), event); err != nil {
		t.Fatalf("handle command failed: %v", err)
	}

	if len(h.fetcher.calls) != 0 {
		t.Fatalf("fetch calls = %d, want zero before policy check", len(h.fetcher.calls))
	}
	if len(h.dispatcher.deleted) != 0 {
		t.Fatal("origin must stay untouched on policy rejection")
	}
	if len(h.dispatcher.sent) != 1 {
		t.Fatalf("sent %d messages, want single notice", len(h.dispatcher.sent))
	}
	notice := h.dispatcher.sent[0]
	if !strings.Contains(notice.Text, `"evil.exe"`) || !strings.Contains(notice.Text, "not allowed") {
		t.Fatalf("notice = %q, want unsupported attachment explanation", notice.Text)
	}
	if notice.ReplyToMessageID != "555" {
		t.Fatalf("notice reply = %q, want command message", notice.ReplyToMessageID)
	}
}

func TestHandleCommandValidatesTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "missing title", value: "| only text", want: usageNotice},
		{name: "empty input", value: "", want: usageNotice},
		{name: "title too long", value: strings.Repeat("x", 101) + " | body", want: titleLenNotice},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHarness(t)
			if err := h.module.handleCommand(context.Background(), commandEvent(testCase.value, nil)); err != nil {
				t.Fatalf("handle command failed: %v", err)
			}
			if len(h.dispatcher.sent) != 1 || h.dispatcher.sent[0].Text != testCase.want {
				t.Fatalf("sent = %+v, want single %q notice", h.dispatcher.sent, testCase.want)
			}
		})
	}
}

func TestHandleCommandArchiveFailureLeavesOriginUntouched(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.dispatcher.sendErr = errors.New("FLOOD_WAIT")

	err := h.module.handleCommand(context.Background(), commandEvent("Launch Plans | secret", nil))
	if err == nil {
		t.Fatal("expected archive write error")
	}
	var archiveFailed *ArchiveWriteError
	if !errors.As(err, &archiveFailed) {
		t.Fatalf("err = %v, want ArchiveWriteError", err)
	}

	if len(h.dispatcher.deleted) != 0 {
		t.Fatal("origin must stay untouched on archive failure")
	}
	if len(*h.slept) != 0 {
		t.Fatal("publish delay must not run on archive failure")
	}
}

func TestFetchCandidatesSkipsOverBudget(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.fetcher.contents["tg://doc/1"] = &veil.MediaContent{Bytes: []byte("small"), MIMEType: "image/png"}
	h.fetcher.contents["tg://doc/3"] = &veil.MediaContent{Bytes: []byte("also small"), MIMEType: "text/plain"}
	h.fetcher.errs["tg://doc/2"] = fmt.Errorf("stream too big: %w", veil.ErrMediaTooLarge)

	candidates := []veil.MediaAttachment{
		{FileName: "a.png", URI: "tg://doc/1", SizeBytes: 5},
		{FileName: "declared-huge.mp4", URI: "tg://doc/9", SizeBytes: maxArchiveBytes + 1},
		{FileName: "stream-huge.mp4", URI: "tg://doc/2", SizeBytes: 0},
		{FileName: "c.txt", URI: "tg://doc/3", SizeBytes: 10},
	}

	uploads, kept, err := h.module.fetchCandidates(context.Background(), candidates)
	if err != nil {
		t.Fatalf("fetch candidates failed: %v", err)
	}

	if len(uploads) != 2 || len(kept) != 2 {
		t.Fatalf("kept %d/%d attachments, want the two within budget", len(uploads), len(kept))
	}
	if kept[0].FileName != "a.png" || kept[1].FileName != "c.txt" {
		t.Fatalf("kept = %+v, want skip-continue order preserved", kept)
	}
	// The declared-oversize candidate must be skipped without any fetch.
	for _, call := range h.fetcher.calls {
		if call.URI == "tg://doc/9" {
			t.Fatal("declared-oversize candidate must not be fetched")
		}
	}
}

func TestHandleControlRevealsFromArchive(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	record := SpoilerRecord{
		AuthorID:        42,
		OriginChannelID: 100200,
		Title:           "Launch Plans",
		Text:            "the secret text",
		Attachments: []Attachment{
			{FileName: "cat.png", URI: "tg://doc/8001", SizeBytes: 9},
			{FileName: "notes.txt", URI: "tg://doc/8002", SizeBytes: 5},
		},
	}
	primeArchive(h, "9100", "9001", record)

	if err := h.module.handleControl(context.Background(), controlEvent("9100")); err != nil {
		t.Fatalf("handle control failed: %v", err)
	}

	if h.dispatcher.fetchCalls != 2 {
		t.Fatalf("fetch calls = %d, want front door plus archive", h.dispatcher.fetchCalls)
	}
	if len(h.dispatcher.directs) != 1 {
		t.Fatalf("directs = %d, want single private delivery", len(h.dispatcher.directs))
	}
	direct := h.dispatcher.directs[0]
	if direct.ActorID != "77" {
		t.Fatalf("direct actor = %q, want presser", direct.ActorID)
	}
	if direct.Card.Headline != "Launch Plans Spoiler" || direct.Card.Body == "" {
		t.Fatalf("direct card = %+v, want rendered record", direct.Card)
	}
	if !strings.Contains(direct.Card.Body, "notes.txt") {
		t.Fatalf("direct body = %q, want secondary attachment listed", direct.Card.Body)
	}
	if len(direct.Files) != 1 || direct.Files[0].Ref != "tg://doc/8001" {
		t.Fatalf("direct files = %+v, want primary attachment by reference", direct.Files)
	}
	if len(h.dispatcher.answers) != 1 || h.dispatcher.answers[0].Text != "" {
		t.Fatalf("answers = %+v, want silent acknowledgement", h.dispatcher.answers)
	}

	// Second press must come from cache without further fetches.
	if err := h.module.handleControl(context.Background(), controlEvent("9100")); err != nil {
		t.Fatalf("second handle control failed: %v", err)
	}
	if h.dispatcher.fetchCalls != 2 {
		t.Fatalf("fetch calls = %d after cache hit, want 2", h.dispatcher.fetchCalls)
	}
	if len(h.dispatcher.directs) != 2 {
		t.Fatalf("directs = %d, want repeat delivery", len(h.dispatcher.directs))
	}
}

func TestHandleControlMissAnswersWithNotice(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	if err := h.module.handleControl(context.Background(), controlEvent("4040")); err != nil {
		t.Fatalf("handle control failed: %v", err)
	}

	if len(h.dispatcher.directs) != 0 {
		t.Fatal("miss must not deliver anything")
	}
	if len(h.dispatcher.answers) != 1 {
		t.Fatalf("answers = %d, want single miss answer", len(h.dispatcher.answers))
	}
	answer := h.dispatcher.answers[0]
	if answer.Text != missNotice || !answer.ShowAlert {
		t.Fatalf("answer = %+v, want alert with storage notice", answer)
	}
}

func TestHandleControlDeliveryFailureAnswersWithNotice(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.dispatcher.directErr = &veil.OutboundError{
		Operation: veil.OutboundOperationSendDirect,
		Kind:      veil.OutboundErrorKindForbidden,
	}
	primeArchive(h, "9100", "9001", SpoilerRecord{
		AuthorID:        42,
		OriginChannelID: 100200,
		Title:           "Launch Plans",
		Text:            "secret",
	})

	if err := h.module.handleControl(context.Background(), controlEvent("9100")); err != nil {
		t.Fatalf("handle control failed: %v", err)
	}
	if len(h.dispatcher.answers) != 1 || h.dispatcher.answers[0].Text != deliveryNotice {
		t.Fatalf("answers = %+v, want delivery notice", h.dispatcher.answers)
	}
}

func TestHandleReactionRevealPath(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	record := SpoilerRecord{
		AuthorID:        42,
		OriginChannelID: 100200,
		Title:           "Launch Plans",
		Text:            "secret",
	}
	primeArchive(h, "9100", "9001", record)

	// Bot actors and foreign emoji are ignored before any I/O.
	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "99", "🙈", true)); err != nil {
		t.Fatalf("bot reaction failed: %v", err)
	}
	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "👍", false)); err != nil {
		t.Fatalf("foreign emoji failed: %v", err)
	}
	if h.dispatcher.fetchCalls != 0 || len(h.dispatcher.directs) != 0 {
		t.Fatal("ignored reactions must cause no fetches or deliveries")
	}

	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "🙈", false)); err != nil {
		t.Fatalf("marker reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 1 {
		t.Fatalf("directs = %d, want private delivery", len(h.dispatcher.directs))
	}

	// Immediate repeat is silently rate limited.
	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "🙈", false)); err != nil {
		t.Fatalf("repeat reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 1 {
		t.Fatal("cooldown denial must be silent and deliver nothing")
	}

	// After the cooldown the same pair reveals again, now from cache.
	h.clock.Advance(10 * time.Second)
	fetchesBefore := h.dispatcher.fetchCalls
	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "🙈", false)); err != nil {
		t.Fatalf("post-cooldown reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 2 {
		t.Fatalf("directs = %d, want repeat delivery", len(h.dispatcher.directs))
	}
	if h.dispatcher.fetchCalls != fetchesBefore {
		t.Fatal("repeat reveal must come from cache")
	}
}

func TestHandleReactionLimitsPerConversation(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	first := SpoilerRecord{
		AuthorID:        42,
		OriginChannelID: 100200,
		Title:           "Launch Plans",
		Text:            "secret",
	}
	primeArchive(h, "9100", "9001", first)

	// The same front-door message id exists in a second conversation; it is a
	// different post and must not share the first post's cooldown bucket.
	second := SpoilerRecord{
		AuthorID:        43,
		OriginChannelID: 300400,
		Title:           "Other Plans",
		Text:            "different secret",
	}
	h.dispatcher.fetched[fetchKey("300400", "9100")] = &veil.Message{
		ID:   "9100",
		Card: encodeFrontDoor(second, "Carol", 9002),
	}
	h.dispatcher.fetched[fetchKey("777000", "9002")] = archiveMessageFor(second)

	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "🙈", false)); err != nil {
		t.Fatalf("first conversation reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 1 {
		t.Fatalf("directs = %d, want first delivery", len(h.dispatcher.directs))
	}

	otherConversation := reactionEvent("9100", "77", "🙈", false)
	otherConversation.Conversation.ID = "300400"
	if err := h.module.handleReaction(context.Background(), otherConversation); err != nil {
		t.Fatalf("second conversation reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 2 {
		t.Fatalf("directs = %d, want delivery for the other conversation's post", len(h.dispatcher.directs))
	}
	if h.dispatcher.directs[1].Card.Headline != "Other Plans Spoiler" {
		t.Fatalf("headline = %q, want the second post's content", h.dispatcher.directs[1].Card.Headline)
	}

	// Within each conversation the cooldown still holds.
	if err := h.module.handleReaction(context.Background(), reactionEvent("9100", "77", "🙈", false)); err != nil {
		t.Fatalf("repeat reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 2 {
		t.Fatal("repeat in the first conversation must stay denied")
	}
}

func TestHandleReactionMissIsSilent(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	if err := h.module.handleReaction(context.Background(), reactionEvent("4040", "77", "🙈", false)); err != nil {
		t.Fatalf("handle reaction failed: %v", err)
	}
	if len(h.dispatcher.directs) != 0 || len(h.dispatcher.answers) != 0 || len(h.dispatcher.sent) != 0 {
		t.Fatal("reaction miss must produce no user-visible output")
	}
}

func TestModuleSpecDeclaresHandlersAndCommand(t *testing.T) {
	t.Parallel()

	module, err := New(testConfig())
	if err != nil {
		t.Fatalf("new spoiler module failed: %v", err)
	}

	spec := module.Spec()
	if len(spec.Handlers) != 3 {
		t.Fatalf("handlers = %d, want command, control, reaction", len(spec.Handlers))
	}
	if len(spec.Commands) != 1 || spec.Commands[0].Name != commandName {
		t.Fatalf("commands = %+v, want /spoiler registration", spec.Commands)
	}
	for _, handler := range spec.Handlers {
		if len(handler.Capability.RequiredServices) == 0 {
			t.Fatalf("capability %s declares no required services", handler.Capability.Name)
		}
	}
}
