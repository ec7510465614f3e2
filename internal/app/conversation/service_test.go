package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/adapters/llm"
	"github.com/PabloGalante/jarvis-hud/internal/adapters/storage/memory"
	"github.com/PabloGalante/jarvis-hud/internal/app/commands"
	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// scriptedLLM records every request and replays the same chunks.
type scriptedLLM struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
	chunks   []domain.ChatChunk
	err      error
}

func (s *scriptedLLM) StreamChat(_ context.Context, req domain.ChatRequest) (<-chan domain.ChatChunk, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan domain.ChatChunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// blockingLLM sends one chunk and then waits for release or cancellation.
type blockingLLM struct {
	release chan struct{}
}

func (b *blockingLLM) StreamChat(ctx context.Context, _ domain.ChatRequest) (<-chan domain.ChatChunk, error) {
	ch := make(chan domain.ChatChunk)
	go func() {
		defer close(ch)
		select {
		case ch <- domain.ChatChunk{Delta: "Working"}:
		case <-ctx.Done():
			return
		}
		select {
		case <-b.release:
			select {
			case ch <- domain.ChatChunk{Delta: " on it.", Done: true}:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

type failingConversations struct{}

func (failingConversations) CreateConversation(context.Context, *domain.Conversation) error {
	return errors.New("database unreachable")
}
func (failingConversations) UpdateConversation(context.Context, *domain.Conversation) error {
	return errors.New("database unreachable")
}
func (failingConversations) GetConversation(context.Context, domain.ConversationID) (*domain.Conversation, error) {
	return nil, errors.New("database unreachable")
}
func (failingConversations) ListConversationsByUser(context.Context, domain.UserID, int) ([]*domain.Conversation, error) {
	return nil, errors.New("database unreachable")
}
func (failingConversations) DeleteConversation(context.Context, domain.ConversationID) error {
	return errors.New("database unreachable")
}

// flakyConversations wraps the in-memory store and fails the writes that
// are switched on.
type flakyConversations struct {
	*memory.ConversationStore
	failUpdate bool
	failDelete bool
}

func (f *flakyConversations) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	if f.failUpdate {
		return errors.New("write timeout")
	}
	return f.ConversationStore.UpdateConversation(ctx, conv)
}

func (f *flakyConversations) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	if f.failDelete {
		return errors.New("write timeout")
	}
	return f.ConversationStore.DeleteConversation(ctx, id)
}

type flakyMessages struct {
	*memory.MessageStore
	failDelete bool
}

func (f *flakyMessages) DeleteMessagesByConversation(ctx context.Context, id domain.ConversationID) error {
	if f.failDelete {
		return errors.New("write timeout")
	}
	return f.MessageStore.DeleteMessagesByConversation(ctx, id)
}

func okReply(text string) *scriptedLLM {
	return &scriptedLLM{chunks: []domain.ChatChunk{{Delta: text}, {Done: true}}}
}

func newService(t *testing.T, streamer domain.ChatStreamer) (*conversation.Service, *memory.ConversationStore, *memory.MessageStore) {
	t.Helper()

	convs := memory.NewConversationStore()
	msgs := memory.NewMessageStore()
	clock := func() time.Time { return time.Date(2024, 3, 5, 15, 4, 0, 0, time.UTC) }

	svc := conversation.NewService(streamer, convs, msgs, conversation.Config{
		Commands: commands.NewHandler(commands.WithClock(clock)),
	})
	return svc, convs, msgs
}

// startBlockedSend runs Send in the background and waits until the first
// chunk has been applied to the transcript.
func startBlockedSend(t *testing.T, svc *conversation.Service, sess *conversation.Session) <-chan error {
	t.Helper()

	applied := make(chan struct{})
	var once sync.Once
	done := make(chan error, 1)

	go func() {
		_, err := svc.Send(context.Background(), sess, "run diagnostics", domain.DefaultPersonality(), func(string) {
			once.Do(func() { close(applied) })
		})
		done <- err
	}()

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatalf("first chunk never applied")
	}
	return done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("send did not finish")
		return nil
	}
}

func TestLocalThenRemoteDispatch(t *testing.T) {
	ctx := context.Background()
	stream := okReply("Why did the robot go on vacation? To recharge.")
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "")

	res, err := svc.Dispatch(ctx, sess, "time", nil)
	if err != nil {
		t.Fatalf("Dispatch(time): %v", err)
	}
	if !res.Local || !strings.Contains(res.Response, "3:04 PM") {
		t.Fatalf("expected local time response, got %+v", res)
	}
	if stream.calls() != 0 {
		t.Fatalf("local command must not call the backend")
	}

	res, err = svc.Dispatch(ctx, sess, "tell me a joke about robots", nil)
	if err != nil {
		t.Fatalf("Dispatch(joke): %v", err)
	}
	if res.Local || res.Message == nil || res.Response == "" {
		t.Fatalf("expected remote response, got %+v", res)
	}

	if stream.calls() != 1 {
		t.Fatalf("expected one backend call, got %d", stream.calls())
	}
	req := stream.requests[0]
	if len(req.Messages) != 1 || req.Messages[0].Content != "tell me a joke about robots" || req.Messages[0].Role != domain.RoleUser {
		t.Fatalf("unexpected history %+v", req.Messages)
	}
	if req.Personality != domain.DefaultPersonality() {
		t.Fatalf("expected default personality, got %+v", req.Personality)
	}
}

func TestLocalActionsQueuedOnSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, okReply("unused"))
	sess := svc.OpenSession(ctx, "")

	res, err := svc.Dispatch(ctx, sess, "open github", nil)
	if err != nil || !res.Local {
		t.Fatalf("expected local open, got %+v (err=%v)", res, err)
	}

	actions := sess.DrainActions()
	if len(actions) != 1 || actions[0].Kind != domain.ActionOpenURL {
		t.Fatalf("expected one open_url action, got %+v", actions)
	}
	if len(sess.DrainActions()) != 0 {
		t.Fatalf("actions must be drained once")
	}
	if len(sess.Messages()) != 0 {
		t.Fatalf("local exchanges must not enter the transcript")
	}
}

func TestTurnsAlternateAndConcatenate(t *testing.T) {
	ctx := context.Background()
	stream := &scriptedLLM{chunks: []domain.ChatChunk{{Delta: "At "}, {Delta: "your "}, {Delta: "service."}, {Done: true}}}
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "")

	const turns = 4
	var deltas []string
	for i := 0; i < turns; i++ {
		msg, err := svc.Send(ctx, sess, fmt.Sprintf("question %d", i), domain.DefaultPersonality(), func(d string) {
			deltas = append(deltas, d)
		})
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		if msg.Content != "At your service." {
			t.Fatalf("expected concatenated reply, got %q", msg.Content)
		}
	}

	msgs := sess.Messages()
	if len(msgs) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(msgs))
	}
	for i, m := range msgs {
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		if m.Role != want {
			t.Fatalf("message %d: expected %s, got %s", i, want, m.Role)
		}
	}
	if len(deltas) != 3*turns {
		t.Fatalf("expected %d deltas, got %d", 3*turns, len(deltas))
	}
	if got := len(stream.requests[turns-1].Messages); got != 2*turns-1 {
		t.Fatalf("expected full history on last turn, got %d messages", got)
	}
}

func TestUpstreamRejectionLeavesTranscriptUnchanged(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		status int
		want   error
	}{
		{429, domain.ErrRateLimited},
		{402, domain.ErrQuotaExhausted},
		{500, domain.ErrUpstream},
	}

	for _, tc := range cases {
		stream := okReply("first")
		svc, _, msgs := newService(t, stream)
		sess := svc.OpenSession(ctx, "tony")

		if _, err := svc.Send(ctx, sess, "hello", domain.DefaultPersonality(), nil); err != nil {
			t.Fatalf("initial Send: %v", err)
		}
		before := sess.Messages()

		stream.err = domain.UpstreamErrorFromStatus(tc.status, "nope")
		_, err := svc.Send(ctx, sess, "again", domain.DefaultPersonality(), nil)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		if tc.want != domain.ErrUpstream && errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("status %d: must not look like a generic failure", tc.status)
		}

		after := sess.Messages()
		if len(after) != len(before) {
			t.Fatalf("status %d: transcript changed from %d to %d messages", tc.status, len(before), len(after))
		}
		stored, _ := msgs.GetMessagesByConversation(ctx, sess.ActiveConversation(), 0)
		if len(stored) != 2 {
			t.Fatalf("status %d: expected durable log untouched, got %d", tc.status, len(stored))
		}
		if sess.Loading() {
			t.Fatalf("status %d: admission flag must be cleared", tc.status)
		}
	}

	rate := conversation.UserMessage(domain.UpstreamErrorFromStatus(429, ""))
	quota := conversation.UserMessage(domain.UpstreamErrorFromStatus(402, ""))
	generic := conversation.UserMessage(domain.UpstreamErrorFromStatus(500, ""))
	if rate == generic || quota == generic || rate == quota {
		t.Fatalf("user messages must be distinct: %q / %q / %q", rate, quota, generic)
	}
}

func TestMidStreamFailureKeepsPartialReply(t *testing.T) {
	ctx := context.Background()
	stream := &scriptedLLM{chunks: []domain.ChatChunk{
		{Delta: "Partial "},
		{Done: true, Err: domain.UpstreamErrorFromStatus(502, "connection reset")},
	}}
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "")

	msg, err := svc.Send(ctx, sess, "status report", domain.DefaultPersonality(), nil)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if msg == nil || msg.Content != "Partial " {
		t.Fatalf("expected partial message, got %+v", msg)
	}
	if got := sess.Messages(); len(got) != 2 || got[1].Content != "Partial " {
		t.Fatalf("unexpected transcript %+v", got)
	}

	stream.chunks = []domain.ChatChunk{{Done: true, Err: domain.UpstreamErrorFromStatus(502, "")}}
	if _, err := svc.Send(ctx, sess, "again", domain.DefaultPersonality(), nil); err == nil {
		t.Fatalf("expected error")
	}
	got := sess.Messages()
	if len(got) != 3 || got[2].Role != domain.RoleUser {
		t.Fatalf("expected transcript to end at the user message, got %+v", got)
	}
}

func TestSecondSendWhileInFlightIsRejected(t *testing.T) {
	ctx := context.Background()
	stream := &blockingLLM{release: make(chan struct{})}
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "")

	done := startBlockedSend(t, svc, sess)

	if !sess.Loading() {
		t.Fatalf("expected session to be loading")
	}
	if _, err := svc.Send(ctx, sess, "interrupt", domain.DefaultPersonality(), nil); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(stream.release)
	if err := waitErr(t, done); err != nil {
		t.Fatalf("blocked Send: %v", err)
	}

	msgs := sess.Messages()
	if len(msgs) != 2 || msgs[1].Content != "Working on it." {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if sess.Loading() {
		t.Fatalf("expected admission flag cleared")
	}
}

func TestCancelKeepsTruncatedReply(t *testing.T) {
	ctx := context.Background()
	stream := &blockingLLM{release: make(chan struct{})}
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "")

	done := startBlockedSend(t, svc, sess)
	if !svc.Cancel(sess) {
		t.Fatalf("expected an in-flight request to cancel")
	}

	if err := waitErr(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	msgs := sess.Messages()
	if len(msgs) != 2 || msgs[1].Content != "Working" {
		t.Fatalf("expected truncated reply, got %+v", msgs)
	}
	if svc.Cancel(sess) {
		t.Fatalf("nothing should be left to cancel")
	}
}

func TestSwitchSupersedesInFlightTurn(t *testing.T) {
	ctx := context.Background()
	stream := &blockingLLM{release: make(chan struct{})}
	svc, _, _ := newService(t, stream)
	sess := svc.OpenSession(ctx, "tony")

	done := startBlockedSend(t, svc, sess)
	first := sess.ActiveConversation()

	second, err := svc.CreateConversation(ctx, sess, "")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	if err := waitErr(t, done); !errors.Is(err, conversation.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if sess.ActiveConversation() != second || second == first {
		t.Fatalf("expected new active conversation %s, got %s", second, sess.ActiveConversation())
	}
	if len(sess.Messages()) != 0 {
		t.Fatalf("stale chunks must not reach the new conversation: %+v", sess.Messages())
	}
	if sess.Loading() {
		t.Fatalf("superseded turn must release admission")
	}
}

func TestTitleFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	svc, convs, _ := newService(t, okReply("ok"))
	sess := svc.OpenSession(ctx, "obi-wan")

	if _, err := svc.SaveMessage(ctx, sess, domain.RoleUser, "Hello there general Kenobi"); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	id := sess.ActiveConversation()
	if id == "" {
		t.Fatalf("expected a conversation to be created on first message")
	}
	conv, _ := convs.GetConversation(ctx, id)
	if conv.Title != "Hello there general Kenobi" {
		t.Fatalf("unexpected title %q", conv.Title)
	}

	long := strings.Repeat("abcdefghij", 6)
	if _, err := svc.CreateConversation(ctx, sess, "New conversation"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	_, _ = svc.SaveMessage(ctx, sess, domain.RoleAssistant, "Good evening.")
	_, _ = svc.SaveMessage(ctx, sess, domain.RoleUser, long)
	_, _ = svc.SaveMessage(ctx, sess, domain.RoleUser, "second question")

	conv, _ = convs.GetConversation(ctx, sess.ActiveConversation())
	if conv.Title != long[:50]+"..." {
		t.Fatalf("expected truncated title, got %q", conv.Title)
	}

	if _, err := svc.SaveMessage(ctx, sess, domain.Role("system"), "x"); err == nil {
		t.Fatalf("expected invalid role to be rejected")
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := conversation.TruncateTitle("  short  ", 50); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := conversation.TruncateTitle("ñandú ñandú", 5); got != "ñandú..." {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	svc, convs, msgs := newService(t, okReply("ok"))
	sess := svc.OpenSession(ctx, "tony")

	other, _ := svc.CreateConversation(ctx, sess, "")
	_, _ = svc.SaveMessage(ctx, sess, domain.RoleUser, "old thread")

	active, _ := svc.CreateConversation(ctx, sess, "")
	if _, err := svc.Send(ctx, sess, "hello", domain.DefaultPersonality(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Non-active: pointer and log untouched.
	if err := svc.DeleteConversation(ctx, sess, other); err != nil {
		t.Fatalf("DeleteConversation(other): %v", err)
	}
	if sess.ActiveConversation() != active || len(sess.Messages()) != 2 {
		t.Fatalf("deleting a non-active conversation changed the session")
	}
	if _, err := convs.GetConversation(ctx, other); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted conversation to be gone, got %v", err)
	}

	// Active: pointer cleared and log emptied.
	if err := svc.DeleteConversation(ctx, sess, active); err != nil {
		t.Fatalf("DeleteConversation(active): %v", err)
	}
	if sess.ActiveConversation() != "" || len(sess.Messages()) != 0 {
		t.Fatalf("expected empty session, got %q / %d messages", sess.ActiveConversation(), len(sess.Messages()))
	}
	if stored, _ := msgs.GetMessagesByConversation(ctx, active, 0); len(stored) != 0 {
		t.Fatalf("expected messages deleted, got %d", len(stored))
	}

	if err := svc.DeleteConversation(ctx, sess, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTitleSurvivesFailedUpdate(t *testing.T) {
	ctx := context.Background()
	convs := &flakyConversations{ConversationStore: memory.NewConversationStore()}
	svc := conversation.NewService(okReply("ok"), convs, memory.NewMessageStore(), conversation.Config{})
	sess := svc.OpenSession(ctx, "tony")

	convs.failUpdate = true
	if _, err := svc.SaveMessage(ctx, sess, domain.RoleUser, "lost title"); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	id := sess.ActiveConversation()
	if conv, _ := convs.GetConversation(ctx, id); conv.Title != "" {
		t.Fatalf("expected no stored title after failed update, got %q", conv.Title)
	}

	convs.failUpdate = false
	if _, err := svc.SaveMessage(ctx, sess, domain.RoleUser, "Calibrate the repulsors"); err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if conv, _ := convs.GetConversation(ctx, id); conv.Title != "Calibrate the repulsors" {
		t.Fatalf("expected next user message to name the conversation, got %q", conv.Title)
	}

	_, _ = svc.SaveMessage(ctx, sess, domain.RoleUser, "third")
	if conv, _ := convs.GetConversation(ctx, id); conv.Title != "Calibrate the repulsors" {
		t.Fatalf("title must not change after it is stored, got %q", conv.Title)
	}
}

func TestDeleteConversationFailureKeepsTranscript(t *testing.T) {
	ctx := context.Background()
	convs := &flakyConversations{ConversationStore: memory.NewConversationStore(), failDelete: true}
	msgs := memory.NewMessageStore()
	svc := conversation.NewService(okReply("ok"), convs, msgs, conversation.Config{})
	sess := svc.OpenSession(ctx, "tony")

	id, _ := svc.CreateConversation(ctx, sess, "")
	if _, err := svc.Send(ctx, sess, "hello", domain.DefaultPersonality(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := svc.DeleteConversation(ctx, sess, id); err == nil {
		t.Fatalf("expected delete failure to be reported")
	}
	if _, err := convs.GetConversation(ctx, id); err != nil {
		t.Fatalf("expected conversation to remain, got %v", err)
	}
	if stored, _ := msgs.GetMessagesByConversation(ctx, id, 0); len(stored) != 2 {
		t.Fatalf("expected transcript intact, got %d messages", len(stored))
	}
	if sess.ActiveConversation() != id || len(sess.Messages()) != 2 {
		t.Fatalf("failed delete must leave the session unchanged")
	}
}

func TestDeleteConversationToleratesMessageCleanupFailure(t *testing.T) {
	ctx := context.Background()
	convs := memory.NewConversationStore()
	msgs := &flakyMessages{MessageStore: memory.NewMessageStore(), failDelete: true}
	svc := conversation.NewService(okReply("ok"), convs, msgs, conversation.Config{})
	sess := svc.OpenSession(ctx, "tony")

	id, _ := svc.CreateConversation(ctx, sess, "")
	if _, err := svc.Send(ctx, sess, "hello", domain.DefaultPersonality(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := svc.DeleteConversation(ctx, sess, id); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := convs.GetConversation(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected conversation gone, got %v", err)
	}
	if sess.ActiveConversation() != "" || len(sess.Messages()) != 0 {
		t.Fatalf("expected empty session after delete")
	}
}

func TestSwitchConversation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, okReply("Indeed."))
	sess := svc.OpenSession(ctx, "tony")

	first, _ := svc.CreateConversation(ctx, sess, "")
	for _, q := range []string{"one", "two"} {
		if _, err := svc.Send(ctx, sess, q, domain.DefaultPersonality(), nil); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	if _, err := svc.CreateConversation(ctx, sess, ""); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if len(sess.Messages()) != 0 {
		t.Fatalf("new conversation must start empty")
	}

	if err := svc.SwitchConversation(ctx, sess, first); err != nil {
		t.Fatalf("SwitchConversation: %v", err)
	}
	msgs := sess.Messages()
	if sess.ActiveConversation() != first || len(msgs) != 4 {
		t.Fatalf("expected 4 messages of %s, got %d in %s", first, len(msgs), sess.ActiveConversation())
	}
	if msgs[0].Content != "one" || msgs[2].Content != "two" || msgs[3].Content != "Indeed." {
		t.Fatalf("unexpected order %+v", msgs)
	}

	intruder := svc.OpenSession(ctx, "loki")
	if err := svc.SwitchConversation(ctx, intruder, first); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's conversation, got %v", err)
	}
}

func TestListConversationsCapped(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, okReply("ok"))
	sess := svc.OpenSession(ctx, "tony")

	for i := 0; i < 13; i++ {
		if _, err := svc.CreateConversation(ctx, sess, ""); err != nil {
			t.Fatalf("CreateConversation: %v", err)
		}
		_, _ = svc.SaveMessage(ctx, sess, domain.RoleUser, fmt.Sprintf("thread %d", i))
	}

	list, err := svc.ListConversations(ctx, sess)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != conversation.DefaultPageSize {
		t.Fatalf("expected %d conversations, got %d", conversation.DefaultPageSize, len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].UpdatedAt.Before(list[i].UpdatedAt) {
			t.Fatalf("not sorted by UpdatedAt descending at %d", i)
		}
	}

	anon := svc.OpenSession(ctx, "")
	if list, _ := svc.ListConversations(ctx, anon); len(list) != 0 {
		t.Fatalf("anonymous sessions have no conversations")
	}
}

func TestAnonymousSessionSkipsPersistence(t *testing.T) {
	ctx := context.Background()
	svc, _, msgs := newService(t, okReply("ok"))
	sess := svc.OpenSession(ctx, "")

	id, err := svc.CreateConversation(ctx, sess, "ignored")
	if err != nil || id != "" {
		t.Fatalf("expected no durable conversation, got %q (err=%v)", id, err)
	}
	if _, err := svc.Send(ctx, sess, "hello", domain.DefaultPersonality(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sess.Messages()) != 2 || sess.ActiveConversation() != "" {
		t.Fatalf("expected in-memory transcript only")
	}
	if stored, _ := msgs.GetMessagesByConversation(ctx, "", 0); len(stored) != 0 {
		t.Fatalf("anonymous messages must not be stored, got %d", len(stored))
	}
}

func TestPersistenceFailureDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	svc := conversation.NewService(okReply("Still here."), failingConversations{}, memory.NewMessageStore(), conversation.Config{})
	sess := svc.OpenSession(ctx, "tony")

	id, err := svc.CreateConversation(ctx, sess, "")
	if err != nil || id != "" {
		t.Fatalf("expected degraded create, got %q (err=%v)", id, err)
	}

	res, err := svc.Dispatch(ctx, sess, "are you there", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Response != "Still here." || len(sess.Messages()) != 2 {
		t.Fatalf("expected conversation to continue in memory, got %+v", res)
	}
}

func TestSessionRegistry(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, llm.NewMockLLM())

	sess := svc.OpenSession(ctx, "tony")
	got, err := svc.Session(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("expected to find session, got %v (err=%v)", got, err)
	}

	if err := svc.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if _, err := svc.Session(sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after close, got %v", err)
	}
	if err := svc.CloseSession(ctx, sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double close, got %v", err)
	}
}
