package redisstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/redisstore"
)

func newTestStore(t *testing.T, maxSessions, maxPrompts int) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisstore.NewWithClient(client, maxSessions, maxPrompts, time.Second, zerolog.Nop())

	// Monotonic millisecond clock so recency ordering is deterministic.
	base := time.UnixMilli(1_700_000_000_000)
	tick := 0
	store.SetNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	})
	return store, mr
}

func sessionWithText(text string) *chat.ChatSession {
	return &chat.ChatSession{
		Messages: []chat.Message{
			{ID: "m1", Role: chat.RoleUser, Parts: []chat.Part{chat.TextPart(text)}},
		},
	}
}

func TestSaveSessionAssignsIDAndTitle(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	saved, err := store.SaveSession(ctx, sessionWithText("hello there, how are you?"))
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected a generated session id")
	}
	if saved.Title == "" {
		t.Fatal("expected a derived title")
	}
	if saved.LastUpdated == 0 {
		t.Fatal("expected a last-updated timestamp")
	}

	got, err := store.GetSession(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Title != saved.Title || len(got.Messages) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveSessionRejectsEmpty(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)

	if _, err := store.SaveSession(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil session")
	}
	if _, err := store.SaveSession(context.Background(), &chat.ChatSession{}); err == nil {
		t.Fatal("expected error for session without messages")
	}
}

func TestSaveSessionUpsertRefreshesRecency(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	first, err := store.SaveSession(ctx, sessionWithText("first"))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	if _, err := store.SaveSession(ctx, sessionWithText("second")); err != nil {
		t.Fatalf("save second: %v", err)
	}

	// Re-save the first session; it must move back to the front.
	first.Messages = append(first.Messages, chat.Message{
		ID: "m2", Role: chat.RoleModel, Parts: []chat.Part{chat.TextPart("reply")},
	})
	if _, err := store.SaveSession(ctx, first); err != nil {
		t.Fatalf("resave first: %v", err)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("upsert must not duplicate, got %d sessions", len(sessions))
	}
	if sessions[0].ID != first.ID {
		t.Fatalf("resaved session must be newest, got %q first", sessions[0].ID)
	}
	if len(sessions[0].Messages) != 2 {
		t.Fatalf("resave must replace the record, got %d messages", len(sessions[0].Messages))
	}
}

func TestSessionRetentionEvictsOldest(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		saved, err := store.SaveSession(ctx, sessionWithText(fmt.Sprintf("conversation %d", i)))
		if err != nil {
			t.Fatalf("save session %d: %v", i, err)
		}
		ids = append(ids, saved.ID)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 5 {
		t.Fatalf("expected the retention bound of 5, got %d", len(sessions))
	}
	// Newest first: sessions 7,6,5,4,3 survive.
	for i, session := range sessions {
		if want := ids[7-i]; session.ID != want {
			t.Fatalf("position %d: got %q want %q", i, session.ID, want)
		}
	}

	// Evicted records are gone entirely, not just unindexed.
	for _, id := range ids[:3] {
		if _, err := store.GetSession(ctx, id); !errors.Is(err, chat.ErrSessionNotFound) {
			t.Fatalf("evicted session %q still present: %v", id, err)
		}
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)

	if _, err := store.GetSession(context.Background(), "nope"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	saved, err := store.SaveSession(ctx, sessionWithText("to delete"))
	if err != nil {
		t.Fatalf("save session: %v", err)
	}

	existed, err := store.DeleteSession(ctx, saved.ID)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if !existed {
		t.Fatal("expected delete to report the session existed")
	}

	if _, err := store.GetSession(ctx, saved.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("session survived deletion: %v", err)
	}
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("index entry survived deletion: %v", sessions)
	}

	// Deleting again is a no-op, not an error.
	existed, err = store.DeleteSession(ctx, saved.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if existed {
		t.Fatal("second delete must report absence")
	}
}

func TestListSessionsSkipsOrphanedIndexEntries(t *testing.T) {
	store, mr := newTestStore(t, 5, 5)
	ctx := context.Background()

	saved, err := store.SaveSession(ctx, sessionWithText("kept"))
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	orphan, err := store.SaveSession(ctx, sessionWithText("orphaned"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}

	// Drop the record but leave the index entry behind.
	mr.Del("chat_history:" + orphan.ID)

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != saved.ID {
		t.Fatalf("expected only the intact session, got %+v", sessions)
	}
}

func TestAddPromptTrimsAndDeduplicates(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := store.AddPrompt(ctx, fmt.Sprintf("prompt %d", i)); err != nil {
			t.Fatalf("add prompt %d: %v", i, err)
		}
	}

	prompts, err := store.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("list prompts: %v", err)
	}
	if len(prompts) != 5 {
		t.Fatalf("expected the retention bound of 5, got %d", len(prompts))
	}
	if prompts[0].Text != "prompt 6" || prompts[4].Text != "prompt 2" {
		t.Fatalf("unexpected prompt order: %+v", prompts)
	}

	// Re-adding an existing prompt refreshes recency without duplicating.
	if _, err := store.AddPrompt(ctx, "prompt 3"); err != nil {
		t.Fatalf("re-add prompt: %v", err)
	}
	prompts, err = store.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("list prompts after re-add: %v", err)
	}
	if len(prompts) != 5 {
		t.Fatalf("re-add must not grow the set, got %d", len(prompts))
	}
	if prompts[0].Text != "prompt 3" {
		t.Fatalf("re-added prompt must be newest: %+v", prompts)
	}
}

func TestAddPromptValidation(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)

	if _, err := store.AddPrompt(context.Background(), "   "); err == nil {
		t.Fatal("expected validation error for blank prompt")
	}

	saved, err := store.AddPrompt(context.Background(), "  keep me  ")
	if err != nil {
		t.Fatalf("add prompt: %v", err)
	}
	if saved.Text != "keep me" {
		t.Fatalf("prompt text must be trimmed: %q", saved.Text)
	}
}

func TestDeletePrompt(t *testing.T) {
	store, _ := newTestStore(t, 5, 5)
	ctx := context.Background()

	if _, err := store.AddPrompt(ctx, "target"); err != nil {
		t.Fatalf("add prompt: %v", err)
	}

	removed, err := store.DeletePrompt(ctx, "target")
	if err != nil {
		t.Fatalf("delete prompt: %v", err)
	}
	if !removed {
		t.Fatal("expected delete to report removal")
	}

	removed, err = store.DeletePrompt(ctx, "target")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if removed {
		t.Fatal("second delete must report absence")
	}
}

func TestTrimRestoresBounds(t *testing.T) {
	store, mr := newTestStore(t, 5, 5)
	ctx := context.Background()

	// Seed the prompt set past the bound behind the store's back, the way a
	// crashed write between upsert and trim would leave it.
	for i := 0; i < 9; i++ {
		mr.ZAdd("recent_prompts", float64(i), fmt.Sprintf("stale %d", i))
	}

	if err := store.TrimPrompts(ctx); err != nil {
		t.Fatalf("trim prompts: %v", err)
	}
	prompts, err := store.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("list prompts: %v", err)
	}
	if len(prompts) != 5 {
		t.Fatalf("trim must restore the bound, got %d", len(prompts))
	}
	if prompts[0].Text != "stale 8" {
		t.Fatalf("trim must evict lowest scores first: %+v", prompts)
	}
}
