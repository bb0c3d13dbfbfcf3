package memory

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/solacehq/solace/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, *Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database, NewStore(database)
}

func TestStore_UpsertAndGetMemory(t *testing.T) {
	_, store := setupTestDB(t)

	m, err := store.UpsertMemory("u1", "favourite_food", "ramen", TypePreference, nil)
	if err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}
	if m.ID == "" {
		t.Error("expected non-empty memory ID")
	}

	got, ok, err := store.GetMemory("u1", "favourite_food", TypePreference)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if !ok {
		t.Fatal("expected memory to exist")
	}
	if got.Value != "ramen" {
		t.Errorf("value: got %q, want %q", got.Value, "ramen")
	}
}

func TestStore_UpsertMemory_OverwritesSameKey(t *testing.T) {
	_, store := setupTestDB(t)

	first, _ := store.UpsertMemory("u1", "favourite_food", "ramen", TypePreference, nil)
	second, err := store.UpsertMemory("u1", "favourite_food", "udon", TypePreference, nil)
	if err != nil {
		t.Fatalf("UpsertMemory (update): %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same ID on upsert, got %q vs %q", first.ID, second.ID)
	}

	if n, _ := store.CountMemories("u1"); n != 1 {
		t.Errorf("expected 1 memory after upsert, got %d", n)
	}
	got, _, _ := store.GetMemory("u1", "favourite_food", TypePreference)
	if got.Value != "udon" {
		t.Errorf("value after upsert: got %q, want %q", got.Value, "udon")
	}
}

func TestStore_UpsertMemory_SameKeyDifferentType(t *testing.T) {
	_, store := setupTestDB(t)

	store.UpsertMemory("u1", "focus", "shipping", TypeConversation, nil)
	store.UpsertMemory("u1", "focus", "deep work", TypePreference, nil)

	if n, _ := store.CountMemories("u1"); n != 2 {
		t.Errorf("expected 2 memories across types, got %d", n)
	}
}

func TestStore_GetMemory_Absent(t *testing.T) {
	_, store := setupTestDB(t)

	_, ok, err := store.GetMemory("u1", "nothing", "")
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if ok {
		t.Error("expected absent memory")
	}
}

func TestStore_GetMemory_ExpiredIsDeleted(t *testing.T) {
	_, store := setupTestDB(t)

	past := time.Now().Add(-time.Hour)
	if _, err := store.UpsertMemory("u1", "stale", "v", TypePreference, &past); err != nil {
		t.Fatalf("UpsertMemory: %v", err)
	}

	_, ok, err := store.GetMemory("u1", "stale", TypePreference)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if ok {
		t.Error("expected expired memory to read as absent")
	}

	// The expired row is gone; a second read stays absent.
	if n, _ := store.CountMemories("u1"); n != 0 {
		t.Errorf("expected expired row deleted, %d rows remain", n)
	}
	if _, ok, _ := store.GetMemory("u1", "stale", TypePreference); ok {
		t.Error("expected repeated read to stay absent")
	}
}

func TestStore_GetMemory_FutureExpiryIsLive(t *testing.T) {
	_, store := setupTestDB(t)

	future := time.Now().Add(time.Hour)
	store.UpsertMemory("u1", "fresh", "v", TypePreference, &future)

	got, ok, err := store.GetMemory("u1", "fresh", TypePreference)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if !ok {
		t.Fatal("expected live memory")
	}
	if got.ExpiresAt == nil {
		t.Error("expected expiry to round-trip")
	}
}

func TestStore_PruneExpired(t *testing.T) {
	_, store := setupTestDB(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	store.UpsertMemory("u1", "a", "v", TypePreference, &past)
	store.UpsertMemory("u1", "b", "v", TypePreference, &future)
	store.UpsertMemory("u1", "c", "v", TypePreference, nil)

	n, err := store.PruneExpired()
	if err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned: got %d, want 1", n)
	}
	if left, _ := store.CountMemories("u1"); left != 2 {
		t.Errorf("remaining: got %d, want 2", left)
	}
}

func TestStore_RelevantMemories(t *testing.T) {
	_, store := setupTestDB(t)

	// Conversational and preference types are always relevant.
	store.UpsertMemory("u1", "favourite_food", "ramen", TypePreference, nil)
	// Typed memories need a context overlap.
	store.UpsertMemory("u1", "project_notes", "the gardening project plan", "note", nil)
	store.UpsertMemory("u1", "unrelated", "tax paperwork", "note", nil)

	c := NewContext("u1")
	c.AddTopic("gardening")

	mems, err := store.RelevantMemories("u1", c, 10)
	if err != nil {
		t.Fatalf("RelevantMemories: %v", err)
	}
	if len(mems) != 2 {
		t.Fatalf("expected 2 relevant memories, got %d", len(mems))
	}
	for _, m := range mems {
		if m.Key == "unrelated" {
			t.Error("unrelated memory should be filtered out")
		}
	}
}

func TestStore_RelevantMemories_ExcludesExpired(t *testing.T) {
	_, store := setupTestDB(t)

	past := time.Now().Add(-time.Hour)
	store.UpsertMemory("u1", "old", "v", TypePreference, &past)
	store.UpsertMemory("u1", "new", "v", TypePreference, nil)

	mems, err := store.RelevantMemories("u1", NewContext("u1"), 10)
	if err != nil {
		t.Fatalf("RelevantMemories: %v", err)
	}
	if len(mems) != 1 || mems[0].Key != "new" {
		t.Errorf("expected only the live memory, got %v", mems)
	}
}

func TestStore_ContextRoundTrip(t *testing.T) {
	_, store := setupTestDB(t)

	c := NewContext("u1")
	c.CurrentTask = "finish the report"
	c.Mood = MoodStressed
	c.Energy = EnergyLow
	c.AddTopic("deadlines")
	c.AddTopic("coffee")
	c.ActivateModule("wellbeing")

	if err := store.StoreContext(c); err != nil {
		t.Fatalf("StoreContext: %v", err)
	}

	got, err := store.Context("u1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got.CurrentTask != "finish the report" {
		t.Errorf("current task: got %q", got.CurrentTask)
	}
	if got.Mood != MoodStressed {
		t.Errorf("mood: got %q", got.Mood)
	}
	if got.Energy != EnergyLow {
		t.Errorf("energy: got %q", got.Energy)
	}
	if len(got.RecentTopics) != 2 || got.RecentTopics[1] != "coffee" {
		t.Errorf("topics: got %v", got.RecentTopics)
	}
	if len(got.ActiveModules) != 1 || got.ActiveModules[0] != "wellbeing" {
		t.Errorf("modules: got %v", got.ActiveModules)
	}
}

func TestStore_Context_FreshUser(t *testing.T) {
	_, store := setupTestDB(t)

	c, err := store.Context("nobody")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if c.UserID != "nobody" {
		t.Errorf("user id: got %q", c.UserID)
	}
	if c.CurrentTask != "" || c.Mood != "" || len(c.RecentTopics) != 0 {
		t.Errorf("expected empty context, got %+v", c)
	}
}

func TestStore_Context_BadTopicsJSON(t *testing.T) {
	_, store := setupTestDB(t)

	store.UpsertMemory("u1", KeyRecentTopics, "not json", TypeConversation, nil)

	c, err := store.Context("u1")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if len(c.RecentTopics) != 0 {
		t.Errorf("expected unparseable topics dropped, got %v", c.RecentTopics)
	}
}

func TestStore_AppendAndRecentMessages(t *testing.T) {
	_, store := setupTestDB(t)

	store.AppendMessage("u1", "hello", map[string]any{"role": "user"})
	store.AppendMessage("u1", "hi there", map[string]any{"role": "assistant"})

	msgs, err := store.RecentMessages("u1", 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Newest first.
	if msgs[0].Content != "hi there" {
		t.Errorf("order: got %q first", msgs[0].Content)
	}
	if msgs[0].Role() != "assistant" || msgs[1].Role() != "user" {
		t.Errorf("roles: got %q, %q", msgs[0].Role(), msgs[1].Role())
	}
}

func TestStore_RecentMessages_Limit(t *testing.T) {
	_, store := setupTestDB(t)

	for i := 0; i < 5; i++ {
		store.AppendMessage("u1", "msg", nil)
	}
	msgs, _ := store.RecentMessages("u1", 3)
	if len(msgs) != 3 {
		t.Errorf("limit: got %d messages, want 3", len(msgs))
	}
}

func TestStore_MessagesIsolatedPerUser(t *testing.T) {
	_, store := setupTestDB(t)

	store.AppendMessage("u1", "mine", nil)
	store.AppendMessage("u2", "theirs", nil)

	msgs, _ := store.RecentMessages("u1", 10)
	if len(msgs) != 1 || msgs[0].Content != "mine" {
		t.Errorf("expected only u1 messages, got %v", msgs)
	}
}

func TestStore_ResetUser(t *testing.T) {
	_, store := setupTestDB(t)

	store.AppendMessage("u1", "hello", nil)
	store.UpsertMemory("u1", "k", "v", TypePreference, nil)
	store.AppendMessage("u2", "other", nil)

	if err := store.ResetUser("u1"); err != nil {
		t.Fatalf("ResetUser: %v", err)
	}

	if n, _ := store.CountMessages("u1"); n != 0 {
		t.Errorf("messages after reset: got %d", n)
	}
	if n, _ := store.CountMemories("u1"); n != 0 {
		t.Errorf("memories after reset: got %d", n)
	}
	if n, _ := store.CountMessages("u2"); n != 1 {
		t.Errorf("other user's messages touched: got %d", n)
	}
}

func TestStore_DeleteMemoriesByType(t *testing.T) {
	_, store := setupTestDB(t)

	store.UpsertMemory("u1", "a", "v", TypeConversation, nil)
	store.UpsertMemory("u1", "b", "v", TypeConversation, nil)
	store.UpsertMemory("u1", "c", "v", TypePreference, nil)

	n, err := store.DeleteMemoriesByType("u1", TypeConversation)
	if err != nil {
		t.Fatalf("DeleteMemoriesByType: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}
	if left, _ := store.CountMemories("u1"); left != 1 {
		t.Errorf("remaining: got %d, want 1", left)
	}
}
