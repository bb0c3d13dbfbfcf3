package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/solacehq/solace/internal/db"
)

// Store provides read/write access to memories, messages, and the
// reconstructed conversation context.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Conn exposes the underlying *sql.DB for low-level queries.
func (s *Store) Conn() *sql.DB {
	return s.db.Conn()
}

// ---- Memories ----

// UpsertMemory inserts a memory, or overwrites the value and expiry of the
// live row matching (userID, key, typ). Returns the stored record.
func (s *Store) UpsertMemory(userID, key, value, typ string, expiresAt *time.Time) (Memory, error) {
	if typ == "" {
		typ = TypeConversation
	}

	var expires any
	if expiresAt != nil {
		expires = expiresAt.UTC().Format("2006-01-02 15:04:05")
	}

	var m Memory
	var expiresStr sql.NullString
	var createdAt, updatedAt string
	err := s.db.Conn().QueryRow(`
		INSERT INTO memories (id, user_id, key, value, memory_type, expires_at)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, key, memory_type) DO UPDATE SET
		    value      = excluded.value,
		    expires_at = excluded.expires_at,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, key, value, memory_type, expires_at, created_at, updated_at`,
		userID, key, value, typ, expires,
	).Scan(&m.ID, &m.UserID, &m.Key, &m.Value, &m.Type, &expiresStr, &createdAt, &updatedAt)
	if err != nil {
		return Memory{}, fmt.Errorf("store: upsert memory: %w", err)
	}

	if expiresStr.Valid {
		t := parseTime(expiresStr.String)
		m.ExpiresAt = &t
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return m, nil
}

// GetMemory returns the most-recently-updated memory matching (userID, key)
// and, if typ is non-empty, the given type. An expired match is deleted as a
// side effect and reported as absent. The second return is false when no live
// memory exists.
func (s *Store) GetMemory(userID, key, typ string) (Memory, bool, error) {
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = s.db.Conn().Query(`
			SELECT id, user_id, key, value, memory_type, expires_at, created_at, updated_at
			FROM memories WHERE user_id = ? AND key = ?
			ORDER BY updated_at DESC LIMIT 1`, userID, key)
	} else {
		rows, err = s.db.Conn().Query(`
			SELECT id, user_id, key, value, memory_type, expires_at, created_at, updated_at
			FROM memories WHERE user_id = ? AND key = ? AND memory_type = ?
			ORDER BY updated_at DESC LIMIT 1`, userID, key, typ)
	}
	if err != nil {
		return Memory{}, false, fmt.Errorf("store: get memory: %w", err)
	}
	defer rows.Close()

	mems, err := scanMemories(rows)
	if err != nil {
		return Memory{}, false, err
	}
	if len(mems) == 0 {
		return Memory{}, false, nil
	}

	m := mems[0]
	if m.Expired(time.Now()) {
		if err := s.DeleteMemory(m.ID); err != nil {
			return Memory{}, false, fmt.Errorf("store: delete expired memory: %w", err)
		}
		return Memory{}, false, nil
	}
	return m, true, nil
}

// RelevantMemories returns up to limit non-expired memories related to the
// given context: the limit most-recently-updated rows are fetched, then
// filtered to those overlapping the current task, an active module, a recent
// topic, or carrying a conversational type tag. Recency order is preserved.
func (s *Store) RelevantMemories(userID string, c Context, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Conn().Query(`
		SELECT id, user_id, key, value, memory_type, expires_at, created_at, updated_at
		FROM memories
		WHERE user_id = ? AND (expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP)
		ORDER BY updated_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: relevant memories: %w", err)
	}
	defer rows.Close()

	mems, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	var out []Memory
	for _, m := range mems {
		if len(out) >= limit {
			break
		}
		if matchesContext(m, c) {
			out = append(out, m)
		}
	}
	return out, nil
}

// matchesContext reports whether a memory is relevant to the context.
func matchesContext(m Memory, c Context) bool {
	if m.Type == TypeConversation || m.Type == TypePreference {
		return true
	}

	text := strings.ToLower(m.Key + " " + m.Value)
	if task := strings.ToLower(c.CurrentTask); task != "" {
		if strings.Contains(text, task) || strings.Contains(task, strings.ToLower(m.Key)) {
			return true
		}
	}
	for _, mod := range c.ActiveModules {
		if strings.Contains(text, strings.ToLower(mod)) {
			return true
		}
	}
	for _, topic := range c.RecentTopics {
		if strings.Contains(text, strings.ToLower(topic)) {
			return true
		}
	}
	return false
}

// DeleteMemory removes a memory by ID.
func (s *Store) DeleteMemory(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM memories WHERE id = ?`, id)
	return err
}

// DeleteMemoriesByType removes all of a user's memories of the given type.
func (s *Store) DeleteMemoriesByType(userID, typ string) (int, error) {
	res, err := s.db.Conn().Exec(
		`DELETE FROM memories WHERE user_id = ? AND memory_type = ?`, userID, typ)
	if err != nil {
		return 0, fmt.Errorf("store: delete memories by type: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PruneExpired deletes every expired memory row. Returns the number deleted.
func (s *Store) PruneExpired() (int, error) {
	res, err := s.db.Conn().Exec(
		`DELETE FROM memories WHERE expires_at IS NOT NULL AND expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("store: prune expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountMemories returns the number of memories stored for a user.
func (s *Store) CountMemories(userID string) (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM memories WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// ---- Conversation context ----

// Context reconstructs the conversation context from the five well-known
// memory keys. List-valued keys are stored as JSON arrays; a parse failure is
// logged and treated as the field being absent.
func (s *Store) Context(userID string) (Context, error) {
	c := NewContext(userID)

	if m, ok, err := s.GetMemory(userID, KeyCurrentTask, TypeConversation); err != nil {
		return c, err
	} else if ok {
		c.CurrentTask = m.Value
	}

	if m, ok, err := s.GetMemory(userID, KeyCurrentMood, TypeConversation); err != nil {
		return c, err
	} else if ok {
		c.Mood = Mood(m.Value)
	}

	if m, ok, err := s.GetMemory(userID, KeyCurrentEnergy, TypeConversation); err != nil {
		return c, err
	} else if ok {
		c.Energy = Energy(m.Value)
	}

	if m, ok, err := s.GetMemory(userID, KeyRecentTopics, TypeConversation); err != nil {
		return c, err
	} else if ok {
		if jsonErr := json.Unmarshal([]byte(m.Value), &c.RecentTopics); jsonErr != nil {
			slog.Warn("discarding unparseable recent_topics memory", "user_id", userID, "error", jsonErr)
			c.RecentTopics = nil
		}
	}

	if m, ok, err := s.GetMemory(userID, KeyActiveModules, TypeConversation); err != nil {
		return c, err
	} else if ok {
		if jsonErr := json.Unmarshal([]byte(m.Value), &c.ActiveModules); jsonErr != nil {
			slog.Warn("discarding unparseable active_modules memory", "user_id", userID, "error", jsonErr)
			c.ActiveModules = nil
		}
	}

	return c, nil
}

// StoreContext persists the populated fields of a context, one memory entry
// per field, each under the conversation type.
func (s *Store) StoreContext(c Context) error {
	if c.CurrentTask != "" {
		if _, err := s.UpsertMemory(c.UserID, KeyCurrentTask, c.CurrentTask, TypeConversation, nil); err != nil {
			return err
		}
	}
	if c.Mood != "" {
		if _, err := s.UpsertMemory(c.UserID, KeyCurrentMood, string(c.Mood), TypeConversation, nil); err != nil {
			return err
		}
	}
	if c.Energy != "" {
		if _, err := s.UpsertMemory(c.UserID, KeyCurrentEnergy, string(c.Energy), TypeConversation, nil); err != nil {
			return err
		}
	}
	if len(c.RecentTopics) > 0 {
		b, _ := json.Marshal(c.RecentTopics)
		if _, err := s.UpsertMemory(c.UserID, KeyRecentTopics, string(b), TypeConversation, nil); err != nil {
			return err
		}
	}
	if len(c.ActiveModules) > 0 {
		b, _ := json.Marshal(c.ActiveModules)
		if _, err := s.UpsertMemory(c.UserID, KeyActiveModules, string(b), TypeConversation, nil); err != nil {
			return err
		}
	}
	return nil
}

// ---- Messages ----

// AppendMessage inserts an immutable conversation record.
func (s *Store) AppendMessage(userID, content string, metadata map[string]any) (Message, error) {
	metaJSON := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return Message{}, fmt.Errorf("store: marshal message metadata: %w", err)
		}
		metaJSON = string(b)
	}

	var m Message
	var createdAt string
	err := s.db.Conn().QueryRow(`
		INSERT INTO messages (id, user_id, content, metadata)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?)
		RETURNING id, created_at`,
		userID, content, metaJSON,
	).Scan(&m.ID, &createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("store: append message: %w", err)
	}

	m.UserID = userID
	m.Content = content
	m.Metadata = metadata
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// RecentMessages returns the limit most recent messages, newest first.
func (s *Store) RecentMessages(userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Conn().Query(`
		SELECT id, user_id, content, metadata, created_at
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var metaJSON, createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		if metaJSON != "" && metaJSON != "{}" {
			if jsonErr := json.Unmarshal([]byte(metaJSON), &m.Metadata); jsonErr != nil {
				slog.Warn("discarding unparseable message metadata", "message_id", m.ID, "error", jsonErr)
			}
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages returns the number of messages logged for a user.
func (s *Store) CountMessages(userID string) (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// DeleteMessages removes all of a user's conversation records.
func (s *Store) DeleteMessages(userID string) (int, error) {
	res, err := s.db.Conn().Exec(`DELETE FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("store: delete messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ResetUser deletes all conversation records and all memories for the user.
// Any storage error propagates; the reset never partially fails silently.
func (s *Store) ResetUser(userID string) error {
	if _, err := s.DeleteMessages(userID); err != nil {
		return err
	}
	if _, err := s.db.Conn().Exec(`DELETE FROM memories WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("store: delete memories: %w", err)
	}
	return nil
}

// ---- Helpers ----

// parseTime tries multiple SQLite timestamp layouts.
// go-sqlite3 may return RFC3339 or the plain "2006-01-02 15:04:05" format
// depending on the connection string and platform.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		var m Memory
		var expires sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Key, &m.Value, &m.Type, &expires, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if expires.Valid {
			t := parseTime(expires.String)
			m.ExpiresAt = &t
		}
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
