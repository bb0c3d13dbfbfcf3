// Package memory defines Solace's durable per-user conversational state:
// typed key/value memories, the append-only message log, and the
// conversation context reconstructed from well-known memory keys.
package memory

import "time"

// Mood is the detected emotional state of a user.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodStressed Mood = "stressed"
	MoodNeutral  Mood = "neutral"
	MoodExcited  Mood = "excited"
	MoodTired    Mood = "tired"
)

// Energy is the detected energy level of a user.
type Energy string

const (
	EnergyHigh   Energy = "high"
	EnergyMedium Energy = "medium"
	EnergyLow    Energy = "low"
)

// Memory type tags. Free text in storage; these are the tags Solace writes.
const (
	TypeConversation = "conversation"
	TypePreference   = "preference"
)

// Well-known memory keys the conversation context is persisted under.
const (
	KeyCurrentTask   = "current_task"
	KeyCurrentMood   = "current_mood"
	KeyCurrentEnergy = "current_energy"
	KeyRecentTopics  = "recent_topics"
	KeyActiveModules = "active_modules"
)

// MaxRecentTopics caps Context.RecentTopics; oldest entries drop first.
const MaxRecentTopics = 5

// Memory is a durable typed key/value fact about a user.
// At most one live (non-expired) row exists per (UserID, Key, Type).
type Memory struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	Type      string     `json:"type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the memory's expiry has passed at time now.
func (m Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// Message is one immutable entry in a user's conversation log.
type Message struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Role returns the sender role recorded in the message metadata, or "".
func (m Message) Role() string {
	if r, ok := m.Metadata["role"].(string); ok {
		return r
	}
	return ""
}

// Context is the mutable per-user conversational state. It is lazily created
// on a user's first message and overwritten in place after every exchange.
type Context struct {
	UserID        string   `json:"user_id"`
	CurrentTask   string   `json:"current_task,omitempty"`
	Mood          Mood     `json:"mood,omitempty"`
	Energy        Energy   `json:"energy,omitempty"`
	RecentTopics  []string `json:"recent_topics,omitempty"`
	ActiveModules []string `json:"active_modules,omitempty"`
}

// NewContext returns an empty context keyed to the user.
func NewContext(userID string) Context {
	return Context{UserID: userID}
}

// AddTopic appends a topic to RecentTopics, keeping the newest last and the
// list capped at MaxRecentTopics.
func (c *Context) AddTopic(topic string) {
	c.RecentTopics = append(c.RecentTopics, topic)
	if len(c.RecentTopics) > MaxRecentTopics {
		c.RecentTopics = c.RecentTopics[len(c.RecentTopics)-MaxRecentTopics:]
	}
}

// ActivateModule adds a module name to ActiveModules unless already present.
// Order is first-seen.
func (c *Context) ActivateModule(name string) {
	for _, m := range c.ActiveModules {
		if m == name {
			return
		}
	}
	c.ActiveModules = append(c.ActiveModules, name)
}
