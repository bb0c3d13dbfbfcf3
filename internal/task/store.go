package task

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solacehq/solace/internal/db"
)

// ErrNotFound is returned when no task exists for the given user and ID.
var ErrNotFound = errors.New("task: not found")

// Store provides CRUD access to the tasks table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const taskColumns = `id, user_id, title, description, category, priority, status, due_date, completed_at, created_at, updated_at`

// Create inserts a new task and returns the stored record. Title is
// required; priority defaults to medium and status to pending.
func (s *Store) Create(t Task) (Task, error) {
	if t.Title == "" {
		return Task{}, errors.New("task: title is required")
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !ValidPriority(t.Priority) {
		return Task{}, fmt.Errorf("task: invalid priority %q", t.Priority)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !ValidStatus(t.Status) {
		return Task{}, fmt.Errorf("task: invalid status %q", t.Status)
	}

	var due any
	if t.DueDate != nil {
		due = t.DueDate.UTC().Format("2006-01-02 15:04:05")
	}

	var id string
	err := s.db.Conn().QueryRow(`
		INSERT INTO tasks (id, user_id, title, description, category, priority, status, due_date)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		t.UserID, t.Title, t.Description, t.Category, string(t.Priority), string(t.Status), due,
	).Scan(&id)
	if err != nil {
		return Task{}, fmt.Errorf("task: create: %w", err)
	}

	return s.Get(t.UserID, id)
}

// Get returns a single task owned by the user.
func (s *Store) Get(userID, id string) (Task, error) {
	row := s.db.Conn().QueryRow(
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("task: get: %w", err)
	}
	return t, nil
}

// List returns the user's tasks matching the filter, sorted by priority
// descending, due date ascending (undated last), then creation time
// descending.
func (s *Store) List(userID string, f Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(f.Priority))
	}

	query += `
		ORDER BY
		    CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		    due_date IS NULL, due_date ASC,
		    created_at DESC`

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Apply updates a task's fields. When the status transitions to completed,
// completed_at is stamped in the same update; any other status clears it.
func (s *Store) Apply(userID, id string, u Update) (Task, error) {
	current, err := s.Get(userID, id)
	if err != nil {
		return Task{}, err
	}

	if u.Title != nil {
		if *u.Title == "" {
			return Task{}, errors.New("task: title is required")
		}
		current.Title = *u.Title
	}
	if u.Description != nil {
		current.Description = *u.Description
	}
	if u.Category != nil {
		current.Category = *u.Category
	}
	if u.Priority != nil {
		if !ValidPriority(*u.Priority) {
			return Task{}, fmt.Errorf("task: invalid priority %q", *u.Priority)
		}
		current.Priority = *u.Priority
	}
	if u.DueDate != nil {
		current.DueDate = u.DueDate
	}

	completedClause := `completed_at`
	if u.Status != nil {
		if !ValidStatus(*u.Status) {
			return Task{}, fmt.Errorf("task: invalid status %q", *u.Status)
		}
		current.Status = *u.Status
		if *u.Status == StatusCompleted {
			completedClause = `CURRENT_TIMESTAMP`
		} else {
			completedClause = `NULL`
		}
	}

	var due any
	if current.DueDate != nil {
		due = current.DueDate.UTC().Format("2006-01-02 15:04:05")
	}

	_, err = s.db.Conn().Exec(`
		UPDATE tasks SET
		    title        = ?,
		    description  = ?,
		    category     = ?,
		    priority     = ?,
		    status       = ?,
		    due_date     = ?,
		    completed_at = `+completedClause+`,
		    updated_at   = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id = ?`,
		current.Title, current.Description, current.Category,
		string(current.Priority), string(current.Status), due,
		userID, id,
	)
	if err != nil {
		return Task{}, fmt.Errorf("task: update: %w", err)
	}

	return s.Get(userID, id)
}

// Delete removes a task owned by the user.
func (s *Store) Delete(userID, id string) error {
	res, err := s.db.Conn().Exec(`DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of tasks stored for a user.
func (s *Store) Count(userID string) (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM tasks WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var priority, status string
	var due, completed sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category,
		&priority, &status, &due, &completed, &createdAt, &updatedAt)
	if err != nil {
		return Task{}, err
	}

	t.Priority = Priority(priority)
	t.Status = Status(status)
	if due.Valid {
		d := parseTime(due.String)
		t.DueDate = &d
	}
	if completed.Valid {
		c := parseTime(completed.String)
		t.CompletedAt = &c
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

// parseTime tries multiple SQLite timestamp layouts.
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
