package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is an account that owns boards.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   *string   `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// Board describes a named collection of tasks owned by a single user.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Lifecycle Lifecycle `json:"lifecycle"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner returns the id of the user the board belongs to.
func (b Board) Owner() string { return b.OwnerID }

// Task represents a single card on a board.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Lifecycle   Lifecycle  `json:"lifecycle"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Owner returns the denormalized owner id copied from the task's board.
func (t Task) Owner() string { return t.OwnerID }

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the three board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the task priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// State names a lifecycle stage as persisted.
type State string

const (
	StateActive  State = "active"
	StateTrashed State = "trashed"
)

// Lifecycle is either active or trashed at a point in time. The zero value is active.
// Fields are unexported so a trashed-at timestamp can only exist on a trashed lifecycle.
type Lifecycle struct {
	trashed   bool
	trashedAt time.Time
}

// Active returns the active lifecycle.
func Active() Lifecycle { return Lifecycle{} }

// Trashed returns a lifecycle trashed at the given instant.
func Trashed(at time.Time) Lifecycle {
	return Lifecycle{trashed: true, trashedAt: at}
}

func (l Lifecycle) State() State {
	if l.trashed {
		return StateTrashed
	}
	return StateActive
}

func (l Lifecycle) IsActive() bool { return !l.trashed }

// TrashedAt reports when the entity was trashed; ok is false for active entities.
func (l Lifecycle) TrashedAt() (at time.Time, ok bool) {
	return l.trashedAt, l.trashed
}

// Columns splits the lifecycle into its persisted state and nullable timestamp.
func (l Lifecycle) Columns() (State, *time.Time) {
	if !l.trashed {
		return StateActive, nil
	}
	at := l.trashedAt
	return StateTrashed, &at
}

// LifecycleFromColumns rebuilds a lifecycle from persisted columns, rejecting inconsistent pairs.
func LifecycleFromColumns(state State, trashedAt *time.Time) (Lifecycle, error) {
	switch state {
	case StateActive:
		if trashedAt != nil {
			return Lifecycle{}, fmt.Errorf("active lifecycle with trashed_at %s", trashedAt.Format(time.RFC3339))
		}
		return Active(), nil
	case StateTrashed:
		if trashedAt == nil {
			return Lifecycle{}, fmt.Errorf("trashed lifecycle without trashed_at")
		}
		return Trashed(*trashedAt), nil
	default:
		return Lifecycle{}, fmt.Errorf("unknown lifecycle state %q", state)
	}
}

type lifecycleJSON struct {
	State     State      `json:"state"`
	TrashedAt *time.Time `json:"trashed_at"`
}

func (l Lifecycle) MarshalJSON() ([]byte, error) {
	state, at := l.Columns()
	return json.Marshal(lifecycleJSON{State: state, TrashedAt: at})
}

func (l *Lifecycle) UnmarshalJSON(data []byte) error {
	var raw lifecycleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := LifecycleFromColumns(raw.State, raw.TrashedAt)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
