package model

// Priority is the urgency a user gives a task. Values match the server's wire format.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Baixa"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a single item as the remote service stores it.
// Active means completed.
type Task struct {
	ID       string   `json:"_id,omitempty" yaml:"id,omitempty"`
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Priority Priority `json:"priority" yaml:"priority"`
	Date     string   `json:"date" yaml:"date"`
	Active   bool     `json:"active" yaml:"active"`
	OwnerID  string   `json:"userId,omitempty" yaml:"owner_id,omitempty"`
}

// Persisted reports whether the server has assigned an id.
func (t Task) Persisted() bool {
	return t.ID != ""
}
