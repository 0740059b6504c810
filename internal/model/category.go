package model

// AllCategories is the category filter value meaning "no filter".
const AllCategories = "All"

// Category groups tasks by a user-defined label.
type Category struct {
	ID      string `json:"_id,omitempty" yaml:"id,omitempty"`
	Name    string `json:"name" yaml:"name"`
	OwnerID string `json:"userId,omitempty" yaml:"owner_id,omitempty"`
}
