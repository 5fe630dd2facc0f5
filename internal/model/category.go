package model

// Category groups tasks by area (work, health, study, etc.). Every
// category belongs to exactly one group.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	GroupID string `json:"groupId"`
	Order   int    `json:"order"`
}

// Group is a named collection of categories.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}
