package model

// User is an assignable identity inside the planner.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// TaskFilter narrows the filtered-tasks query. Nil/empty dimensions are
// not applied.
type TaskFilter struct {
	AssigneeID string `json:"assigneeId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	Completed  *bool  `json:"completed,omitempty"`
	IsToday    *bool  `json:"isToday,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Identity is what the external identity provider resolves to.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	ProviderID  string `json:"providerId,omitempty"`
}

// AuthState tracks identity readiness. Loading flips to false exactly
// once per session, or again after a sign-out reset.
type AuthState struct {
	Loading bool   `json:"loading"`
	UID     string `json:"uid,omitempty"`
}
