package model

// HistoryType classifies an undo ledger entry.
type HistoryType string

const (
	HistoryDelete   HistoryType = "delete"
	HistoryComplete HistoryType = "complete"
	HistoryUpdate   HistoryType = "update"
	HistoryBulk     HistoryType = "bulk"
)

// HistoryAction is one undo ledger entry: deep copies of the affected
// tasks as they were before the mutation.
type HistoryAction struct {
	Type      HistoryType `json:"type"`
	Timestamp int64       `json:"timestamp"` // epoch ms
	Tasks     []Task      `json:"tasks"`
}

// WriteType classifies a buffered repository write.
type WriteType string

const (
	WriteAdd      WriteType = "add"
	WriteUpdate   WriteType = "update"
	WriteDelete   WriteType = "delete"
	WriteComplete WriteType = "complete"
)

// PendingWrite is a mutation attempted before auth readiness. It lives
// only between the optimistic local apply and the replay through a valid
// repository.
type PendingWrite struct {
	ID        string    `json:"id"`
	Type      WriteType `json:"type"`
	Task      Task      `json:"task,omitempty"`
	Patch     TaskPatch `json:"patch,omitempty"`
	Timestamp int64     `json:"timestamp"` // epoch ms
}
