package model

import "time"

// WorkTimerStatus is the work timer's state machine position.
type WorkTimerStatus string

const (
	TimerStopped WorkTimerStatus = "stopped"
	TimerWorking WorkTimerStatus = "working"
	TimerBreak   WorkTimerStatus = "break"
)

// WorkTimer accumulates work/break seconds across a session.
type WorkTimer struct {
	Status         WorkTimerStatus `json:"status"`
	WorkStartTime  *time.Time      `json:"workStartTime,omitempty"`
	BreakStartTime *time.Time      `json:"breakStartTime,omitempty"`
	TotalWorkTime  int64           `json:"totalWorkTime"`  // seconds
	TotalBreakTime int64           `json:"totalBreakTime"` // seconds
}

// PomodoroSettings is opaque to the engine; it rides along in the
// session snapshot for the timer display.
type PomodoroSettings struct {
	MotivationText string   `json:"motivationText,omitempty"`
	ShowMotivation bool     `json:"showMotivation"`
	UseRandomQuote bool     `json:"useRandomQuote"`
	DefaultQuotes  []string `json:"defaultQuotes,omitempty"`
}

// SessionState is the whole shape persisted under the local storage key,
// read once at startup and written after every mutation.
type SessionState struct {
	Users            []User           `json:"users"`
	Categories       []Category       `json:"categories"`
	Groups           []Group          `json:"groups"`
	Tasks            []Task           `json:"tasks"`
	CurrentUserID    string           `json:"currentUserId,omitempty"`
	Filter           TaskFilter       `json:"filter"`
	CustomEmojis     []string         `json:"customEmojis,omitempty"`
	WorkTimer        WorkTimer        `json:"workTimer"`
	History          []HistoryAction  `json:"history,omitempty"`
	PomodoroSettings PomodoroSettings `json:"pomodoroSettings"`
}
