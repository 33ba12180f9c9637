package model

import "time"

// AutomationState is the processing state reported by the automation backend.
// The zero value stands for a null state.
type AutomationState string

const (
	AutomationStateNone      AutomationState = ""
	AutomationStatePending   AutomationState = "pending"
	AutomationStateRunning   AutomationState = "running"
	AutomationStateCompleted AutomationState = "completed"
	AutomationStateFailed    AutomationState = "failed"
)

// AutomationStates lists the non-null states in display order.
var AutomationStates = []AutomationState{
	AutomationStatePending,
	AutomationStateRunning,
	AutomationStateCompleted,
	AutomationStateFailed,
}

// String returns the state, or "none" for the null state.
func (s AutomationState) String() string {
	if s == AutomationStateNone {
		return "none"
	}
	return string(s)
}

// IsTerminal reports whether the automation run has finished.
func (s AutomationState) IsTerminal() bool {
	return s == AutomationStateCompleted || s == AutomationStateFailed
}

// AutomationStatus is the externally computed automation state of one issue.
type AutomationStatus struct {
	Status       AutomationState `json:"status"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	TaskID       string          `json:"taskId,omitempty"`
}

// PendingAutomationStatus is the optimistic status set after a retry request.
func PendingAutomationStatus() AutomationStatus {
	return AutomationStatus{Status: AutomationStatePending}
}
