package model

import (
	"slices"
	"time"
)

// Event is a gathering owned by its creator and shared with participants.
//
// TaskIDs is the authoritative membership list for the event's tasks at
// write time, but readers must treat it as a cache: the task store queried
// by event id is the source of truth (a crash between a task write and the
// list update can leave the two transiently disagreeing).
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Date         time.Time `json:"date"`
	Location     string    `json:"location,omitempty"`
	CreatedBy    string    `json:"created_by"`
	Participants []string  `json:"participants"`
	TaskIDs      []string  `json:"task_ids"`
	CreatedAt    time.Time `json:"created_at"`

	// Tasks is populated on single-event reads (never stored).
	Tasks []*Task `json:"tasks,omitempty"`
}

// HasParticipant reports whether the user is in the participant set.
func (e *Event) HasParticipant(userID string) bool {
	return slices.Contains(e.Participants, userID)
}
