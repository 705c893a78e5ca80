package models

// ConversationEntry is one (task, response) pair in a worker's log.
type ConversationEntry struct {
	// Task is the task content the worker received.
	Task string `json:"task"`
	// Response is the cleaned model output.
	Response string `json:"response"`
}

// Admission is a worker's answer to an offered task.
type Admission string

const (
	// Accepted means the worker will take the task.
	Accepted Admission = "Accepted"
	// Rejected means the task type does not match or the worker is busy.
	Rejected Admission = "Rejected"
)
