package model

import "time"

// AgentName enumerates the pipeline stages for status reporting. The pipeline
// itself reports under AgentPipeline when a run fails as a whole.
type AgentName string

const (
	AgentProfiler    AgentName = "profiler"
	AgentDetective   AgentName = "detective"
	AgentStoryteller AgentName = "storyteller"
	AgentContext     AgentName = "additional-context"
	AgentPipeline    AgentName = "pipeline"
)

// StatusValue is the lifecycle state of a stage within a run.
type StatusValue string

const (
	StatusPending   StatusValue = "pending"
	StatusStarting  StatusValue = "starting"
	StatusRunning   StatusValue = "running"
	StatusCompleted StatusValue = "completed"
	StatusError     StatusValue = "error"
)

// AgentStatus is a transient per-session progress record. Each write
// supersedes the previous one; it is not required to survive a restart.
type AgentStatus struct {
	Agent     AgentName   `json:"agent"`
	Status    StatusValue `json:"status"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAgentStatus stamps a status record with the current time.
func NewAgentStatus(agent AgentName, status StatusValue, message string) AgentStatus {
	return AgentStatus{
		Agent:     agent,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
