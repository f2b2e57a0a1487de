package relay

import "github.com/termrelay/termrelay/internal/model"

// Status classifies the outcome of a create or update event.
type Status string

const (
	// StatusNoop means the command did not qualify for logging. Not an error.
	StatusNoop Status = "noop"
	// StatusLogged means the entry was recorded upstream.
	StatusLogged Status = "logged"
	// StatusCached means the entry was written to the local journal only.
	StatusCached Status = "cached"
	// StatusFailed means the upstream rejected or never received the entry;
	// the record was still cached locally.
	StatusFailed Status = "failed"
)

// Result is the caller-facing outcome of an event. Failures are carried
// here as data; the engine never surfaces them as faults.
type Result struct {
	Status   Status   `json:"status"`
	EntryID  string   `json:"id,omitempty"`
	RemoteID int64    `json:"gw_id,omitempty"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// CreateRequest is a "command started" event from a pre-exec hook.
type CreateRequest struct {
	ID          string          `json:"id"`
	Command     string          `json:"command"`
	StartTime   model.Timestamp `json:"start_time,omitzero"`
	SourceHost  string          `json:"source_host,omitempty"`
	DestHost    string          `json:"dest_host,omitempty"`
	Tool        string          `json:"tool,omitempty"`
	UserContext string          `json:"user_context,omitempty"`
	Operator    string          `json:"operator,omitempty"`
	Comments    string          `json:"comments,omitempty"`
}

// UpdateRequest is a "command finished" event from a post-exec hook, or a
// manual out-of-band update when RemoteID is set.
type UpdateRequest struct {
	ID          string          `json:"id"`
	Command     string          `json:"command,omitempty"`
	EndTime     model.Timestamp `json:"end_time,omitzero"`
	Output      string          `json:"output,omitempty"`
	Description string          `json:"description,omitempty"`
	SourceHost  string          `json:"source_host,omitempty"`
	DestHost    string          `json:"dest_host,omitempty"`
	Tool        string          `json:"tool,omitempty"`
	UserContext string          `json:"user_context,omitempty"`
	Operator    string          `json:"operator,omitempty"`
	Comments    string          `json:"comments,omitempty"`
	RemoteID    int64           `json:"gw_id,omitempty"`
}
