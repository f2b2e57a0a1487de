package model

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
)

// Entry is the correlated record for one shell command's lifecycle, from the
// pre-exec event through completion. The JSON tags are the persisted journal
// contract; a journal file re-read from disk reproduces the entry field for
// field.
type Entry struct {
	// ID is the client-generated correlation key. Immutable once set.
	ID      string `json:"id,omitempty"`
	OplogID int64  `json:"oplog_id,omitempty"`

	Command     string    `json:"command"`
	Description string    `json:"description,omitempty"`
	StartTime   Timestamp `json:"start_time,omitzero"`
	EndTime     Timestamp `json:"end_time,omitzero"`
	SourceHost  string    `json:"source_host,omitempty"`
	DestHost    string    `json:"dest_host,omitempty"`
	Tool        string    `json:"tool,omitempty"`
	UserContext string    `json:"user_context,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	Output      string    `json:"output,omitempty"`
	Comments    string    `json:"comments,omitempty"`

	// RemoteID is the identifier assigned by the upstream service on a
	// successful create. Zero means the record does not exist remotely yet.
	RemoteID int64 `json:"gw_id,omitempty"`
}

// Logged reports whether the entry has been recorded upstream.
func (e *Entry) Logged() bool { return e.RemoteID != 0 }

// Validate checks timestamp ordering. A violation is a recoverable
// data-quality issue, not a reason to drop the record.
func (e *Entry) Validate() error {
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() && e.EndTime.Before(e.StartTime.Time) {
		return NewValidationError("end_time",
			fmt.Sprintf("end_time %s precedes start_time %s", e.EndTime, e.StartTime))
	}
	return nil
}

// Merge copies the fields set on patch into e. Unset patch fields leave the
// existing values alone, and the correlation key and start time are never
// overwritten by a completion event.
func (e *Entry) Merge(patch *Entry) {
	if cmd := strings.TrimSpace(patch.Command); cmd != "" {
		e.Command = cmd
	}
	if patch.Description != "" {
		e.Description = strings.TrimSpace(patch.Description)
	}
	if !patch.EndTime.IsZero() {
		e.EndTime = patch.EndTime
	}
	if patch.SourceHost != "" {
		e.SourceHost = patch.SourceHost
	}
	if patch.DestHost != "" {
		e.DestHost = patch.DestHost
	}
	if patch.Tool != "" {
		e.Tool = patch.Tool
	}
	if patch.UserContext != "" {
		e.UserContext = patch.UserContext
	}
	if patch.Operator != "" {
		e.Operator = patch.Operator
	}
	if patch.Output != "" {
		e.Output = patch.Output
	}
	if patch.Comments != "" {
		e.Comments = patch.Comments
	}
	if patch.OplogID != 0 {
		e.OplogID = patch.OplogID
	}
	if patch.RemoteID != 0 {
		e.RemoteID = patch.RemoteID
	}
}

// GraphQLVars returns the entry's populated fields keyed by the variable
// names of the upstream insert/update mutations. Absent fields are omitted
// rather than sent as empty strings, which the upstream would treat as
// meaningful updates.
func (e *Entry) GraphQLVars() map[string]interface{} {
	vars := map[string]interface{}{}
	put := func(key, val string) {
		if val != "" {
			vars[key] = val
		}
	}
	put("command", e.Command)
	put("description", e.Description)
	put("start_time", e.StartTime.String())
	put("end_time", e.EndTime.String())
	put("source_host", e.SourceHost)
	put("destination_host", e.DestHost)
	put("tool", e.Tool)
	put("user_context", e.UserContext)
	put("operator", e.Operator)
	put("output", e.Output)
	put("comments", e.Comments)
	return vars
}

// RestFields returns the entry's populated fields keyed by the upstream REST
// API's field names, which differ from the GraphQL variable names for the
// host and timestamp fields.
func (e *Entry) RestFields() map[string]interface{} {
	fields := map[string]interface{}{}
	put := func(key, val string) {
		if val != "" {
			fields[key] = val
		}
	}
	put("command", e.Command)
	put("description", e.Description)
	put("start_date", e.StartTime.String())
	put("end_date", e.EndTime.String())
	put("source_ip", e.SourceHost)
	put("dest_ip", e.DestHost)
	put("tool", e.Tool)
	put("user_context", e.UserContext)
	put("operator_name", e.Operator)
	put("output", e.Output)
	put("comments", e.Comments)
	return fields
}

var (
	localHostOnce sync.Once
	localHost     string
)

// LocalSourceHost returns "HOSTNAME (primary-ip)" for the local machine,
// used as the source host when neither the caller nor the configuration
// supplies one. The lookup runs once and is cached for the process.
func LocalSourceHost() string {
	localHostOnce.Do(func() { localHost = detectLocalHost() })
	return localHost
}

// detectLocalHost dials UDP, which sends no packets but resolves the
// primary NIC.
func detectLocalHost() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	ip := "127.0.0.1"
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			ip = addr.IP.String()
		}
		_ = conn.Close()
	}
	return fmt.Sprintf("%s (%s)", hostname, ip)
}
