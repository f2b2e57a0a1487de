// Package relay contains the correlation engine: it links "command started"
// and "command finished" events by their client-supplied identifier, applies
// the keyword matcher, syncs qualifying entries upstream, and falls back to
// the local journal when sync fails.
package relay

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/termrelay/termrelay/internal/config"
	"github.com/termrelay/termrelay/internal/journal"
	"github.com/termrelay/termrelay/internal/match"
	"github.com/termrelay/termrelay/internal/metrics"
	"github.com/termrelay/termrelay/internal/model"
	"github.com/termrelay/termrelay/internal/upstream"
)

// historyPrefix matches the timestamp a bash post-exec hook prepends to the
// command text, e.g. "2023-04-11 19:18:24 ps".
var historyPrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) (.*)$`)

// Engine owns the in-flight entry map. Entries live in the map from a
// qualifying create event until their single update event has been
// processed; upstream and journal calls happen outside the lock so a hung
// upstream cannot stall unrelated sessions.
type Engine struct {
	cfg     *config.Config
	client  upstream.Client // nil when upstream sync is not configured
	store   *journal.Store
	matcher *match.Matcher

	mu       sync.Mutex
	inflight map[string]*model.Entry
}

// New creates an Engine. client may be nil for journal-only operation.
func New(cfg *config.Config, client upstream.Client, store *journal.Store) *Engine {
	return &Engine{
		cfg:      cfg,
		client:   client,
		store:    store,
		matcher:  match.New(cfg.Keywords, cfg.DescToken, cfg.NoLogToken),
		inflight: make(map[string]*model.Entry),
	}
}

// HandleCreate processes a "command started" event.
func (en *Engine) HandleCreate(ctx context.Context, req CreateRequest) Result {
	res := en.handleCreate(ctx, req)
	metrics.EventsTotal.WithLabelValues("create", string(res.Status)).Inc()
	return res
}

func (en *Engine) handleCreate(ctx context.Context, req CreateRequest) Result {
	if !en.cfg.Enabled {
		return Result{Status: StatusNoop, Message: "logging disabled"}
	}
	m, ok := en.matcher.Match(req.Command)
	if !ok {
		return Result{Status: StatusNoop, Message: "command did not qualify for logging"}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	entry := &model.Entry{
		ID:          id,
		Command:     m.Command,
		Description: m.Description,
		StartTime:   req.StartTime,
		SourceHost:  req.SourceHost,
		DestHost:    req.DestHost,
		Tool:        req.Tool,
		UserContext: req.UserContext,
		Operator:    req.Operator,
		Comments:    req.Comments,
	}
	if entry.StartTime.IsZero() {
		entry.StartTime = model.Now()
	}
	en.applyDefaults(entry)

	// Last write wins on a duplicate create for the same identifier: a rapid
	// re-submission replaces the stale in-flight entry instead of creating a
	// second one.
	en.mu.Lock()
	en.inflight[id] = entry
	snapshot := *entry
	en.mu.Unlock()

	log.Debug().Str("id", id).Str("command", snapshot.Command).Msg("command started")

	if en.client == nil {
		en.journalWrite(&snapshot)
		return Result{
			Status:  StatusCached,
			EntryID: id,
			Message: fmt.Sprintf("[+] Logged to journal with ID: %s", id),
		}
	}

	remoteID, err := en.client.CreateEntry(ctx, &snapshot)
	if err != nil {
		en.recordSyncFailure(err)
		en.journalWrite(&snapshot)
		return Result{
			Status:  StatusFailed,
			EntryID: id,
			Message: fmt.Sprintf("[-] %s; entry cached to local journal", err),
		}
	}

	// Record the remote ID on the stored entry so the completion event
	// routes to update. Guard against the entry having been replaced or
	// resolved while the upstream call was in flight.
	en.mu.Lock()
	if cur, live := en.inflight[id]; live && cur == entry {
		cur.RemoteID = remoteID
	}
	en.mu.Unlock()

	snapshot.RemoteID = remoteID
	if en.cfg.SaveAllLocal {
		en.journalWrite(&snapshot)
	}
	return Result{
		Status:   StatusLogged,
		EntryID:  id,
		RemoteID: remoteID,
		Message:  fmt.Sprintf("[+] Logged to upstream with ID: %d", remoteID),
	}
}

// HandleUpdate processes a "command finished" event, or a manual update
// targeting an explicit remote ID.
func (en *Engine) HandleUpdate(ctx context.Context, req UpdateRequest) Result {
	res := en.handleUpdate(ctx, req)
	metrics.EventsTotal.WithLabelValues("update", string(res.Status)).Inc()
	return res
}

func (en *Engine) handleUpdate(ctx context.Context, req UpdateRequest) Result {
	command := strings.TrimSpace(req.Command)
	if m := historyPrefix.FindStringSubmatch(command); m != nil {
		command = m[2]
	}
	matchRes, matched := en.matcher.Match(command)

	// Take-and-remove: the entry leaves the map before any suspension point,
	// guaranteeing at most one update attempt per identifier even under
	// spurious re-submission.
	en.mu.Lock()
	entry, existed := en.inflight[req.ID]
	if existed {
		delete(en.inflight, req.ID)
	}
	en.mu.Unlock()

	manual := !existed && req.RemoteID != 0

	if !existed {
		switch {
		case manual:
			// Out-of-band update of a known upstream record: use only the
			// caller's fields so upstream values are not clobbered by
			// defaults.
			entry = &model.Entry{ID: req.ID, OplogID: en.cfg.GwOplogID, RemoteID: req.RemoteID}
		case !en.cfg.Enabled:
			return Result{Status: StatusNoop, Message: "logging disabled"}
		case !matched:
			return Result{Status: StatusNoop, Message: "command did not qualify for logging"}
		default:
			// No prior create event (e.g. the daemon restarted mid-command).
			// Synthesize an entry so the command still gets logged.
			id := req.ID
			if id == "" {
				id = uuid.NewString()
			}
			entry = &model.Entry{ID: id, Command: matchRes.Command, Description: matchRes.Description}
		}
	}

	patch := &model.Entry{
		Command:     command,
		Description: req.Description,
		EndTime:     req.EndTime,
		SourceHost:  req.SourceHost,
		DestHost:    req.DestHost,
		Tool:        req.Tool,
		UserContext: req.UserContext,
		Operator:    req.Operator,
		Output:      req.Output,
		Comments:    req.Comments,
		RemoteID:    req.RemoteID,
	}
	if matched {
		patch.Command = matchRes.Command
		if matchRes.Description != "" {
			patch.Description = matchRes.Description
		}
	}
	entry.Merge(patch)

	if !manual {
		if entry.EndTime.IsZero() {
			entry.EndTime = model.Now()
		}
		en.applyDefaults(entry)
	}

	var warnings []string
	if err := entry.Validate(); err != nil {
		// Recoverable data-quality issue: flag it on the record and keep
		// going rather than dropping the log.
		warnings = append(warnings, err.Error())
		entry.Comments = joinComment(entry.Comments, "[!] "+err.Error())
		log.Warn().Str("id", entry.ID).Err(err).Msg("timestamp ordering violation flagged")
	}

	log.Debug().Str("id", entry.ID).Str("command", entry.Command).Msg("command finished")

	if en.client == nil {
		en.journalWrite(entry)
		return Result{
			Status:   StatusCached,
			EntryID:  entry.ID,
			Message:  fmt.Sprintf("[+] Logged to journal with ID: %s", entry.ID),
			Warnings: warnings,
		}
	}

	var remoteID int64
	var err error
	if entry.Logged() {
		remoteID, err = en.client.UpdateEntry(ctx, entry)
	} else {
		// Covers both the synthesized case and a create that failed earlier.
		remoteID, err = en.client.CreateEntry(ctx, entry)
	}
	if err != nil {
		en.recordSyncFailure(err)
		en.journalWrite(entry)
		return Result{
			Status:   StatusFailed,
			EntryID:  entry.ID,
			Message:  fmt.Sprintf("[-] %s; entry cached to local journal", err),
			Warnings: warnings,
		}
	}

	entry.RemoteID = remoteID
	if en.cfg.SaveAllLocal {
		en.journalWrite(entry)
	} else if rmErr := en.store.Remove(entry.ID); rmErr != nil {
		log.Error().Err(rmErr).Str("id", entry.ID).Msg("journal cleanup failed")
	}

	return Result{
		Status:   StatusLogged,
		EntryID:  entry.ID,
		RemoteID: remoteID,
		Message:  fmt.Sprintf("[+] Updated upstream log: %d", remoteID),
		Warnings: warnings,
	}
}

// applyDefaults fills entry fields the caller left unset from configuration,
// falling back to the local host for the source.
func (en *Engine) applyDefaults(e *model.Entry) {
	if e.OplogID == 0 {
		e.OplogID = en.cfg.GwOplogID
	}
	if e.SourceHost == "" {
		e.SourceHost = en.cfg.SourceHost
	}
	if e.SourceHost == "" {
		e.SourceHost = model.LocalSourceHost()
	}
	if e.DestHost == "" {
		e.DestHost = en.cfg.DestHost
	}
	if e.Operator == "" {
		e.Operator = en.cfg.Operator
	}
	if e.Comments == "" {
		e.Comments = en.cfg.Comments
	}
}

// journalWrite persists the entry locally. A disk failure is logged and
// surfaced via metrics but never blocks returning a result to the caller.
func (en *Engine) journalWrite(e *model.Entry) {
	if err := en.store.Write(e); err != nil {
		log.Error().Err(err).Str("id", e.ID).Msg("journal write failed")
		return
	}
	metrics.JournalWritesTotal.Inc()
}

func (en *Engine) recordSyncFailure(err error) {
	kind := "unknown"
	if ue, ok := upstream.AsError(err); ok {
		kind = string(ue.Kind)
	}
	metrics.SyncFailuresTotal.WithLabelValues(kind).Inc()
	log.Error().Err(err).Msg("upstream sync failed")
}

func joinComment(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}
