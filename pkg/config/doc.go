package config

// PathDoc describes a single path for documentation purposes
type PathDoc struct {
	Path        string // Relative path from the engine's base directory
	Description string // What this path is used for
	Type        string // "file" or "directory"
	Notes       string // Additional implementation notes
}

// DirectoryDocs returns documentation for all paths under the engine's
// base directory. This is the single source of truth for the shell-export
// persisted state layout.
func DirectoryDocs() []PathDoc {
	return []PathDoc{
		{
			Path:        "agents/",
			Description: "Persisted state for every registered agent",
			Type:        "directory",
			Notes:       "One file per agent, named <agent-id>.state.",
		},
		{
			Path:        "agents/<agent-id>.state",
			Description: "JSON-encoded AgentState for a single agent",
			Type:        "file",
			Notes:       "Written atomically via temp file + rename. Quarantined with a .corrupt suffix if unparseable.",
		},
		{
			Path:        "work/",
			Description: "Persisted state for every work item and its claim",
			Type:        "directory",
			Notes:       "One file per work item, named <work-id>.state.",
		},
		{
			Path:        "work/<work-id>.state",
			Description: "JSON-encoded WorkClaim plus WorkItem for a single unit of work",
			Type:        "file",
			Notes:       "Written atomically via temp file + rename.",
		},
		{
			Path:        "work/<work-id>.state.lock",
			Description: "Transient lock guarding concurrent writers to a work state file",
			Type:        "file",
			Notes:       "Created via exclusive-create; waiters poll with a deadline before returning LockTimeout.",
		},
		{
			Path:        "coord/",
			Description: "Coordination epoch bookkeeping",
			Type:        "directory",
			Notes:       "Shared by every pattern that needs the atomic-fence lock.",
		},
		{
			Path:        "coord/epoch.lock",
			Description: "Transient lock fencing a single coordination epoch",
			Type:        "file",
			Notes:       "Held only for the duration of one Atomic or ceremony critical section.",
		},
		{
			Path:        "events/",
			Description: "Append-only telemetry event log, one file per day",
			Type:        "directory",
			Notes:       "Files are named <YYYY-MM-DD>.log.",
		},
		{
			Path:        "events/<YYYY-MM-DD>.log",
			Description: "JSON-lines telemetry events emitted by the spine on that date",
			Type:        "file",
			Notes:       "Append-only; one JSON object per line.",
		},
	}
}

// StateFieldDoc documents a single JSON field of a persisted state file.
type StateFieldDoc struct {
	Field       string // JSON field path
	Type        string // Go type
	Description string // What this field represents
}

// AgentStateDocs returns documentation for agents/<agent-id>.state fields.
func AgentStateDocs() []StateFieldDoc {
	return []StateFieldDoc{
		{Field: "spec.id", Type: "string", Description: "Agent identifier, generated if not supplied at registration"},
		{Field: "spec.role", Type: "string", Description: "Free-form agent role label"},
		{Field: "spec.capacity", Type: "float64", Description: "Relative work capacity used by priority analysis"},
		{Field: "spec.specializations", Type: "[]string", Description: "Requirement tags this agent can satisfy"},
		{Field: "status", Type: "AgentStatus", Description: "active, idle, working, blocked, or failed"},
		{Field: "current_work", Type: "string", Description: "Work id currently claimed, if any"},
		{Field: "last_heartbeat", Type: "time.Time", Description: "Timestamp of the most recent heartbeat"},
		{Field: "metrics", Type: "AgentMetrics", Description: "Completed/failed counters and timing aggregates"},
	}
}

// WorkStateDocs returns documentation for work/<work-id>.state fields.
func WorkStateDocs() []StateFieldDoc {
	return []StateFieldDoc{
		{Field: "item.id", Type: "string", Description: "Work identifier in the <kind>_<nanos> form"},
		{Field: "item.work_type", Type: "string", Description: "Work category used for requirement matching"},
		{Field: "item.priority", Type: "float64", Description: "Higher values are claimed first"},
		{Field: "item.requirements", Type: "[]string", Description: "Specialization tags an agent must satisfy to claim this item"},
		{Field: "claim.agent_id", Type: "string", Description: "Agent that holds the claim, empty if unclaimed"},
		{Field: "claim.status", Type: "WorkClaimStatus", Description: "available, claimed, in_progress, completed, or cancelled"},
		{Field: "claim.progress", Type: "int", Description: "Last reported progress percentage"},
	}
}

// EventDocs returns documentation for events/<YYYY-MM-DD>.log line fields.
func EventDocs() []StateFieldDoc {
	return []StateFieldDoc{
		{Field: "type", Type: "EventType", Description: "agent.registered, agent.status_changed, work.created, work.claimed, work.completed, work.failed, coordination.start, or coordination.end"},
		{Field: "correlation_id", Type: "string", Description: "Correlation id threaded through the operation that raised this event"},
		{Field: "agent_id", Type: "string", Description: "Agent id the event concerns, if any"},
		{Field: "work_id", Type: "string", Description: "Work id the event concerns, if any"},
		{Field: "timestamp", Type: "time.Time", Description: "When the event was recorded"},
	}
}
