package shellexport

import (
	"bytes"
	"fmt"
	"text/template"
)

// preamble is the strict-mode header every generated script begins with
// (spec §4.11 shell emission rules: fail on error, fail on unset, fail on
// pipe error).
const preamble = `#!/usr/bin/env bash
set -euo pipefail
`

// libFuncs are the helper functions shared by every generated script:
// nanosecond time, id minting with a monotonic floor (I1), the
// exclusive-create lock loop (I7), and the atomic write pattern used for
// every state mutation (spec §6.2). At OptimizationLevel 1 these are
// written once to coordination_lib.sh and sourced; at 2-3 they are
// inlined into each script that needs them.
const libFuncs = `
SWARMSH_BASE="${SWARMSH_BASE:-$HOME/.swarmsh}"

now_ns() {
  date +%s%N
}

# atomic_write path content: write-to-temp-then-rename so readers never
# observe a partially written file (spec §6.2).
atomic_write() {
  local path="$1" content="$2"
  local tmp="${path}.tmp.$$"
  printf '%s' "$content" > "$tmp"
  mv -f "$tmp" "$path"
}

# advance_floor floor_file lock_file: atomically advances a monotonic
# nanosecond floor stored in floor_file, guarded by lock_file, and prints
# the new value. A coarse clock or two reads landing on the same
# nanosecond both fall through to floor+1, so the result always strictly
# exceeds whatever this floor_file last returned. Shared by mint_id (I1)
# and coordinate_atomic's epoch mint (I4).
advance_floor() {
  local floor_file="$1" lock_file="$2"
  local deadline_ns=$(( $(now_ns) + 5000000000 ))

  acquire_lock "$lock_file" "$deadline_ns"

  local floor=0
  [ -f "$floor_file" ] && floor=$(cat "$floor_file")
  local observed
  observed=$(now_ns)
  if [ "$observed" -gt "$floor" ]; then
    floor=$observed
  else
    floor=$((floor + 1))
  fi
  atomic_write "$floor_file" "$floor"

  release_lock "$lock_file"
  printf '%s\n' "$floor"
}

# mint_id kind: returns "<kind>_<nanos>" with a strictly-advancing floor
# (invariant I1). The floor is itself guarded by its own lock file so
# concurrent shell invocations never mint the same id twice.
mint_id() {
  local kind="$1"
  local floor
  floor=$(advance_floor "$SWARMSH_BASE/.id_floor" "$SWARMSH_BASE/.id_floor.lock")
  printf '%s_%s\n' "$kind" "$floor"
}

# acquire_lock path deadline_ns: exclusive-create path via noclobber, the
# shell equivalent of O_CREAT|O_EXCL, retrying until deadline_ns (absolute
# nanoseconds) elapses. Invariant I7: the lock file's lifetime brackets the
# critical section it guards.
acquire_lock() {
  local lock_path="$1" deadline_ns="$2"
  while true; do
    if ( set -o noclobber; printf '%s' "$$" > "$lock_path" ) 2>/dev/null; then
      return 0
    fi
    if [ "$(now_ns)" -ge "$deadline_ns" ]; then
      echo "swarmsh: timed out acquiring lock $lock_path" >&2
      return 1
    fi
    sleep 0.01
  done
}

# release_lock path: deletes the lock file. Must only be called by the
# holder of the lock.
release_lock() {
  rm -f "$1"
}

# json_field file key: extracts a top-level string or numeric value for
# "key" from a flat JSON object written by atomic_write. Good enough for
# the fixed record shapes this exporter emits; not a general JSON parser.
json_field() {
  local file="$1" key="$2"
  [ -f "$file" ] || return 1
  sed -n "s/.*\"${key}\"[[:space:]]*:[[:space:]]*\"\\{0,1\\}\\([^\",}]*\\)\"\\{0,1\\}.*/\\1/p" "$file" | head -n1
}
`

// telemetryFuncs are emitted only when Config.IncludeTelemetry is set.
const telemetryFuncs = `
new_correlation() {
  mint_id "corr"
}

# log_event correlation name field=value...: appends one JSON-lines event
# to events/<YYYY-MM-DD>.log. Spans degrade to event-log lines carrying a
# "nesting" attribute rather than structural parent/child containment
# (spec §9, shell export representation of spans).
log_event() {
  local correlation="$1" name="$2"
  shift 2
  local day
  day=$(date -u +%Y-%m-%d)
  mkdir -p "$SWARMSH_BASE/events"
  local log_file="$SWARMSH_BASE/events/${day}.log"
  local ts
  ts=$(now_ns)
  local attrs=""
  for kv in "$@"; do
    attrs="${attrs}, \"${kv%%=*}\": \"${kv#*=}\""
  done
  printf '{"timestamp_ns": %s, "correlation_id": "%s", "name": "%s"%s}\n' \
    "$ts" "$correlation" "$name" "$attrs" >> "$log_file"
}
`

// agentLifecycleFuncs implements register-agent, heartbeat, and health
// against one JSON-like record per agent (spec §6.2 agents/<id>.state).
const agentLifecycleFuncs = `
agent_state_file() {
  printf '%s/agents/%s.state\n' "$SWARMSH_BASE" "$1"
}

# register_agent id role capacity specializations work_capacity
# specializations is a comma-separated list. Fails (exit 2) if id is
# already registered, matching AlreadyExists (spec §4.3, §6.1 exit codes).
register_agent() {
  local id="$1" role="$2" capacity="$3" specializations="$4" work_capacity="${5:-}"
  mkdir -p "$SWARMSH_BASE/agents"
  local file
  file=$(agent_state_file "$id")
  if [ -f "$file" ]; then
    echo "swarmsh: agent '$id' is already registered" >&2
    return 2
  fi
  local now
  now=$(now_ns)
  atomic_write "$file" "$(printf '{"id": "%s", "role": "%s", "capacity": %s, "specializations": "%s", "work_capacity": "%s", "status": "active", "current_work": "", "last_heartbeat_ns": %s}' \
    "$id" "$role" "$capacity" "$specializations" "$work_capacity" "$now")"
  echo "$id"
}

# heartbeat id status: updates last_heartbeat_ns and, if status is
# non-empty, the agent's reported status. Fails (exit 3) if id is absent,
# matching NotFound.
heartbeat() {
  local id="$1" status="${2:-}"
  local file
  file=$(agent_state_file "$id")
  if [ ! -f "$file" ]; then
    echo "swarmsh: agent '$id' not found" >&2
    return 3
  fi
  local current_status
  current_status=$(json_field "$file" status)
  if [ "$current_status" = "failed" ]; then
    status="failed"
  elif [ -z "$status" ]; then
    status="$current_status"
  fi
  local role capacity specializations work_capacity current_work
  role=$(json_field "$file" role)
  capacity=$(json_field "$file" capacity)
  specializations=$(json_field "$file" specializations)
  work_capacity=$(json_field "$file" work_capacity)
  current_work=$(json_field "$file" current_work)
  local now
  now=$(now_ns)
  atomic_write "$file" "$(printf '{"id": "%s", "role": "%s", "capacity": %s, "specializations": "%s", "work_capacity": "%s", "status": "%s", "current_work": "%s", "last_heartbeat_ns": %s}' \
    "$id" "$role" "$capacity" "$specializations" "$work_capacity" "$status" "$current_work" "$now")"
}

# health [--detailed]: reports every agent.state file under agents/.
health() {
  local file id status
  for file in "$SWARMSH_BASE"/agents/*.state; do
    [ -e "$file" ] || continue
    id=$(json_field "$file" id)
    status=$(json_field "$file" status)
    printf '%s\t%s\n' "$id" "$status"
  done
}
`

// workQueueFuncs implements create-work, claim-work, update-progress, and
// complete-work against one JSON-like record per work item (spec §6.2
// work/<id>.state) plus its transient claim lock.
const workQueueFuncs = `
work_state_file() {
  printf '%s/work/%s.state\n' "$SWARMSH_BASE" "$1"
}

work_lock_file() {
  printf '%s.lock\n' "$(work_state_file "$1")"
}

# create_work work_type priority description duration_ms: mints a work id
# and writes an Available WorkItem/WorkClaim record.
create_work() {
  local work_type="$1" priority="$2" description="$3" duration_ms="${4:-0}"
  mkdir -p "$SWARMSH_BASE/work"
  local id
  id=$(mint_id "$work_type")
  local file
  file=$(work_state_file "$id")
  local now
  now=$(now_ns)
  atomic_write "$file" "$(printf '{"id": "%s", "priority": %s, "description": "%s", "estimated_duration_ms": %s, "created_at_ns": %s, "status": "available", "agent_id": "", "claim_epoch_ns": 0, "progress": 0, "result": ""}' \
    "$id" "$priority" "$description" "$duration_ms" "$now")"
  echo "$id"
}

# claim_work work_id agent_id: atomically transitions a work item from
# Available to Claimed under its own lock file. Invariant I3: only the
# first caller to win the lock while the record still reads "available"
# succeeds; every later caller (including ones that raced for the lock
# and lost) sees "already claimed" and exits 3, matching NotFound/none.
claim_work() {
  local work_id="$1" agent_id="$2"
  local file lock_file
  file=$(work_state_file "$work_id")
  lock_file=$(work_lock_file "$work_id")
  if [ ! -f "$file" ]; then
    echo "swarmsh: work item '$work_id' not found" >&2
    return 3
  fi

  local deadline_ns=$(( $(now_ns) + 5000000000 ))
  acquire_lock "$lock_file" "$deadline_ns"

  local status
  status=$(json_field "$file" status)
  if [ "$status" != "available" ]; then
    release_lock "$lock_file"
    echo "swarmsh: work item '$work_id' is not available (status: $status)" >&2
    return 3
  fi

  local priority description duration created_at
  priority=$(json_field "$file" priority)
  description=$(json_field "$file" description)
  duration=$(json_field "$file" estimated_duration_ms)
  created_at=$(json_field "$file" created_at_ns)
  local epoch
  epoch=$(now_ns)

  atomic_write "$file" "$(printf '{"id": "%s", "priority": %s, "description": "%s", "estimated_duration_ms": %s, "created_at_ns": %s, "status": "claimed", "agent_id": "%s", "claim_epoch_ns": %s, "progress": 0, "result": ""}' \
    "$work_id" "$priority" "$description" "$duration" "$created_at" "$agent_id" "$epoch")"

  release_lock "$lock_file"
  echo "$work_id"
}

# update_progress work_id agent_id progress: records progress in [0,100]
# against a claim owned by agent_id.
update_progress() {
  local work_id="$1" agent_id="$2" progress="$3"
  local file lock_file
  file=$(work_state_file "$work_id")
  lock_file=$(work_lock_file "$work_id")
  if [ ! -f "$file" ]; then
    echo "swarmsh: work item '$work_id' not found" >&2
    return 1
  fi

  local deadline_ns=$(( $(now_ns) + 5000000000 ))
  acquire_lock "$lock_file" "$deadline_ns"

  local owner status
  owner=$(json_field "$file" agent_id)
  status=$(json_field "$file" status)
  if [ "$owner" != "$agent_id" ] || { [ "$status" != "claimed" ] && [ "$status" != "in_progress" ]; }; then
    release_lock "$lock_file"
    echo "swarmsh: work item '$work_id' is not claimed by '$agent_id'" >&2
    return 1
  fi

  local priority description duration created_at epoch
  priority=$(json_field "$file" priority)
  description=$(json_field "$file" description)
  duration=$(json_field "$file" estimated_duration_ms)
  created_at=$(json_field "$file" created_at_ns)
  epoch=$(json_field "$file" claim_epoch_ns)

  atomic_write "$file" "$(printf '{"id": "%s", "priority": %s, "description": "%s", "estimated_duration_ms": %s, "created_at_ns": %s, "status": "in_progress", "agent_id": "%s", "claim_epoch_ns": %s, "progress": %s, "result": ""}' \
    "$work_id" "$priority" "$description" "$duration" "$created_at" "$agent_id" "$epoch" "$progress")"

  release_lock "$lock_file"
}

# complete_work work_id agent_id result: finalizes a claim with
# result in {success,failed,timeout,cancelled}.
complete_work() {
  local work_id="$1" agent_id="$2" result="$3"
  local file lock_file
  file=$(work_state_file "$work_id")
  lock_file=$(work_lock_file "$work_id")
  if [ ! -f "$file" ]; then
    echo "swarmsh: work item '$work_id' not found" >&2
    return 1
  fi

  local deadline_ns=$(( $(now_ns) + 5000000000 ))
  acquire_lock "$lock_file" "$deadline_ns"

  local owner status
  owner=$(json_field "$file" agent_id)
  status=$(json_field "$file" status)
  if [ "$owner" != "$agent_id" ] || { [ "$status" != "claimed" ] && [ "$status" != "in_progress" ]; }; then
    release_lock "$lock_file"
    echo "swarmsh: work item '$work_id' is not claimed by '$agent_id'" >&2
    return 1
  fi

  local priority description duration created_at epoch
  priority=$(json_field "$file" priority)
  description=$(json_field "$file" description)
  duration=$(json_field "$file" estimated_duration_ms)
  created_at=$(json_field "$file" created_at_ns)
  epoch=$(json_field "$file" claim_epoch_ns)

  atomic_write "$file" "$(printf '{"id": "%s", "priority": %s, "description": "%s", "estimated_duration_ms": %s, "created_at_ns": %s, "status": "completed", "agent_id": "%s", "claim_epoch_ns": %s, "progress": 100, "result": "%s"}' \
    "$work_id" "$priority" "$description" "$duration" "$created_at" "$agent_id" "$epoch" "$result")"

  release_lock "$lock_file"

  if command -v heartbeat >/dev/null 2>&1; then
    local agent_file
    agent_file=$(agent_state_file "$agent_id")
    [ -f "$agent_file" ] && heartbeat "$agent_id" "idle" || true
  fi
}

queue_len() {
  local n=0 file status
  for file in "$SWARMSH_BASE"/work/*.state; do
    [ -e "$file" ] || continue
    status=$(json_field "$file" status)
    [ "$status" = "available" ] && n=$((n + 1))
  done
  echo "$n"
}
`

// coordinationFuncs implements the atomic pattern's file-backed variant
// (invariants I6, I7) plus the coordinate subcommand's dispatch over
// pattern names, and the handoff/routine subcommands §4.11 lists beyond
// §6.1's stable surface.
const coordinationFuncs = `
coord_epoch_lock_file() {
  printf '%s/coord/epoch.lock\n' "$SWARMSH_BASE"
}

# mint_epoch: a strictly-advancing coordination epoch (invariant I4),
# backed by its own floor file distinct from coord_epoch_lock_file (the
# critical-section fence coordinate_atomic already holds while this
# runs) so minting the epoch never tries to re-acquire a lock this
# process is already holding.
mint_epoch() {
  mkdir -p "$SWARMSH_BASE/coord"
  advance_floor "$SWARMSH_BASE/coord/.epoch_floor" "$SWARMSH_BASE/coord/.epoch_floor.lock"
}

# coordinate_atomic participants...: Idle -> AcquireLock -> Execute ->
# ReleaseLock -> Idle (spec §4.6). Invariant I6: the lock file's presence
# for the duration of the critical section prevents any other
# coordinate_atomic invocation, in this process or a concurrent one, from
# starting until it is released.
coordinate_atomic() {
  mkdir -p "$SWARMSH_BASE/coord"
  local lock_file
  lock_file=$(coord_epoch_lock_file)
  local deadline_ns=$(( $(now_ns) + 5000000000 ))

  acquire_lock "$lock_file" "$deadline_ns"
  local epoch
  epoch=$(mint_epoch)

  if [ "${SWARMSH_TELEMETRY:-1}" = "1" ]; then
    log_event "${SWARMSH_CORRELATION_ID:-$(new_correlation)}" "coordination_start" "pattern=atomic" "epoch=$epoch"
  fi

  # The fence's purpose is the critical section itself; pattern-specific
  # validation happens between start and end for callers that compose
  # additional operations here.

  if [ "${SWARMSH_TELEMETRY:-1}" = "1" ]; then
    log_event "${SWARMSH_CORRELATION_ID:-}" "coordination_end" "pattern=atomic" "epoch=$epoch"
  fi

  release_lock "$lock_file"
  echo "$epoch"
}

# coordinate_realtime participant_count interval_ns pulses: emits "pulses"
# sync pulses (default 10) at interval_ns spacing, matching the in-process
# RealtimePattern (spec §4.7). No lock is required: pulses do not mutate
# shared state.
coordinate_realtime() {
  local participant_count="${1:-1}" interval_ns="${2:-1000000}" pulses="${3:-10}"
  local i=0
  local last_ns=0
  while [ "$i" -lt "$pulses" ]; do
    if [ "$i" -gt 0 ]; then
      sleep "$(printf '%d.%09d' $((interval_ns / 1000000000)) $((interval_ns % 1000000000)))"
    fi
    local ts
    ts=$(now_ns)
    if [ "$last_ns" -ne 0 ]; then
      local gap=$((ts - last_ns))
      if [ "$gap" -gt $((interval_ns * 10)) ]; then
        log_event "${SWARMSH_CORRELATION_ID:-}" "clock_skew" "pulse_index=$i" "observed_gap_ns=$gap"
      fi
    fi
    log_event "${SWARMSH_CORRELATION_ID:-}" "pulse" "pulse_index=$i" "timestamp_ns=$ts"
    last_ns="$ts"
    i=$((i + 1))
  done
}

# coordinate pattern: dispatches to the named pattern. scrum-at-scale and
# roberts-rules are long-lived ceremony/motion sequences the in-process
# engine drives through dedicated session accessors; their shell
# equivalent is the "routine" subcommand below rather than "coordinate".
coordinate() {
  local pattern="$1"
  case "$pattern" in
    atomic) coordinate_atomic ;;
    realtime) coordinate_realtime "${2:-1}" "${3:-1000000}" "${4:-10}" ;;
    scrum-at-scale|roberts-rules)
      echo "swarmsh: use 'routine $pattern <phase>' to drive a multi-step ceremony" >&2
      return 1
      ;;
    *)
      echo "swarmsh: unknown coordination pattern '$pattern'" >&2
      return 1
      ;;
  esac
}

# handoff work_id from_agent to_agent: releases from_agent's claim back to
# Available, then immediately claims it for to_agent. Composed from
# claim_work's own lock discipline rather than a new one.
handoff() {
  local work_id="$1" from_agent="$2" to_agent="$3"
  local file lock_file
  file=$(work_state_file "$work_id")
  lock_file=$(work_lock_file "$work_id")
  local deadline_ns=$(( $(now_ns) + 5000000000 ))
  acquire_lock "$lock_file" "$deadline_ns"

  local owner
  owner=$(json_field "$file" agent_id)
  if [ "$owner" != "$from_agent" ]; then
    release_lock "$lock_file"
    echo "swarmsh: work item '$work_id' is not claimed by '$from_agent'" >&2
    return 1
  fi
  local priority description duration created_at
  priority=$(json_field "$file" priority)
  description=$(json_field "$file" description)
  duration=$(json_field "$file" estimated_duration_ms)
  created_at=$(json_field "$file" created_at_ns)
  atomic_write "$file" "$(printf '{"id": "%s", "priority": %s, "description": "%s", "estimated_duration_ms": %s, "created_at_ns": %s, "status": "available", "agent_id": "", "claim_epoch_ns": 0, "progress": 0, "result": ""}' \
    "$work_id" "$priority" "$description" "$duration" "$created_at")"
  release_lock "$lock_file"

  claim_work "$work_id" "$to_agent"
}

# routine pattern phase: records one ceremony/motion-lifecycle telemetry
# event for the named phase. Unlike the in-process ScrumAtScale and
# RobertsRules sessions, the shell form keeps no ceremony or motion state
# between calls; it degrades the same way spans do, to event-log lines
# (spec §9).
routine() {
  local pattern="$1" phase="$2"
  shift 2 || true
  log_event "${SWARMSH_CORRELATION_ID:-$(new_correlation)}" "routine.${pattern}" "phase=$phase" "$@"
}
`

// analyticsStub is emitted verbatim: analytics/DLSS waste reporting is an
// explicit Non-goal of the core (spec §1), so the exported surface only
// needs a stub that fails closed without crashing a caller's pipeline.
const analyticsStub = preamble + `
# dlss and waste are out of scope for swarmsh-core (spec §1 Non-goals:
# analytics/DLSS waste reporting). This stub preserves the subcommand so a
# caller's dispatch table does not need special-casing, but always reports
# that the operation is unimplemented here.
dlss() {
  echo '{"status": "not_implemented", "reason": "analytics/DLSS waste reporting is out of scope for swarmsh-core"}'
}

waste() {
  echo '{"status": "not_implemented", "reason": "analytics/DLSS waste reporting is out of scope for swarmsh-core"}'
}

case "${1:-}" in
  dlss) shift; dlss "$@" ;;
  waste) shift; waste "$@" ;;
  "") ;;
  *) echo "swarmsh: analytics_stub.sh has no '$1' subcommand" >&2; exit 1 ;;
esac
`

// aiStub mirrors oracle.Null: every operation reports OracleUnavailable
// rather than blocking or crashing, per spec §4.10/§6.4.
const aiStub = preamble + `
# ai-decision and ai-optimize: this stub always reports OracleUnavailable,
# the shell equivalent of oracle.Null (spec §4.10). coordination_helper.sh
# answers the same two subcommands inline rather than sourcing this file.
ai_decision() {
  echo '{"error": {"kind": "OracleUnavailable", "message": "no oracle configured", "correlation_id": "'"${SWARMSH_CORRELATION_ID:-}"'"}}' >&2
  return 1
}

ai_optimize() {
  echo '{"error": {"kind": "OracleUnavailable", "message": "no oracle configured", "correlation_id": "'"${SWARMSH_CORRELATION_ID:-}"'"}}' >&2
  return 1
}

case "${1:-}" in
  ai-decision) shift; ai_decision "$@" ;;
  ai-optimize) shift; ai_optimize "$@" ;;
  "") ;;
  *) echo "swarmsh: ai_stub.sh has no '$1' subcommand" >&2; exit 1 ;;
esac
`

// mainDispatchTmpl is the coordination_helper.sh entry point: it routes
// every subcommand in spec §4.11's list to the function implementing it.
// At OptimizationLevel 2-3 the agent and work functions are inlined ahead
// of this block; at OptimizationLevel 1 the script sources
// coordination_lib.sh, agent_lifecycle.sh and work_queue.sh instead.
const mainDispatchTmpl = `
usage() {
  cat >&2 <<'EOF'
usage: coordination_helper.sh <command> [args...]

commands:
  register-agent id role capacity specializations [work_capacity]
  heartbeat id [status]
  health
  claim-work work_id agent_id
  update-progress work_id agent_id progress
  complete-work work_id agent_id result
  create-work work_type priority description [duration_ms]
  coordinate pattern [args...]
  handoff work_id from_agent to_agent
  routine pattern phase [attrs...]
  status
  dlss | waste
  ai-decision | ai-optimize
EOF
}

cmd_status() {
  printf '{"pending_work": %s}\n' "$(queue_len)"
}

main() {
  mkdir -p "$SWARMSH_BASE" "$SWARMSH_BASE/agents" "$SWARMSH_BASE/work" "$SWARMSH_BASE/coord" "$SWARMSH_BASE/events"

  local cmd="${1:-}"
  [ -n "$cmd" ] && shift || true

  case "$cmd" in
    register-agent) register_agent "$@" ;;
    heartbeat) heartbeat "$@" ;;
    health) health "$@" ;;
    claim-work) claim_work "$@" ;;
    update-progress) update_progress "$@" ;;
    complete-work) complete_work "$@" ;;
    create-work) create_work "$@" ;;
    coordinate) coordinate "$@" ;;
    handoff) handoff "$@" ;;
    routine) routine "$@" ;;
    status) cmd_status ;;
    dlss|waste) echo '{"status": "not_implemented", "reason": "analytics/DLSS waste reporting is out of scope for swarmsh-core"}' ;;
    ai-decision|ai-optimize) echo '{"error": {"kind": "OracleUnavailable", "message": "no oracle configured"}}' >&2; exit 1 ;;
    ""|help|-h|--help) usage; exit 0 ;;
    *) echo "swarmsh: unknown command '$cmd'" >&2; usage; exit 1 ;;
  esac
}

main "$@"
`

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

const libBanner = "# generated by swarmsh shellexport, optimization level {{.OptimizationLevel}}\n"

var libTemplate = mustTemplate("lib", preamble+libBanner+libFuncs)

// renderLib renders the shared helper library sourced at OptimizationLevel
// 1, stamping the banner comment with the optimization level it was
// generated for.
func renderLib(cfg Config) string {
	var buf bytes.Buffer
	_ = libTemplate.Execute(&buf, cfg)
	return buf.String()
}

// render produces the full contents of the named component's script.
// At OptimizationLevel 1, a component script only sources
// coordination_lib.sh; at 2-3 (the default), the shared helpers are
// inlined directly so the script has no sourcing dependency.
func render(name string, cfg Config) string {
	var body bytes.Buffer
	body.WriteString(preamble)

	if cfg.OptimizationLevel == 1 {
		body.WriteString("\n. \"$(dirname \"$0\")/coordination_lib.sh\"\n")
	} else {
		body.WriteString(libFuncs)
	}

	switch name {
	case "coordination":
		if cfg.IncludeTelemetry {
			body.WriteString(telemetryFuncs)
		}
		if cfg.OptimizationLevel != 1 {
			// coordination_helper.sh is the main entry point, so at
			// OptimizationLevel 2-3 it also carries the agent/work
			// functions inline rather than requiring every other script
			// to be sourced first.
			body.WriteString(agentLifecycleFuncs)
			body.WriteString(workQueueFuncs)
		} else {
			body.WriteString(". \"$(dirname \"$0\")/agent_lifecycle.sh\"\n")
			body.WriteString(". \"$(dirname \"$0\")/work_queue.sh\"\n")
		}
		body.WriteString(coordinationFuncs)
		body.WriteString(mainDispatchTmpl)
	case "agent-lifecycle":
		body.WriteString(agentLifecycleFuncs)
	case "work":
		body.WriteString(workQueueFuncs)
	case "telemetry":
		body.WriteString(telemetryFuncs)
	case "analytics":
		return analyticsStub
	case "ai":
		return aiStub
	default:
		return fmt.Sprintf("%s# unknown component %q\n", preamble, name)
	}

	return body.String()
}
