// swarmsh is the reference CLI for the coordination engine: `serve` runs
// the HTTP coordinator (internal/coordination.Server) in the foreground,
// and every other subcommand is a thin internal/coordination.Client call
// against a running one. `export-shell` lowers the same operations to the
// POSIX shell surface (internal/shellexport) instead of talking HTTP.
//
// Usage:
//
//	swarmsh serve [--listen :7331] [--config path.yaml]
//	swarmsh register-agent --role worker --specializations go,testing
//	swarmsh claim-work --agent <id>
//	swarmsh update-progress --agent <id> --work <id> --progress 50
//	swarmsh complete-work --agent <id> --work <id> --result success
//	swarmsh create-work --priority 5 --description "..."
//	swarmsh coordinate --pattern atomic --participants a,b,c
//	swarmsh status
//	swarmsh analyze-priorities
//	swarmsh export-shell --out ./shell-export
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/cliutil"
	"github.com/dlorenc/swarmsh-core/internal/coordination"
	cliErrors "github.com/dlorenc/swarmsh-core/internal/errors"
	"github.com/dlorenc/swarmsh-core/internal/logging"
	"github.com/dlorenc/swarmsh-core/internal/oracle"
	"github.com/dlorenc/swarmsh-core/internal/shellexport"
	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// globalFlags are accepted after the subcommand name; the first argument
// is always taken as the subcommand itself.
type globalFlags struct {
	server string
	token  string
	json   bool
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	// Errors are reported in JSON when --json appears among the subcommand's
	// flags, matching the output mode the subcommand itself uses.
	jsonOut := false
	for _, a := range args {
		if a == "--json" || a == "-json" || a == "--json=true" || a == "-json=true" {
			jsonOut = true
		}
	}
	printer := cliutil.NewPrinter(os.Stdout, jsonOut)

	var err error
	switch cmd {
	case "serve":
		err = cmdServe(args)
	case "register-agent":
		err = cmdRegisterAgent(args)
	case "claim-work":
		err = cmdClaimWork(args)
	case "update-progress":
		err = cmdUpdateProgress(args)
	case "complete-work":
		err = cmdCompleteWork(args)
	case "create-work":
		err = cmdCreateWork(args)
	case "coordinate":
		err = cmdCoordinate(args)
	case "status":
		err = cmdStatus(args)
	case "analyze-priorities":
		err = cmdAnalyzePriorities(args)
	case "export-shell":
		err = cmdExportShell(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		err = cliErrors.UnknownCommand(cmd)
	}

	if err != nil {
		kind := ""
		if k := swarmerr.KindOf(err); k != "" {
			kind = string(k)
		}
		printer.Error(kind, cliErrors.Format(err), "")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: swarmsh <serve|register-agent|claim-work|update-progress|complete-work|create-work|coordinate|status|analyze-priorities|export-shell> [flags]")
}

func parseGlobal(fs *flag.FlagSet) *globalFlags {
	g := &globalFlags{}
	fs.StringVar(&g.server, "server", "http://localhost:7331", "coordination server base URL")
	fs.StringVar(&g.token, "token", "", "bearer token for the coordination server")
	fs.BoolVar(&g.json, "json", false, "emit machine-readable JSON output")
	return g
}

// cmdServe starts the in-process engine and HTTP server in the foreground
// until interrupted.
func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", "", "listen address, overrides --config")
	configPath := fs.String("config", "", "path to a YAML Config file")
	logPath := fs.String("log", "", "path to a log file (stderr if omitted)")
	serviceName := fs.String("service-name", "swarmsh-core", "telemetry service name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *coordination.Config
	var err error
	if *configPath != "" {
		cfg, err = coordination.LoadConfig(*configPath)
		if err != nil {
			return cliErrors.Wrap(cliErrors.CategoryConfig, "loading config", err)
		}
	} else {
		cfg = coordination.DefaultConfig()
	}
	cfg.Enabled = true
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	var logger *logging.Logger
	if *logPath != "" {
		logger, err = logging.NewFile(*logPath)
		if err != nil {
			return cliErrors.Wrap(cliErrors.CategoryConfig, "opening log file", err)
		}
		defer logger.Close()
	} else {
		logger = logging.New(os.Stderr)
	}

	spine, err := telemetry.New(*serviceName)
	if err != nil {
		return cliErrors.Wrap(cliErrors.CategoryRuntime, "starting telemetry spine", err)
	}
	defer func() {
		_ = spine.Shutdown(context.Background())
	}()

	engine := coordination.New(cfg, spine, oracle.NewNull())
	server := coordination.NewServer(cfg, engine)
	server.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start blocks, serving until ctx is cancelled, and shuts the HTTP
	// server down gracefully itself before returning.
	return server.Start(ctx)
}

func cmdRegisterAgent(args []string) error {
	fs := flag.NewFlagSet("register-agent", flag.ExitOnError)
	g := parseGlobal(fs)
	id := fs.String("id", "", "agent id (auto-generated if omitted)")
	role := fs.String("role", "", "agent role")
	capacity := fs.Float64("capacity", 1.0, "agent capacity")
	specs := fs.String("specializations", "", "comma-separated specialization list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var specializations []string
	if *specs != "" {
		specializations = strings.Split(*specs, ",")
	}

	c := coordination.NewClient(g.server, g.token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := c.RegisterAgent(ctx, coordination.AgentSpec{
		ID:              *id,
		Role:            *role,
		Capacity:        *capacity,
		Specializations: specializations,
	})
	if err != nil {
		return err
	}

	printer := cliutil.NewPrinter(os.Stdout, g.json)
	printer.Success(state, func(w io.Writer, data interface{}) {
		s := data.(*coordination.AgentState)
		fmt.Fprintf(w, "registered agent %s (role=%s)\n", s.Spec.ID, s.Spec.Role)
	})
	return nil
}

func cmdClaimWork(args []string) error {
	fs := flag.NewFlagSet("claim-work", flag.ExitOnError)
	g := parseGlobal(fs)
	agent := fs.String("agent", "", "agent id claiming work")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *agent == "" {
		return cliErrors.MissingArgument("agent", "string")
	}

	c := coordination.NewClient(g.server, g.token)
	c.SetAgentID(*agent)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	item, err := c.ClaimWork(ctx)
	if err != nil {
		return err
	}

	printer := cliutil.NewPrinter(os.Stdout, g.json)
	if item == nil {
		printer.Warn("no eligible work available for agent %q", *agent)
		return nil
	}
	printer.OK("claimed work %s (priority %.1f)", item.ID, item.Priority)
	return nil
}

func cmdUpdateProgress(args []string) error {
	fs := flag.NewFlagSet("update-progress", flag.ExitOnError)
	g := parseGlobal(fs)
	agent := fs.String("agent", "", "agent id")
	work := fs.String("work", "", "work id")
	progress := fs.Int("progress", 0, "progress percentage [0,100]")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *agent == "" {
		return cliErrors.MissingArgument("agent", "string")
	}
	if *work == "" {
		return cliErrors.MissingArgument("work", "string")
	}

	c := coordination.NewClient(g.server, g.token)
	c.SetAgentID(*agent)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.UpdateProgress(ctx, *work, *progress); err != nil {
		return err
	}
	cliutil.NewPrinter(os.Stdout, g.json).OK("updated %s to %d%%", *work, *progress)
	return nil
}

func cmdCompleteWork(args []string) error {
	fs := flag.NewFlagSet("complete-work", flag.ExitOnError)
	g := parseGlobal(fs)
	agent := fs.String("agent", "", "agent id")
	work := fs.String("work", "", "work id")
	result := fs.String("result", "success", "result: success|failed|timeout|cancelled")
	errMsg := fs.String("error", "", "error message, if result is not success")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *agent == "" {
		return cliErrors.MissingArgument("agent", "string")
	}
	if *work == "" {
		return cliErrors.MissingArgument("work", "string")
	}

	c := coordination.NewClient(g.server, g.token)
	c.SetAgentID(*agent)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outcome := coordination.WorkOutcome{
		Result:      coordination.WorkResult(*result),
		Error:       *errMsg,
		CompletedAt: time.Now(),
	}
	if err := c.CompleteWork(ctx, *work, outcome); err != nil {
		return err
	}
	cliutil.NewPrinter(os.Stdout, g.json).OK("completed %s: %s", *work, *result)
	return nil
}

func cmdCreateWork(args []string) error {
	fs := flag.NewFlagSet("create-work", flag.ExitOnError)
	g := parseGlobal(fs)
	workType := fs.String("type", "general", "work type, used to seed the id")
	priority := fs.Float64("priority", 1.0, "priority, higher claims first")
	description := fs.String("description", "", "human description")
	requirements := fs.String("requirements", "", "comma-separated capability requirements")
	durationMs := fs.Int64("estimated-duration-ms", 0, "estimated duration in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var reqs []string
	if *requirements != "" {
		reqs = strings.Split(*requirements, ",")
	}

	c := coordination.NewClient(g.server, g.token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	item, err := c.CreateWork(ctx, coordination.CreateWorkRequest{
		WorkType:            *workType,
		Priority:            *priority,
		Description:         *description,
		Requirements:        reqs,
		EstimatedDurationMs: *durationMs,
	})
	if err != nil {
		return err
	}
	cliutil.NewPrinter(os.Stdout, g.json).OK("created work %s", item.ID)
	return nil
}

func cmdCoordinate(args []string) error {
	fs := flag.NewFlagSet("coordinate", flag.ExitOnError)
	g := parseGlobal(fs)
	pattern := fs.String("pattern", "atomic", "atomic|realtime")
	participants := fs.String("participants", "", "comma-separated participant ids")
	pulseCount := fs.Int("pulse-count", 0, "realtime: pulses per participant (0 = default)")
	interval := fs.Duration("interval", 0, "realtime: spacing between pulses")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var parts []string
	if *participants != "" {
		parts = strings.Split(*participants, ",")
	}

	p := coordination.Pattern(*pattern)
	if p != coordination.PatternAtomic && p != coordination.PatternRealtime {
		return cliErrors.UnknownPattern(*pattern)
	}

	c := coordination.NewClient(g.server, g.token)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := c.Coordinate(ctx, coordination.CoordinateRequest{
		Pattern:      p,
		Participants: parts,
		RealtimeCfg: coordination.RealtimeContext{
			PulseCount: *pulseCount,
			Interval:   *interval,
		},
	})
	if err != nil {
		return err
	}

	printer := cliutil.NewPrinter(os.Stdout, g.json)
	if g.json {
		printer.Success(res, nil)
		return nil
	}
	switch p {
	case coordination.PatternAtomic:
		printer.OK("atomic fence advanced to epoch %d", res.Epoch)
	case coordination.PatternRealtime:
		printer.OK("emitted %d pulses (%d skewed rounds)", len(res.Pulses.Pulses), len(res.Pulses.SkewedAt))
	}
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	g := parseGlobal(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := coordination.NewClient(g.server, g.token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := c.Status(ctx)
	if err != nil {
		return err
	}

	printer := cliutil.NewPrinter(os.Stdout, g.json)
	if g.json {
		printer.Success(state, nil)
		return nil
	}
	rows := make([][]string, 0, len(state.Agents))
	for id, a := range state.Agents {
		rows = append(rows, []string{id, string(a.Status), a.CurrentWork})
	}
	cliutil.Table(os.Stdout, []string{"AGENT", "STATUS", "CURRENT_WORK"}, rows)
	fmt.Printf("\npending work: %d, active claims: %d\n", state.PendingWork, state.ActiveClaims)
	return nil
}

func cmdAnalyzePriorities(args []string) error {
	fs := flag.NewFlagSet("analyze-priorities", flag.ExitOnError)
	g := parseGlobal(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := coordination.NewClient(g.server, g.token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	analysis, err := c.AnalyzePriorities(ctx)
	if err != nil {
		return err
	}

	printer := cliutil.NewPrinter(os.Stdout, g.json)
	if analysis == nil {
		printer.Warn("oracle unavailable, no analysis produced")
		return nil
	}
	printer.Success(analysis, func(w io.Writer, data interface{}) {
		a := data.(*oracle.Analysis)
		fmt.Fprintf(w, "oracle analysis (confidence %.2f): %d recommendation(s), %d optimization opportunity(ies)\n",
			a.Confidence, len(a.Recommendations), len(a.OptimizationOpportunities))
	})
	return nil
}

func cmdExportShell(args []string) error {
	fs := flag.NewFlagSet("export-shell", flag.ExitOnError)
	out := fs.String("out", "./shell-export", "output directory")
	component := fs.String("component", "", "export a single component instead of everything")
	optLevel := fs.Int("optimization-level", 2, "1 (shared lib), 2 (default), or 3 (fully inlined)")
	noAI := fs.Bool("no-ai", false, "omit the ai_stub.sh script")
	noTelemetry := fs.Bool("no-telemetry", false, "omit the telemetry_events.sh script")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := shellexport.DefaultConfig(*out)
	cfg.OptimizationLevel = *optLevel
	cfg.IncludeAIIntegration = !*noAI
	cfg.IncludeTelemetry = !*noTelemetry

	e := shellexport.New()
	var m *shellexport.Manifest
	var err error
	if *component != "" {
		m, err = e.ExportComponent(*component, cfg)
	} else {
		m, err = e.ExportFull(cfg)
	}
	if err != nil {
		return err
	}

	for _, f := range m.Files {
		fmt.Println(f)
	}
	return nil
}
