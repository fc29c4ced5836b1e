package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"citriage/src/logger"
	"citriage/src/plan"
	"citriage/src/summarize"
)

// DefaultMaxLines caps get_job_log output unless the client asks otherwise.
const DefaultMaxLines = 200

// PlanBuilder creates and persists a plan. *plan.Builder satisfies it.
type PlanBuilder interface {
	Build(ctx context.Context, req plan.Request) (*plan.Plan, plan.Handle, error)
}

// Config wires the server to the rest of citriage.
type Config struct {
	Builder PlanBuilder
	Store   plan.Store

	Repository   string
	DefaultLimit int
	ReportPath   string
	LogPath      string

	// CurrentBranch supplies the branch when triage_branch omits it.
	CurrentBranch func(ctx context.Context) (string, error)

	// OnPlanCreated runs after triage_branch saves a plan.
	OnPlanCreated func(ctx context.Context, p *plan.Plan, h plan.Handle)

	Logger  logger.Logger
	Version string
}

// Server is the MCP server for citriage.
type Server struct {
	mcpServer *server.MCPServer
	cfg       Config
	plans     *PlanCache
}

// NewServer creates a server with all tools registered.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewSilentLogger()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := server.NewMCPServer(
		"citriage",
		cfg.Version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		cfg:       cfg,
		plans:     NewPlanCache(cfg.Store),
	}
	srv.registerTools()
	return srv
}

func (s *Server) registerTools() {
	triageTool := mcp.NewTool("triage_branch",
		mcp.WithDescription("Fetch recent CI runs for a branch, condense the logs of failed jobs and save a triage plan. Returns a manifest with run counts, failed jobs and the projected AI summarization cost. Use get_job_log to read a job's condensed log."),
		mcp.WithString("branch",
			mcp.Description("Branch to triage (default: the current git branch)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of recent runs to inspect"),
		),
		mcp.WithBoolean("ai",
			mcp.Description("Record that AI summaries are wanted when the plan is executed"),
		),
	)

	jobLogTool := mcp.NewTool("get_job_log",
		mcp.WithDescription("Return the condensed log of a failed job from a saved plan. Long paths and identifiers are shortened."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID from the triage_branch manifest"),
		),
		mcp.WithString("plan",
			mcp.Description("Plan handle or ID (default: latest plan)"),
		),
		mcp.WithNumber("max_lines",
			mcp.Description(fmt.Sprintf("Keep at most this many trailing lines (default: %d)", DefaultMaxLines)),
		),
	)

	fallbackTool := mcp.NewTool("fallback_summary",
		mcp.WithDescription("Summarize a failed job's condensed log without an LLM: first error line, failing tests, exit code and key lines."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID from the triage_branch manifest"),
		),
		mcp.WithString("plan",
			mcp.Description("Plan handle or ID (default: latest plan)"),
		),
	)

	listTool := mcp.NewTool("list_plans",
		mcp.WithDescription("List saved triage plans, newest first."),
	)

	s.mcpServer.AddTool(triageTool, s.handleTriageBranch)
	s.mcpServer.AddTool(jobLogTool, s.handleGetJobLog)
	s.mcpServer.AddTool(fallbackTool, s.handleFallbackSummary)
	s.mcpServer.AddTool(listTool, s.handleListPlans)
}

// Run serves MCP on stdio until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleTriageBranch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.Builder == nil {
		return mcp.NewToolResultError("plan building is not configured"), nil
	}

	branch := strings.TrimSpace(request.GetString("branch", ""))
	if branch == "" && s.cfg.CurrentBranch != nil {
		b, err := s.cfg.CurrentBranch(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("branch not given and could not be detected: %v", err)), nil
		}
		branch = b
	}
	if branch == "" {
		return mcp.NewToolResultError("branch parameter is required"), nil
	}

	req := plan.Request{
		Repository:  s.cfg.Repository,
		Branch:      branch,
		Limit:       request.GetInt("limit", s.cfg.DefaultLimit),
		AIRequested: request.GetBool("ai", false),
		ReportPath:  s.cfg.ReportPath,
		LogPath:     s.cfg.LogPath,
	}
	p, h, err := s.cfg.Builder.Build(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("triage failed: %v", err)), nil
	}
	s.plans.Put(h, p)
	s.cfg.Logger.Info("mcp: saved plan %s for %s (%d failed jobs)", p.ID, branch, len(p.FailedJobs))
	if s.cfg.OnPlanCreated != nil {
		s.cfg.OnPlanCreated(ctx, p, h)
	}

	return jsonResult(ToManifest(p, h))
}

func (s *Server) handleGetJobLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}
	maxLines := request.GetInt("max_lines", DefaultMaxLines)

	p, item, err := s.plans.Job(ctx, plan.Handle(request.GetString("plan", "")), jobID)
	if err != nil {
		return planError(err), nil
	}

	out := JobLog{
		PlanID:       p.ID,
		JobID:        item.JobID,
		JobName:      item.JobName,
		WorkflowName: item.WorkflowName,
		LogAvailable: item.LogAvailable(),
		FetchError:   item.FetchError,
	}
	if item.LogAvailable() {
		lines := strings.Split(Compact(item.Condensed()), "\n")
		if maxLines > 0 && len(lines) > maxLines {
			lines = lines[len(lines)-maxLines:]
			out.Truncated = true
		}
		out.Lines = len(lines)
		out.Log = strings.Join(lines, "\n")
	}
	return jsonResult(out)
}

func (s *Server) handleFallbackSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	_, item, err := s.plans.Job(ctx, plan.Handle(request.GetString("plan", "")), jobID)
	if err != nil {
		return planError(err), nil
	}
	if !item.LogAvailable() {
		return mcp.NewToolResultError(fmt.Sprintf("log for job %s was not retrieved: %s", jobID, item.FetchError)), nil
	}

	return mcp.NewToolResultText(summarize.Fallback(item.Condensed()).Markdown()), nil
}

func (s *Server) handleListPlans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.cfg.Store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list plans: %v", err)), nil
	}

	type listed struct {
		Handle        string  `json:"handle"`
		PlanID        string  `json:"plan_id"`
		Branch        string  `json:"branch"`
		CreatedAt     string  `json:"created_at"`
		FailedJobs    int     `json:"failed_jobs"`
		EligibleJobs  int     `json:"eligible_jobs"`
		EstimatedCost float64 `json:"estimated_cost"`
	}
	out := make([]listed, 0, len(entries))
	for _, e := range entries {
		out = append(out, listed{
			Handle:        e.Handle.String(),
			PlanID:        e.ID,
			Branch:        e.Branch,
			CreatedAt:     e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			FailedJobs:    e.FailedJobs,
			EligibleJobs:  e.EligibleJobs,
			EstimatedCost: e.EstimatedCost,
		})
	}
	return jsonResult(out)
}

func planError(err error) *mcp.CallToolResult {
	if errors.Is(err, plan.ErrNoPlan) {
		return mcp.NewToolResultError("no saved plan found; call triage_branch first")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
