// Package mcp exposes the marketplace over the Model Context Protocol
// so agent runtimes can register skills, report usage and inspect
// rewards through tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	service "github.com/myskills/skillhub/internal/app"
	"github.com/myskills/skillhub/internal/domain/bounty"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
)

const serverVersion = "1.0.0"

// Server wraps an MCP stdio server bound to the marketplace service.
type Server struct {
	svc *service.Service
	mcp *server.MCPServer
}

// NewServer builds the MCP server and registers all tools.
func NewServer(svc *service.Service) *Server {
	s := &Server{
		svc: svc,
		mcp: server.NewMCPServer("skillhub", serverVersion, server.WithToolCapabilities(true)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks, serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("mcp serve: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcpgo.NewTool("register_skill",
		mcpgo.WithDescription("Register a skill from provider metadata. Registration is idempotent on (repository, name)."),
		mcpgo.WithString("name", mcpgo.Required(), mcpgo.Description("Skill name")),
		mcpgo.WithString("repository", mcpgo.Required(), mcpgo.Description("Repository URL or shorthand like owner/repo")),
		mcpgo.WithString("wallet_address", mcpgo.Required(), mcpgo.Description("Creator EVM wallet address")),
		mcpgo.WithString("platform", mcpgo.Description("Hosting platform, e.g. github")),
		mcpgo.WithString("description", mcpgo.Description("Free-form description")),
		mcpgo.WithString("keywords", mcpgo.Description("Comma-separated keywords")),
		mcpgo.WithNumber("stars", mcpgo.Description("Repository star count")),
	), s.handleRegisterSkill)

	s.mcp.AddTool(mcpgo.NewTool("list_skills",
		mcpgo.WithDescription("List registered skills, newest first, optionally filtered."),
		mcpgo.WithString("platform", mcpgo.Description("Filter by platform")),
		mcpgo.WithString("keyword", mcpgo.Description("Filter by keyword")),
	), s.handleListSkills)

	s.mcp.AddTool(mcpgo.NewTool("get_skill",
		mcpgo.WithDescription("Fetch one skill descriptor by its identifier."),
		mcpgo.WithString("skill_id", mcpgo.Required(), mcpgo.Description("Skill identifier")),
	), s.handleGetSkill)

	s.mcp.AddTool(mcpgo.NewTool("record_usage",
		mcpgo.WithDescription("Record one usage event for a registered skill."),
		mcpgo.WithString("skill_id", mcpgo.Required(), mcpgo.Description("Skill identifier")),
		mcpgo.WithString("user_id", mcpgo.Required(), mcpgo.Description("Opaque user identifier")),
		mcpgo.WithString("ts", mcpgo.Description("RFC3339 timestamp; defaults to now")),
	), s.handleRecordUsage)

	s.mcp.AddTool(mcpgo.NewTool("run_distribution",
		mcpgo.WithDescription("Run (or replay) the reward distribution for one period."),
		mcpgo.WithString("period_start", mcpgo.Required(), mcpgo.Description("RFC3339 period start, inclusive")),
		mcpgo.WithString("period_end", mcpgo.Required(), mcpgo.Description("RFC3339 period end, exclusive")),
		mcpgo.WithString("pool", mcpgo.Description("Pool as a decimal integer; defaults to the configured pool")),
	), s.handleRunDistribution)

	s.mcp.AddTool(mcpgo.NewTool("list_distributions",
		mcpgo.WithDescription("List finished distribution records ordered by period start."),
	), s.handleListDistributions)

	s.mcp.AddTool(mcpgo.NewTool("get_leaderboard",
		mcpgo.WithDescription("Return the top skills ranked by creator earnings."),
		mcpgo.WithNumber("limit", mcpgo.Required(), mcpgo.Description("Maximum entries to return")),
		mcpgo.WithString("since", mcpgo.Description("RFC3339 lower bound on period end")),
	), s.handleGetLeaderboard)

	s.mcp.AddTool(mcpgo.NewTool("post_bounty",
		mcpgo.WithDescription("Post a new bounty with a fixed reward."),
		mcpgo.WithString("title", mcpgo.Required(), mcpgo.Description("Bounty title")),
		mcpgo.WithString("reward", mcpgo.Required(), mcpgo.Description("Reward as a decimal integer")),
		mcpgo.WithString("creator_wallet", mcpgo.Required(), mcpgo.Description("Poster EVM wallet address")),
		mcpgo.WithString("deadline", mcpgo.Required(), mcpgo.Description("RFC3339 deadline, must be in the future")),
		mcpgo.WithString("description", mcpgo.Description("Free-form description")),
		mcpgo.WithString("category", mcpgo.Description("Bounty category")),
	), s.handlePostBounty)

	s.mcp.AddTool(mcpgo.NewTool("list_bounties",
		mcpgo.WithDescription("List bounties, newest first, optionally filtered by status."),
		mcpgo.WithString("status", mcpgo.Description("open, assigned, completed or cancelled")),
	), s.handleListBounties)

	s.mcp.AddTool(mcpgo.NewTool("assign_bounty",
		mcpgo.WithDescription("Assign an open bounty to a wallet."),
		mcpgo.WithString("bounty_id", mcpgo.Required(), mcpgo.Description("Bounty identifier")),
		mcpgo.WithString("assignee_wallet", mcpgo.Required(), mcpgo.Description("Assignee EVM wallet address")),
	), s.handleAssignBounty)

	s.mcp.AddTool(mcpgo.NewTool("complete_bounty",
		mcpgo.WithDescription("Complete an assigned bounty."),
		mcpgo.WithString("bounty_id", mcpgo.Required(), mcpgo.Description("Bounty identifier")),
	), s.handleCompleteBounty)

	s.mcp.AddTool(mcpgo.NewTool("cancel_bounty",
		mcpgo.WithDescription("Cancel an open or assigned bounty."),
		mcpgo.WithString("bounty_id", mcpgo.Required(), mcpgo.Description("Bounty identifier")),
	), s.handleCancelBounty)
}

func (s *Server) handleRegisterSkill(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	repo, err := req.RequireString("repository")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	wallet, err := req.RequireString("wallet_address")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	raw := metadata.Raw{
		Name:          name,
		Repository:    repo,
		WalletAddress: wallet,
		Platform:      req.GetString("platform", ""),
		Description:   req.GetString("description", ""),
		Keywords:      splitKeywords(req.GetString("keywords", "")),
		Stars:         req.GetInt("stars", 0),
	}
	desc, err := s.svc.RegisterSkill(ctx, raw)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(desc)
}

func (s *Server) handleListSkills(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	skills := s.svc.ListSkills(ctx, registry.Filter{
		Platform: req.GetString("platform", ""),
		Keyword:  req.GetString("keyword", ""),
	})
	return jsonResult(skills)
}

func (s *Server) handleGetSkill(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	skillID, err := req.RequireString("skill_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	desc, err := s.svc.GetSkill(ctx, skillID)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(desc)
}

func (s *Server) handleRecordUsage(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	skillID, err := req.RequireString("skill_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	ts, err := optionalTime(req.GetString("ts", ""))
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	event, err := s.svc.RecordUsage(ctx, skillID, userID, ts)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(event)
}

func (s *Server) handleRunDistribution(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	start, err := requiredTime(req, "period_start")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	end, err := requiredTime(req, "period_end")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	var pool *big.Int
	if raw := req.GetString("pool", ""); raw != "" {
		parsed, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return mcpgo.NewToolResultError("pool must be a decimal integer"), nil
		}
		pool = parsed
	}

	record, err := s.svc.Distribute(ctx, start, end, pool)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}

func (s *Server) handleListDistributions(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return jsonResult(s.svc.Distributions(ctx))
}

func (s *Server) handleGetLeaderboard(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	limit, err := req.RequireInt("limit")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	since, err := optionalTime(req.GetString("since", ""))
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	var entries []model.LeaderboardEntry
	if since.IsZero() {
		entries, err = s.svc.Leaderboard(ctx, limit)
	} else {
		entries, err = s.svc.LeaderboardSince(ctx, limit, since)
	}
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries)
}

func (s *Server) handlePostBounty(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	rewardRaw, err := req.RequireString("reward")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	reward, ok := new(big.Int).SetString(rewardRaw, 10)
	if !ok {
		return mcpgo.NewToolResultError("reward must be a decimal integer"), nil
	}
	wallet, err := req.RequireString("creator_wallet")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	deadline, err := requiredTime(req, "deadline")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	record, err := s.svc.PostBounty(ctx, bounty.Input{
		Title:         title,
		Description:   req.GetString("description", ""),
		Reward:        reward,
		Category:      req.GetString("category", ""),
		CreatorWallet: wallet,
		Deadline:      deadline,
	})
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}

func (s *Server) handleListBounties(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	status := model.BountyStatus(req.GetString("status", ""))
	records, err := s.svc.ListBounties(ctx, status)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(records)
}

func (s *Server) handleAssignBounty(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	bountyID, err := req.RequireString("bounty_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	wallet, err := req.RequireString("assignee_wallet")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	record, err := s.svc.AssignBounty(ctx, bountyID, wallet)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}

func (s *Server) handleCompleteBounty(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	bountyID, err := req.RequireString("bounty_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	record, err := s.svc.CompleteBounty(ctx, bountyID)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}

func (s *Server) handleCancelBounty(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	bountyID, err := req.RequireString("bounty_id")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	record, err := s.svc.CancelBounty(ctx, bountyID)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}

func jsonResult(v any) (*mcpgo.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return mcpgo.NewToolResultText(string(body)), nil
}

func requiredTime(req mcpgo.CallToolRequest, key string) (time.Time, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be RFC3339: %w", key, err)
	}
	return ts, nil
}

func optionalTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp must be RFC3339: %w", err)
	}
	return ts, nil
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
