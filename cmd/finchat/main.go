// Command finchat is an interactive financial analysis chat. A leader agent
// delegates to a web search agent and a Yahoo Finance agent, and follow-up
// questions are answered with the recent conversation as context.
//
// Configuration comes from .env, an optional YAML file (--config), the
// environment and flags; run with --help for the list.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/leofalp/finchat/core/client/middleware"
	"github.com/leofalp/finchat/core/conversation"
	"github.com/leofalp/finchat/internal/config"
	"github.com/leofalp/finchat/patterns/team"
	"github.com/leofalp/finchat/providers/ai/openai"
	"github.com/leofalp/finchat/providers/observability/slogobs"
	"github.com/leofalp/finchat/providers/tool"
	"github.com/leofalp/finchat/providers/tool/duckduckgo"
	"github.com/leofalp/finchat/providers/tool/webfetch"
	"github.com/leofalp/finchat/providers/tool/yfinance"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "finchat: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "finchat: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level, _ := slogobs.ParseLevel(cfg.Logging.Level)
	observer := slogobs.New(
		slogobs.WithLevel(level),
		slogobs.WithFormat(slogobs.ParseFormat(cfg.Logging.Format)),
		slogobs.WithOutput(os.Stderr),
	)
	logger := observer.Logger()

	provider := openai.New().WithAPIKey(cfg.APIKey).WithBaseURL(cfg.BaseURL)

	finance := yfinance.New()
	toggles := yfinance.AllToggles()
	toggles.CompanyNews = cfg.Tools.CompanyNews

	members := team.FinancialMembers(
		[]tool.GenericTool{duckduckgo.New().SearchTool(), webfetch.New().FetchTool()},
		finance.Tools(toggles),
	)

	agents, err := team.New(provider, members,
		team.WithModel(cfg.Model),
		team.WithInstructions(team.FinancialInstructions...),
		team.WithOutput(os.Stdout),
		team.WithShowToolCalls(cfg.ShowToolCalls),
		team.WithMarkdown(cfg.Markdown),
		team.WithMaxIterations(cfg.MaxIterations),
		team.WithObserver(observer),
		team.WithMiddleware(middleware.NewLoggingMiddleware(logger, middleware.ParseLogLevel(cfg.Logging.Middleware))),
		team.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	reporter := conversation.NewStderrReporter(os.Stderr).WithColor(color.New(color.FgRed))
	manager := conversation.New(agents,
		conversation.WithHistoryWindow(cfg.HistoryWindow),
		conversation.WithErrorReporter(interruptFilter{ctx: ctx, next: reporter}),
		conversation.WithObserver(observer),
		conversation.WithLogger(logger),
	)

	logger.Debug("session started",
		slog.String("session", manager.SessionID()),
		slog.String("model", cfg.Model),
		slog.String("base_url", cfg.BaseURL),
		slog.Any("members", agents.Members()),
		slog.String("config_file", cfg.Path),
	)

	r := &repl{
		manager:     manager,
		in:          os.Stdin,
		out:         os.Stdout,
		stream:      cfg.Stream,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
	return r.run(ctx)
}

// interruptFilter drops the cancellation error produced when the user
// interrupts a running query; the loop prints the goodbye instead.
type interruptFilter struct {
	ctx  context.Context
	next conversation.ErrorReporter
}

func (f interruptFilter) Report(ctx context.Context, msg string, err error) {
	if f.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}
	f.next.Report(ctx, msg, err)
}
