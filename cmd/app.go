// Package cmd provides the command-line interface for Starburst.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/starburst/internal/cache"
	"github.com/danielolaszy/starburst/internal/config"
	"github.com/danielolaszy/starburst/internal/jira"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/internal/traversal"
	"github.com/danielolaszy/starburst/internal/versions"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	jira     *jira.Client
	engine   *traversal.Engine
	versions *versions.Service
	cache    *cache.Store
}

func newApp(cmd *cobra.Command) (*app, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}

	jiraClient, err := jira.NewClient(cfg.Jira)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}

	store, err := cache.Open()
	if err != nil {
		return nil, err
	}

	engine := traversal.NewEngine(jiraClient, traversal.Options{
		GoalProject:      cfg.Traversal.GoalProject,
		GoalIssueType:    cfg.Traversal.GoalIssueType,
		MaxNodes:         cfg.Traversal.MaxNodes,
		Budget:           cfg.Traversal.Timeout,
		BatchSize:        cfg.Traversal.BatchSize,
		FetchConcurrency: cfg.Traversal.FetchConcurrency,
		BrowseBaseURL:    cfg.Jira.BrowseURL(),
	})

	service := versions.NewService(jiraClient, store, versions.Options{
		GoalIssueType: cfg.Traversal.GoalIssueType,
		MinPI:         cfg.Versions.MinPI,
		CacheTTL:      cfg.Versions.CacheTTL,
		Concurrency:   cfg.Traversal.FetchConcurrency,
	})

	logging.Debug("application initialized",
		"jira", cfg.Jira.BaseURL,
		"goal_project", cfg.Traversal.GoalProject,
		"max_nodes", cfg.Traversal.MaxNodes)

	return &app{
		cfg:      cfg,
		jira:     jiraClient,
		engine:   engine,
		versions: service,
		cache:    store,
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		logging.Warn("failed to close cache", "error", err)
	}
}
