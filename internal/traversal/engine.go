// Package traversal walks the issue link graph from a program increment down
// through goals, impacts, delivery items and objectives, producing a flat
// list of root-to-node paths.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielolaszy/starburst/internal/classifier"
	"github.com/danielolaszy/starburst/internal/linking"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/pkg/models"
)

// ErrTraversalTimeout is returned when the wall-clock budget runs out before
// a planned store call. No partial result accompanies it.
var ErrTraversalTimeout = errors.New("jira traversal timeout")

// MaxBatchSize is the largest key chunk sent to the store in one call.
const MaxBatchSize = 50

// Options controls a traversal.
type Options struct {
	// GoalProject and GoalIssueType select the ring-1 issues
	GoalProject   string
	GoalIssueType string

	// MaxNodes caps the number of emitted path nodes
	MaxNodes int

	// Budget is the wall-clock budget of one traversal
	Budget time.Duration

	// BatchSize is the number of keys per fetch call (at most MaxBatchSize)
	BatchSize int

	// FetchConcurrency bounds concurrent chunk fetches within a ring
	FetchConcurrency int

	// BrowseBaseURL is copied into every result
	BrowseBaseURL string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		GoalProject:      "TPO",
		GoalIssueType:    "Goal",
		MaxNodes:         1500,
		Budget:           30 * time.Second,
		BatchSize:        MaxBatchSize,
		FetchConcurrency: 4,
	}
}

// ring describes one link-resolved level below the goals.
type ring struct {
	hop   linking.Hop
	types []models.IssueType
}

func (r ring) accepts(t models.IssueType) bool {
	for _, accepted := range r.types {
		if accepted == t {
			return true
		}
	}
	return false
}

var rings = []ring{
	{hop: linking.HopAchievedThrough, types: []models.IssueType{models.TypeImpact}},
	{hop: linking.HopRealisedBy, types: []models.IssueType{models.TypeItem, models.TypeStory, models.TypeEnabler, models.TypeSpike}},
	{hop: linking.HopRelatesTo, types: []models.IssueType{models.TypeObjective}},
}

// level holds one resolved ring: the accepted issues and, for every parent
// in the ring above, the accepted child keys in link order.
type level struct {
	issues   map[string]models.Issue
	children map[string][]string
}

// Engine performs traversals against an IssueStore. It holds no per-call
// state and may be shared between goroutines.
type Engine struct {
	store IssueStore
	opts  Options
	now   func() time.Time
}

// NewEngine creates an engine. Zero-valued options fall back to defaults.
func NewEngine(store IssueStore, opts Options) *Engine {
	def := DefaultOptions()
	if opts.GoalProject == "" {
		opts.GoalProject = def.GoalProject
	}
	if opts.GoalIssueType == "" {
		opts.GoalIssueType = def.GoalIssueType
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.Budget <= 0 {
		opts.Budget = def.Budget
	}
	if opts.BatchSize <= 0 || opts.BatchSize > MaxBatchSize {
		opts.BatchSize = MaxBatchSize
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 1
	}

	return &Engine{store: store, opts: opts, now: time.Now}
}

// Options returns the effective options of the engine.
func (e *Engine) Options() Options {
	return e.opts
}

// Build traverses from the goals planned in pi and returns the emitted
// paths. It fails with ErrTraversalTimeout when the budget is exhausted and
// passes store failures through.
func (e *Engine) Build(ctx context.Context, pi string) (*models.TraversalResult, error) {
	start := e.now()
	deadline := start.Add(e.opts.Budget)

	result, err := e.build(ctx, pi, deadline)
	traversalDuration.Observe(e.now().Sub(start).Seconds())

	switch {
	case errors.Is(err, ErrTraversalTimeout):
		traversalTotal.WithLabelValues("timeout").Inc()
		logging.Warn("traversal timed out", "pi", pi, "budget", e.opts.Budget)
		return nil, err
	case err != nil:
		traversalTotal.WithLabelValues("error").Inc()
		return nil, err
	case result.Truncated:
		traversalTotal.WithLabelValues("truncated").Inc()
	default:
		traversalTotal.WithLabelValues("ok").Inc()
	}
	traversalNodes.Observe(float64(len(result.Nodes)))

	logging.Info("traversal complete",
		"pi", pi,
		"nodes", len(result.Nodes),
		"issues", len(result.Meta.Issues),
		"truncated", result.Truncated,
		"duration", e.now().Sub(start))

	return result, nil
}

func (e *Engine) build(ctx context.Context, pi string, deadline time.Time) (*models.TraversalResult, error) {
	if err := e.checkBudget(ctx, deadline); err != nil {
		return nil, err
	}

	criteria := models.SearchCriteria{
		Project:    e.opts.GoalProject,
		IssueType:  e.opts.GoalIssueType,
		FixVersion: pi,
	}
	raws, err := e.store.SearchByQuery(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search goals for %s: %w", pi, err)
	}

	if err := e.checkBudget(ctx, deadline); err != nil {
		return nil, err
	}

	goals := uniqueOfType(classifier.ClassifyAll(raws), models.TypeGoal)
	ringIssues.WithLabelValues(linking.HopPlannedIn.String()).Observe(float64(len(goals)))
	logging.Debug("resolved goals",
		"pi", pi,
		"fetched", len(raws),
		"classified", len(goals))

	result := models.NewTraversalResult(pi)
	result.BrowseBaseURL = e.opts.BrowseBaseURL
	if len(goals) == 0 {
		return result, nil
	}

	levels := make([]level, 0, len(rings))
	parents := goals
	for _, r := range rings {
		lvl, next, err := e.resolveRing(ctx, r, parents, deadline)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
		parents = next
	}

	nodes, meta, truncated := emit(pi, goals, levels, e.opts.MaxNodes)
	result.Nodes = nodes
	result.Meta.Issues = meta
	result.Truncated = truncated
	if truncated {
		result.Warnings = append(result.Warnings, nodeCapWarning(e.opts.MaxNodes))
		logging.Info("node cap reached", "pi", pi, "max_nodes", e.opts.MaxNodes)
	}

	return result, nil
}

// resolveRing fetches the children of parents along r and returns the level
// plus the accepted children, in first-seen order, as the next parents.
func (e *Engine) resolveRing(ctx context.Context, r ring, parents []models.Issue, deadline time.Time) (level, []models.Issue, error) {
	linked := make(map[string][]string, len(parents))
	var keys []string
	seen := make(map[string]bool)

	for _, parent := range parents {
		childKeys := linking.CollectLinkedKeys(parent, r.hop)
		linked[parent.Key] = childKeys
		for _, key := range childKeys {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	raws, err := e.fetchLevel(ctx, keys, deadline)
	if err != nil {
		return level{}, nil, err
	}

	if err := e.checkBudget(ctx, deadline); err != nil {
		return level{}, nil, err
	}

	lvl := level{
		issues:   make(map[string]models.Issue),
		children: make(map[string][]string, len(linked)),
	}
	classified := classifier.ClassifyAll(raws)
	for _, issue := range classified {
		if !r.accepts(issue.Type) {
			continue
		}
		if _, dup := lvl.issues[issue.Key]; !dup {
			lvl.issues[issue.Key] = issue
		}
	}

	var next []models.Issue
	added := make(map[string]bool)
	for _, parent := range parents {
		var kept []string
		for _, key := range linked[parent.Key] {
			child, ok := lvl.issues[key]
			if !ok {
				continue
			}
			kept = append(kept, key)
			if !added[key] {
				added[key] = true
				next = append(next, child)
			}
		}
		lvl.children[parent.Key] = kept
	}

	ringIssues.WithLabelValues(r.hop.String()).Observe(float64(len(lvl.issues)))
	logging.Debug("resolved ring",
		"hop", r.hop.String(),
		"linked_keys", len(keys),
		"fetched", len(raws),
		"classified", len(classified),
		"accepted", len(lvl.issues))

	return lvl, next, nil
}

// fetchLevel fetches keys in chunks. Chunks may run concurrently; results
// are merged in chunk order so the outcome does not depend on timing.
func (e *Engine) fetchLevel(ctx context.Context, keys []string, deadline time.Time) ([]models.RawIssue, error) {
	chunks := chunk(keys, e.opts.BatchSize)
	if len(chunks) == 0 {
		return nil, nil
	}

	results := make([][]models.RawIssue, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.FetchConcurrency)

	for i, batch := range chunks {
		g.Go(func() error {
			if err := e.checkBudget(gCtx, deadline); err != nil {
				return err
			}
			raws, err := e.store.FetchByKeys(gCtx, batch)
			if err != nil {
				return fmt.Errorf("failed to fetch %d issues: %w", len(batch), err)
			}
			results[i] = raws
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.RawIssue
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) checkBudget(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.now().After(deadline) {
		return ErrTraversalTimeout
	}
	return nil
}

func uniqueOfType(issues []models.Issue, t models.IssueType) []models.Issue {
	var out []models.Issue
	seen := make(map[string]bool)
	for _, issue := range issues {
		if issue.Type != t || seen[issue.Key] {
			continue
		}
		seen[issue.Key] = true
		out = append(out, issue)
	}
	return out
}

func chunk(keys []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(keys); i += size {
		end := min(i+size, len(keys))
		out = append(out, keys[i:end])
	}
	return out
}
