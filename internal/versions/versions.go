// Package versions lists the PI versions of a project that have goals.
package versions

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielolaszy/starburst/internal/cache"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/pkg/models"
)

// Store is the subset of the issue store needed to list versions.
type Store interface {
	ProjectVersions(ctx context.Context, project string) ([]models.VersionSummary, error)
	CountIssues(ctx context.Context, jql string) (int, error)
}

// Listing is the response of a version lookup. DefaultPI is the first
// unreleased version, or nil when every listed version is released.
type Listing struct {
	Versions  []models.VersionSummary `json:"versions" yaml:"versions"`
	DefaultPI *string                 `json:"defaultPi" yaml:"defaultPi"`
}

// Options configures a Service.
type Options struct {
	GoalIssueType string
	MinPI         string
	CacheTTL      time.Duration
	Concurrency   int
}

// Service lists PI versions, caching results per project.
type Service struct {
	store Store
	cache *cache.Store
	opts  Options
}

// NewService creates a Service. A nil cache disables caching.
func NewService(store Store, c *cache.Store, opts Options) *Service {
	if opts.GoalIssueType == "" {
		opts.GoalIssueType = "Goal"
	}
	if opts.MinPI == "" {
		opts.MinPI = "PI28"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Service{store: store, cache: c, opts: opts}
}

// List returns the PI versions of project at or above the minimum PI,
// newest first, keeping only versions with at least one goal. A version
// whose goal count cannot be read is kept.
func (s *Service) List(ctx context.Context, project string) (*Listing, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}
	cacheKey := "versions:" + strings.ToUpper(project)

	if s.cache != nil {
		var cached Listing
		ok, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			logging.Warn("Failed to read versions cache", "project", project, "error", err)
		} else if ok {
			logging.Debug("Versions served from cache", "project", project)
			return &cached, nil
		}
	}

	all, err := s.store.ProjectVersions(ctx, project)
	if err != nil {
		return nil, err
	}

	candidates := FilterPIs(all, s.opts.MinPI)

	keep := make([]bool, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, version := range candidates {
		g.Go(func() error {
			jql := models.SearchCriteria{
				Project:    project,
				IssueType:  s.opts.GoalIssueType,
				FixVersion: version.Name,
			}.JQL()

			count, err := s.store.CountIssues(ctx, jql)
			if err != nil {
				logging.Warn("Failed to verify data for version", "version", version.Name, "error", err)
				keep[i] = true
				return nil
			}
			keep[i] = count > 0
			return nil
		})
	}
	_ = g.Wait()

	listing := &Listing{Versions: []models.VersionSummary{}}
	for i, version := range candidates {
		if keep[i] {
			listing.Versions = append(listing.Versions, version)
		}
	}
	for _, version := range listing.Versions {
		if !version.Released {
			name := version.Name
			listing.DefaultPI = &name
			break
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, listing, s.opts.CacheTTL); err != nil {
			logging.Warn("Failed to write versions cache", "project", project, "error", err)
		}
	}

	logging.Info("Versions listed", "project", project, "versions", len(listing.Versions))
	return listing, nil
}

// FilterPIs keeps versions named "PI..." that compare at or above minPI and
// sorts them newest first.
func FilterPIs(versions []models.VersionSummary, minPI string) []models.VersionSummary {
	out := []models.VersionSummary{}
	for _, v := range versions {
		upper := strings.ToUpper(strings.TrimSpace(v.Name))
		if !strings.HasPrefix(upper, "PI") {
			continue
		}
		if ComparePI(upper, minPI) < 0 {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return ComparePI(out[i].Name, out[j].Name) > 0
	})
	return out
}

// ComparePI orders PI names case-insensitively, comparing the numeric part
// as a number when both names are "PI<n>".
func ComparePI(a, b string) int {
	ua, ub := strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	na, errA := strconv.Atoi(strings.TrimPrefix(ua, "PI"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(ub, "PI"))
	if errA == nil && errB == nil && strings.HasPrefix(ua, "PI") && strings.HasPrefix(ub, "PI") {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(ua, ub)
}
