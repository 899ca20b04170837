package jira

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/pkg/models"
)

// SearchByQuery returns every issue matching the structured criteria.
func (c *Client) SearchByQuery(ctx context.Context, criteria models.SearchCriteria) ([]models.RawIssue, error) {
	return c.SearchIssues(ctx, criteria.JQL())
}

// SearchIssues runs a JQL query and follows pagination until every match
// has been read.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]models.RawIssue, error) {
	var results []models.RawIssue
	startAt := 0

	for {
		issues, resp, err := c.searchPage(ctx, jql, startAt)
		if err != nil {
			return nil, err
		}

		for _, issue := range issues {
			results = append(results, c.toRaw(issue))
		}

		step := resp.MaxResults
		if step <= 0 {
			step = len(issues)
		}
		startAt += step
		if step == 0 || startAt >= resp.Total {
			break
		}
	}

	logging.Debug("JIRA search completed", "jql", jql, "issues", len(results))
	return results, nil
}

func (c *Client) searchPage(ctx context.Context, jql string, startAt int) ([]jira.Issue, *jira.Response, error) {
	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	issues, resp, err := c.client.Issue.SearchWithContext(reqCtx, jql, &jira.SearchOptions{
		StartAt:    startAt,
		MaxResults: pageSize,
		Expand:     "issuelinks",
		Fields:     c.fields,
	})
	if err != nil {
		serr := newStoreError("search", reqCtx, resp, err)
		observe("search", start, serr.StatusCode)
		logging.Debug("JIRA search failed", "jql", jql, "start_at", startAt, "status", serr.StatusCode)
		return nil, nil, serr
	}
	observe("search", start, resp.StatusCode)
	return issues, resp, nil
}

// FetchByKeys loads issues by key, in batches of keyBatchSize. Duplicate
// keys are requested once and keys are sanitised before entering JQL.
func (c *Client) FetchByKeys(ctx context.Context, keys []string) ([]models.RawIssue, error) {
	var unique []string
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		escaped := escapeKey(key)
		if escaped == "" || seen[escaped] {
			continue
		}
		seen[escaped] = true
		unique = append(unique, escaped)
	}

	var output []models.RawIssue
	for start := 0; start < len(unique); start += keyBatchSize {
		end := start + keyBatchSize
		if end > len(unique) {
			end = len(unique)
		}

		issues, err := c.SearchIssues(ctx, KeyQuery(unique[start:end]))
		if err != nil {
			return nil, err
		}
		output = append(output, issues...)
	}

	return output, nil
}

// KeyQuery builds the "key in (...)" JQL for a batch of keys.
func KeyQuery(keys []string) string {
	escaped := make([]string, 0, len(keys))
	for _, key := range keys {
		if k := escapeKey(key); k != "" {
			escaped = append(escaped, k)
		}
	}
	return fmt.Sprintf("key in (%s)", strings.Join(escaped, ","))
}

// escapeKey keeps only characters that can appear in an issue key.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CountIssues returns the number of issues matching jql without loading them.
func (c *Client) CountIssues(ctx context.Context, jql string) (int, error) {
	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, resp, err := c.client.Issue.SearchWithContext(reqCtx, jql, &jira.SearchOptions{
		MaxResults: 1,
		Fields:     []string{"key"},
	})
	if err != nil {
		serr := newStoreError("count", reqCtx, resp, err)
		observe("count", start, serr.StatusCode)
		return 0, serr
	}
	observe("count", start, resp.StatusCode)
	return resp.Total, nil
}

// ProjectVersions returns the versions of a project.
func (c *Client) ProjectVersions(ctx context.Context, projectKey string) ([]models.VersionSummary, error) {
	reqCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	project, resp, err := c.client.Project.GetWithContext(reqCtx, projectKey)
	if err != nil {
		serr := newStoreError("versions", reqCtx, resp, err)
		observe("versions", start, serr.StatusCode)
		return nil, serr
	}
	observe("versions", start, http.StatusOK)

	versions := make([]models.VersionSummary, 0, len(project.Versions))
	for _, v := range project.Versions {
		versions = append(versions, models.VersionSummary{
			ID:       v.ID,
			Name:     v.Name,
			Released: v.Released != nil && *v.Released,
		})
	}
	return versions, nil
}
