package jira

import (
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/starburst/pkg/models"
)

// toRaw converts a go-jira issue into the store's wire schema. Missing
// nested records stay nil so the classifier can reject the issue.
func (c *Client) toRaw(issue jira.Issue) models.RawIssue {
	raw := models.RawIssue{Key: issue.Key}
	f := issue.Fields
	if f == nil {
		return raw
	}

	raw.Fields.Summary = f.Summary

	if f.Type.Name != "" {
		raw.Fields.IssueType = &models.RawIssueType{Name: f.Type.Name}
	}

	if f.Status != nil {
		raw.Fields.Status = &models.RawStatus{Name: f.Status.Name}
		sc := f.Status.StatusCategory
		if sc.Name != "" || sc.Key != "" {
			raw.Fields.Status.StatusCategory = &models.RawStatusCategory{Name: sc.Name, Key: sc.Key}
		}
	}

	if f.Project.Key != "" || f.Project.Name != "" {
		raw.Fields.Project = &models.RawProject{Key: f.Project.Key, Name: f.Project.Name}
	}

	for _, v := range f.FixVersions {
		if v == nil {
			continue
		}
		raw.Fields.FixVersions = append(raw.Fields.FixVersions, models.RawVersion{
			ID:       v.ID,
			Name:     v.Name,
			Released: v.Released != nil && *v.Released,
		})
	}

	for _, l := range f.IssueLinks {
		if l == nil {
			continue
		}
		link := models.RawIssueLink{
			Type: models.RawIssueLinkType{
				Name:    l.Type.Name,
				Inward:  l.Type.Inward,
				Outward: l.Type.Outward,
			},
		}
		if l.InwardIssue != nil {
			link.InwardIssue = &models.RawIssueRef{Key: l.InwardIssue.Key}
		}
		if l.OutwardIssue != nil {
			link.OutwardIssue = &models.RawIssueRef{Key: l.OutwardIssue.Key}
		}
		raw.Fields.IssueLinks = append(raw.Fields.IssueLinks, link)
	}

	if f.Assignee != nil {
		raw.Fields.Assignee = &models.RawUser{DisplayName: f.Assignee.DisplayName}
	}

	if f.Unknowns != nil {
		raw.Fields.ExtraLabels = extraLabels(f.Unknowns[c.extraLabelsField])
	}

	return raw
}

// extraLabels reads a multi-select custom field. Options arrive as
// {"value": "..."} objects; plain strings are accepted too.
func extraLabels(value interface{}) []models.RawLabel {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	var labels []models.RawLabel
	for _, item := range items {
		switch v := item.(type) {
		case map[string]interface{}:
			if s, ok := v["value"].(string); ok && strings.TrimSpace(s) != "" {
				labels = append(labels, models.RawLabel{Value: s})
			}
		case string:
			if strings.TrimSpace(v) != "" {
				labels = append(labels, models.RawLabel{Value: v})
			}
		}
	}
	return labels
}
