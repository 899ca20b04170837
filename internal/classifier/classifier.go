// Package classifier normalises raw issue records into canonical issues.
// Records that cannot be classified are dropped without error.
package classifier

import (
	"strings"

	"github.com/danielolaszy/starburst/pkg/models"
)

// typeTable is checked in order; the first substring hit wins.
var typeTable = []struct {
	fragment string
	typ      models.IssueType
}{
	{"goal", models.TypeGoal},
	{"impact", models.TypeImpact},
	{"feature", models.TypeItem},
	{"story", models.TypeStory},
	{"enabler", models.TypeEnabler},
	{"spike", models.TypeSpike},
	{"objective", models.TypeObjective},
	{"capability", models.TypeItem},
	{"program backlog", models.TypeItem},
	{"programme backlog", models.TypeItem},
	{"pbi", models.TypeItem},
	{"backlog item", models.TypeItem},
}

var statusTable = map[string]models.StatusCategory{
	"to do":       models.StatusToDo,
	"in progress": models.StatusInProgress,
	"done":        models.StatusDone,
}

// NormalizeType maps a raw issue type name to its canonical type.
func NormalizeType(name string) (models.IssueType, bool) {
	lower := strings.ToLower(name)
	if strings.TrimSpace(lower) == "" {
		return "", false
	}
	for _, entry := range typeTable {
		if strings.Contains(lower, entry.fragment) {
			return entry.typ, true
		}
	}
	return "", false
}

// NormalizeStatus maps a raw status category name to its canonical category.
func NormalizeStatus(name string) (models.StatusCategory, bool) {
	category, ok := statusTable[strings.ToLower(name)]
	return category, ok
}

// Classify converts a raw issue into a canonical issue. It returns false when
// the key, type or status category cannot be resolved.
func Classify(raw models.RawIssue) (models.Issue, bool) {
	if raw.Key == "" || raw.Fields.IssueType == nil || raw.Fields.Status == nil {
		return models.Issue{}, false
	}

	typ, ok := NormalizeType(raw.Fields.IssueType.Name)
	if !ok {
		return models.Issue{}, false
	}

	if raw.Fields.Status.StatusCategory == nil {
		return models.Issue{}, false
	}
	category, ok := NormalizeStatus(raw.Fields.Status.StatusCategory.Name)
	if !ok {
		return models.Issue{}, false
	}

	meta := models.IssueMeta{
		Key:            raw.Key,
		Type:           typ,
		Summary:        raw.Fields.Summary,
		Status:         raw.Fields.Status.Name,
		StatusCategory: category,
		FixVersions:    make([]string, 0, len(raw.Fields.FixVersions)),
		ExtraLabels:    extraLabels(raw.Fields.ExtraLabels),
	}
	if raw.Fields.Project != nil {
		meta.Project = raw.Fields.Project.Key
	}
	for _, v := range raw.Fields.FixVersions {
		meta.FixVersions = append(meta.FixVersions, v.Name)
	}
	if raw.Fields.Assignee != nil {
		meta.Assignee = raw.Fields.Assignee.DisplayName
	}

	return models.Issue{IssueMeta: meta, Links: convertLinks(raw.Fields.IssueLinks)}, true
}

// ClassifyAll classifies raws in order and drops the misses.
func ClassifyAll(raws []models.RawIssue) []models.Issue {
	issues := make([]models.Issue, 0, len(raws))
	for _, raw := range raws {
		if issue, ok := Classify(raw); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func extraLabels(values []models.RawLabel) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v.Value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func convertLinks(raw []models.RawIssueLink) []models.Link {
	links := make([]models.Link, 0, len(raw))
	for _, l := range raw {
		link := models.Link{
			TypeName:     l.Type.Name,
			LabelOutward: l.Type.Outward,
			LabelInward:  l.Type.Inward,
		}
		if l.OutwardIssue != nil {
			link.OutwardKey = l.OutwardIssue.Key
		}
		if l.InwardIssue != nil {
			link.InwardKey = l.InwardIssue.Key
		}
		links = append(links, link)
	}
	return links
}
