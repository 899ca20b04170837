// Package models defines data structures shared across the application.
package models

import (
	"fmt"
	"strings"
)

// IssueType is the canonical type of an issue after classification.
type IssueType string

// TypeItem is the delivery item ring type. Capabilities and program backlog
// items fold into it; it keeps the Jira name "Feature" on the wire.
const (
	TypeGoal      IssueType = "Goal"
	TypeImpact    IssueType = "Impact"
	TypeItem      IssueType = "Feature"
	TypeStory     IssueType = "Story"
	TypeEnabler   IssueType = "Enabler"
	TypeSpike     IssueType = "Spike"
	TypeObjective IssueType = "Objective"
)

// StatusCategory is the canonical workflow category of an issue.
type StatusCategory string

const (
	StatusToDo       StatusCategory = "To Do"
	StatusInProgress StatusCategory = "In Progress"
	StatusDone       StatusCategory = "Done"
)

// StatusCategories lists the categories in workflow order.
var StatusCategories = []StatusCategory{StatusToDo, StatusInProgress, StatusDone}

// Link is one typed edge of an issue. Direction is resolved against a hop,
// not here.
type Link struct {
	// TypeName is the name of the Jira link type (e.g., "Realised by (SP)")
	TypeName string

	// LabelOutward is the outward description of the link type
	LabelOutward string

	// LabelInward is the inward description of the link type
	LabelInward string

	// OutwardKey is the key of the outward endpoint, if any
	OutwardKey string

	// InwardKey is the key of the inward endpoint, if any
	InwardKey string
}

// Issue is a classified issue with its links. It is owned by a single
// traversal and never mutated after classification.
type Issue struct {
	IssueMeta

	// Links holds the raw link list used for hop resolution
	Links []Link
}

// IssueMeta is the public projection of an Issue.
type IssueMeta struct {
	// Key is the full issue identifier (e.g., "TPO-1042")
	Key string `json:"key" yaml:"key"`

	// Type is the canonical issue type
	Type IssueType `json:"type" yaml:"type"`

	// Summary is the issue's title
	Summary string `json:"summary" yaml:"summary"`

	// Status is the raw workflow status name (e.g., "Implementing")
	Status string `json:"status" yaml:"status"`

	// StatusCategory is the canonical status category
	StatusCategory StatusCategory `json:"statusCategory" yaml:"statusCategory"`

	// Project is the project key
	Project string `json:"project" yaml:"project"`

	// FixVersions holds the names of the issue's fix versions
	FixVersions []string `json:"fixVersions" yaml:"fixVersions"`

	// Assignee is the display name of the assignee, if any
	Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`

	// ExtraLabels holds values of the configured multi-select custom field
	ExtraLabels []string `json:"extraLabels,omitempty" yaml:"extraLabels,omitempty"`
}

// Label returns the display label used for path nodes, e.g. "SP-2001 · Story".
func (m IssueMeta) Label() string {
	return fmt.Sprintf("%s · %s", m.Key, m.Type)
}

// PathNode is one emitted node of a traversal. Path[0] is always the PI and
// Path[1:] are issue keys from the goal down to this node.
type PathNode struct {
	Path           []string       `json:"path" yaml:"path"`
	ID             string         `json:"id" yaml:"id"`
	Label          string         `json:"label" yaml:"label"`
	StatusCategory StatusCategory `json:"statusCategory" yaml:"statusCategory"`
}

// Depth returns the ring of the node (1 for goals, 4 for objectives).
func (n PathNode) Depth() int {
	return len(n.Path) - 1
}

// Meta wraps the metadata map of a traversal.
type Meta struct {
	Issues map[string]IssueMeta `json:"issues" yaml:"issues"`
}

// TraversalResult is the flat output of a traversal.
type TraversalResult struct {
	// PI is the root identifier of every path
	PI string `json:"pi" yaml:"pi"`

	// Truncated is set when the node cap stopped emission
	Truncated bool `json:"truncated" yaml:"truncated"`

	// Nodes holds the emitted paths in traversal order
	Nodes []PathNode `json:"nodes" yaml:"nodes"`

	// Meta holds one entry per issue key referenced by Nodes
	Meta Meta `json:"meta" yaml:"meta"`

	// Warnings holds user-facing messages (e.g., node cap reached)
	Warnings []string `json:"warnings" yaml:"warnings"`

	// BrowseBaseURL is the prefix for issue links in the UI
	BrowseBaseURL string `json:"browseBaseUrl,omitempty" yaml:"browseBaseUrl,omitempty"`
}

// NewTraversalResult returns an empty result rooted at pi.
func NewTraversalResult(pi string) *TraversalResult {
	return &TraversalResult{
		PI:       pi,
		Nodes:    []PathNode{},
		Meta:     Meta{Issues: make(map[string]IssueMeta)},
		Warnings: []string{},
	}
}

// SearchCriteria selects the ring-1 issues of a traversal.
type SearchCriteria struct {
	Project    string
	IssueType  string
	FixVersion string
}

// JQL renders the criteria as a Jira query.
func (c SearchCriteria) JQL() string {
	return fmt.Sprintf(`project = %s AND issuetype = %s AND fixVersion = "%s"`,
		EscapeJQLValue(c.Project), EscapeJQLValue(c.IssueType), EscapeJQLValue(c.FixVersion))
}

// EscapeJQLValue escapes quotes and backslashes for use inside a JQL string.
func EscapeJQLValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r == '"' || r == '\\' {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// VersionSummary describes a project version offered as a PI.
type VersionSummary struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Released bool   `json:"released" yaml:"released"`
}
