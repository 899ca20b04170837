package models

// RawIssue is the wire-level issue record returned by an issue store.
// Every field is optional except Key; validation happens in the classifier.
type RawIssue struct {
	Key    string    `json:"key"`
	Fields RawFields `json:"fields"`
}

// RawFields holds the subset of issue fields the traversal reads.
type RawFields struct {
	Summary     string         `json:"summary"`
	IssueType   *RawIssueType  `json:"issuetype,omitempty"`
	Status      *RawStatus     `json:"status,omitempty"`
	Project     *RawProject    `json:"project,omitempty"`
	FixVersions []RawVersion   `json:"fixVersions,omitempty"`
	IssueLinks  []RawIssueLink `json:"issuelinks,omitempty"`
	Assignee    *RawUser       `json:"assignee,omitempty"`
	ExtraLabels []RawLabel     `json:"extraLabelsField,omitempty"`
}

type RawIssueType struct {
	Name string `json:"name"`
}

type RawStatus struct {
	Name           string             `json:"name"`
	StatusCategory *RawStatusCategory `json:"statusCategory,omitempty"`
}

type RawStatusCategory struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type RawProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type RawVersion struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Released bool   `json:"released"`
}

type RawIssueLink struct {
	Type         RawIssueLinkType `json:"type"`
	InwardIssue  *RawIssueRef     `json:"inwardIssue,omitempty"`
	OutwardIssue *RawIssueRef     `json:"outwardIssue,omitempty"`
}

type RawIssueLinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

type RawIssueRef struct {
	Key string `json:"key"`
}

type RawUser struct {
	DisplayName string `json:"displayName"`
}

type RawLabel struct {
	Value string `json:"value"`
}
