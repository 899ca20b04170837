package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/starburst/internal/hierarchy"
	"github.com/danielolaszy/starburst/pkg/models"
)

func sampleResult() *models.TraversalResult {
	result := models.NewTraversalResult("PI30")
	add := func(status string, category models.StatusCategory, typ models.IssueType, path ...string) {
		key := path[len(path)-1]
		result.Nodes = append(result.Nodes, models.PathNode{Path: path, ID: key, StatusCategory: category})
		result.Meta.Issues[key] = models.IssueMeta{
			Key:            key,
			Type:           typ,
			Status:         status,
			StatusCategory: category,
		}
	}
	add("Doing", models.StatusInProgress, models.TypeGoal, "PI30", "TPO-1")
	add("Open", models.StatusToDo, models.TypeImpact, "PI30", "TPO-1", "IMP-1")
	add("Open", models.StatusToDo, models.TypeImpact, "PI30", "TPO-1", "IMP-2")
	add("Closed", models.StatusDone, models.TypeGoal, "PI30", "TPO-2")
	return result
}

func TestTree(t *testing.T) {
	root, err := hierarchy.Build(sampleResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, root, Options{}))

	want := strings.Join([]string{
		"PI30 (2 goals)",
		"├── ● TPO-1 · Goal [Doing] 50.0%",
		"│   ├── ● IMP-1 · Impact [Open] 25.0%",
		"│   └── ● IMP-2 · Impact [Open] 25.0%",
		"└── ● TPO-2 · Goal [Closed] 50.0%",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTreeMaxDepth(t *testing.T) {
	root, err := hierarchy.Build(sampleResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, root, Options{MaxDepth: 1}))
	assert.NotContains(t, buf.String(), "IMP-1")
	assert.Contains(t, buf.String(), "TPO-2")
}

func TestTreeNil(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Tree(&buf, nil, Options{}))
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	result := sampleResult()
	result.Truncated = true
	result.Warnings = []string{"Too many nodes; showing first 4"}

	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, result, Options{}))
	assert.Equal(t, "4 nodes, 4 issues\n⚠ Too many nodes; showing first 4\n", buf.String())
}

func TestColorEnabledForNonFile(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
}
