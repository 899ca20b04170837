package traversal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/starburst/pkg/models"
)

// fakeStore serves raw issues from memory and records every call.
type fakeStore struct {
	mu        sync.Mutex
	goals     []models.RawIssue
	issues    map[string]models.RawIssue
	searches  []models.SearchCriteria
	fetches   [][]string
	fetchErr  error
	searchErr error
	onCall    func()
}

func newFakeStore(goals []models.RawIssue, others ...models.RawIssue) *fakeStore {
	s := &fakeStore{goals: goals, issues: make(map[string]models.RawIssue)}
	for _, g := range goals {
		s.issues[g.Key] = g
	}
	for _, o := range others {
		s.issues[o.Key] = o
	}
	return s
}

func (s *fakeStore) SearchByQuery(_ context.Context, criteria models.SearchCriteria) ([]models.RawIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, criteria)
	if s.onCall != nil {
		s.onCall()
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.goals, nil
}

func (s *fakeStore) FetchByKeys(_ context.Context, keys []string) ([]models.RawIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, append([]string(nil), keys...))
	if s.onCall != nil {
		s.onCall()
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []models.RawIssue
	for _, key := range keys {
		if issue, ok := s.issues[key]; ok {
			out = append(out, issue)
		}
	}
	return out, nil
}

type linkSpec struct {
	outward, inward string
	outKey, inKey   string
}

func issue(key, typeName, category string, links ...linkSpec) models.RawIssue {
	raw := models.RawIssue{
		Key: key,
		Fields: models.RawFields{
			Summary:   "Summary " + key,
			IssueType: &models.RawIssueType{Name: typeName},
			Status: &models.RawStatus{
				Name:           category,
				StatusCategory: &models.RawStatusCategory{Name: category},
			},
			Project: &models.RawProject{Key: "TPO"},
		},
	}
	for _, l := range links {
		link := models.RawIssueLink{Type: models.RawIssueLinkType{Outward: l.outward, Inward: l.inward}}
		if l.outKey != "" {
			link.OutwardIssue = &models.RawIssueRef{Key: l.outKey}
		}
		if l.inKey != "" {
			link.InwardIssue = &models.RawIssueRef{Key: l.inKey}
		}
		raw.Fields.IssueLinks = append(raw.Fields.IssueLinks, link)
	}
	return raw
}

func achieves(key string) linkSpec {
	return linkSpec{outward: "is achieved through", inward: "helps achieve", outKey: key}
}

func realisedBy(key string) linkSpec {
	return linkSpec{outward: "realises", inward: "is realised by", inKey: key}
}

func relates(key string) linkSpec {
	return linkSpec{outward: "relates to", inward: "relates to", outKey: key}
}

// sampleStore reproduces the PI30 scenario: one goal, one impact, a story
// and a program backlog item linked through custom realised-by labels.
func sampleStore() *fakeStore {
	goal := issue("TPO-1042", "Goal", "In Progress", achieves("TPO-IMP-200"))
	goal.Fields.FixVersions = []models.RawVersion{{Name: "PI30"}}

	impact := issue("TPO-IMP-200", "Impact", "To Do",
		linkSpec{outward: "Realised by (delivery)", inward: "realises", outKey: "SP-2001"},
		linkSpec{outward: "is realised by backlog", inward: "realises", outKey: "SP-5964"},
	)
	story := issue("SP-2001", "Story", "Done", relates("SPO-3001"))
	backlog := issue("SP-5964", "Program Backlog Item", "In Progress")
	objective := issue("SPO-3001", "Objective", "In Progress")

	return newFakeStore([]models.RawIssue{goal}, impact, story, backlog, objective)
}

func pathsOfLength(nodes []models.PathNode, n int) []models.PathNode {
	var out []models.PathNode
	for _, node := range nodes {
		if len(node.Path) == n {
			out = append(out, node)
		}
	}
	return out
}

func TestBuildSampleScenario(t *testing.T) {
	store := sampleStore()
	engine := NewEngine(store, Options{BrowseBaseURL: "https://jira.example.com/browse"})

	result, err := engine.Build(context.Background(), "PI30")
	require.NoError(t, err)

	require.Len(t, store.searches, 1)
	assert.Equal(t, models.SearchCriteria{Project: "TPO", IssueType: "Goal", FixVersion: "PI30"}, store.searches[0])

	assert.Equal(t, "PI30", result.PI)
	assert.False(t, result.Truncated)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "https://jira.example.com/browse", result.BrowseBaseURL)

	items := pathsOfLength(result.Nodes, 4)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"PI30", "TPO-1042", "TPO-IMP-200", "SP-2001"}, items[0].Path)
	assert.Equal(t, []string{"PI30", "TPO-1042", "TPO-IMP-200", "SP-5964"}, items[1].Path)

	var ids []string
	for _, node := range result.Nodes {
		ids = append(ids, node.ID)
	}
	assert.Equal(t, []string{"TPO-1042", "TPO-IMP-200", "SP-2001", "SPO-3001", "SP-5964"}, ids)

	for _, key := range ids {
		assert.Contains(t, result.Meta.Issues, key)
	}
	assert.Len(t, result.Meta.Issues, 5)
	assert.Equal(t, models.TypeItem, result.Meta.Issues["SP-5964"].Type)
	assert.Equal(t, "SP-2001 · Story", result.Nodes[2].Label)
	assert.Equal(t, models.StatusDone, result.Nodes[2].StatusCategory)
}

func TestBuildPathInvariants(t *testing.T) {
	store := sampleStore()
	result, err := NewEngine(store, Options{}).Build(context.Background(), "PI30")
	require.NoError(t, err)

	goals := make(map[string]bool)
	for _, node := range result.Nodes {
		require.GreaterOrEqual(t, len(node.Path), 2)
		require.LessOrEqual(t, len(node.Path), 5)
		assert.Equal(t, "PI30", node.Path[0])
		assert.Equal(t, node.ID, node.Path[len(node.Path)-1])
		for _, key := range node.Path[1:] {
			assert.Contains(t, result.Meta.Issues, key)
		}
		if len(node.Path) == 2 {
			assert.False(t, goals[node.ID], "duplicate goal %s", node.ID)
			goals[node.ID] = true
		}
	}
}

func TestBuildNoGoals(t *testing.T) {
	store := newFakeStore(nil)
	result, err := NewEngine(store, Options{}).Build(context.Background(), "PI99")
	require.NoError(t, err)

	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Meta.Issues)
	assert.NotNil(t, result.Warnings)
	assert.False(t, result.Truncated)
	assert.Empty(t, store.fetches)
}

func TestBuildNodeCap(t *testing.T) {
	tests := []struct {
		name          string
		maxNodes      int
		wantNodes     int
		wantTruncated bool
	}{
		{name: "Cap below total", maxNodes: 3, wantNodes: 3, wantTruncated: true},
		{name: "Cap of one", maxNodes: 1, wantNodes: 1, wantTruncated: true},
		{name: "Cap equal to total", maxNodes: 5, wantNodes: 5, wantTruncated: false},
		{name: "Cap above total", maxNodes: 1500, wantNodes: 5, wantTruncated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewEngine(sampleStore(), Options{MaxNodes: tt.maxNodes}).Build(context.Background(), "PI30")
			require.NoError(t, err)

			assert.Len(t, result.Nodes, tt.wantNodes)
			assert.Equal(t, tt.wantTruncated, result.Truncated)
			if tt.wantTruncated {
				assert.Equal(t, []string{fmt.Sprintf("Too many nodes; showing first %d", tt.maxNodes)}, result.Warnings)
			} else {
				assert.Empty(t, result.Warnings)
			}
			for _, node := range result.Nodes {
				assert.Contains(t, result.Meta.Issues, node.ID)
			}
			assert.Len(t, result.Meta.Issues, tt.wantNodes)
		})
	}
}

func TestNodeCapWarningFormatsThousands(t *testing.T) {
	assert.Equal(t, "Too many nodes; showing first 1,500", nodeCapWarning(1500))
}

func TestBuildTimeout(t *testing.T) {
	store := sampleStore()
	engine := NewEngine(store, Options{Budget: 30 * time.Second})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	engine.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	store.onCall = func() {
		clockMu.Lock()
		now = now.Add(20 * time.Second)
		clockMu.Unlock()
	}

	result, err := engine.Build(context.Background(), "PI30")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTraversalTimeout))
	assert.Nil(t, result)

	// The in-flight impact fetch completes; the check after it trips.
	assert.Len(t, store.searches, 1)
	assert.Len(t, store.fetches, 1)
}

func TestBuildTimeoutBeforeFirstCall(t *testing.T) {
	store := sampleStore()
	engine := NewEngine(store, Options{Budget: time.Second})

	calls := 0
	start := time.Now()
	engine.now = func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(time.Minute)
	}

	_, err := engine.Build(context.Background(), "PI30")
	assert.ErrorIs(t, err, ErrTraversalTimeout)
	assert.Empty(t, store.searches)
}

func TestBuildPropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("jira auth failed")

	t.Run("Search", func(t *testing.T) {
		store := sampleStore()
		store.searchErr = storeErr
		_, err := NewEngine(store, Options{}).Build(context.Background(), "PI30")
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, ErrTraversalTimeout)
	})

	t.Run("Fetch", func(t *testing.T) {
		store := sampleStore()
		store.fetchErr = storeErr
		_, err := NewEngine(store, Options{}).Build(context.Background(), "PI30")
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestBuildCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(sampleStore(), Options{}).Build(ctx, "PI30")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildFiltersWrongRingTypes(t *testing.T) {
	goal := issue("TPO-1", "Goal", "To Do",
		achieves("SP-1"), // a story is not an impact
		achieves("TPO-IMP-1"),
		achieves("BUG-1"),     // unclassifiable
		achieves("MISSING-1"), // unknown to the store
	)
	impact := issue("TPO-IMP-1", "Impact", "To Do", realisedBy("SPO-1"), realisedBy("SP-2"))
	store := newFakeStore([]models.RawIssue{goal},
		impact,
		issue("SP-1", "Story", "To Do"),
		issue("BUG-1", "Bug", "To Do"),
		issue("SPO-1", "Objective", "To Do"),
		issue("SP-2", "Enabler", "Done"),
	)

	result, err := NewEngine(store, Options{}).Build(context.Background(), "PI1")
	require.NoError(t, err)

	var paths [][]string
	for _, node := range result.Nodes {
		paths = append(paths, node.Path)
	}
	assert.Equal(t, [][]string{
		{"PI1", "TPO-1"},
		{"PI1", "TPO-1", "TPO-IMP-1"},
		{"PI1", "TPO-1", "TPO-IMP-1", "SP-2"},
	}, paths)
	assert.NotContains(t, result.Meta.Issues, "SP-1")
	assert.NotContains(t, result.Meta.Issues, "SPO-1")
	assert.NotContains(t, result.Meta.Issues, "BUG-1")
}

func TestBuildDeduplicatesGoalsAndSharesChildren(t *testing.T) {
	g1 := issue("TPO-1", "Goal", "To Do", achieves("TPO-IMP-1"))
	g2 := issue("TPO-2", "Goal", "To Do", achieves("TPO-IMP-1"), linkSpec{outward: "relates to", inward: "relates to", outKey: "TPO-2"})
	impact := issue("TPO-IMP-1", "Impact", "In Progress")

	store := newFakeStore([]models.RawIssue{g1, g2, g1}, impact)
	result, err := NewEngine(store, Options{}).Build(context.Background(), "PI2")
	require.NoError(t, err)

	assert.Len(t, pathsOfLength(result.Nodes, 2), 2)
	impacts := pathsOfLength(result.Nodes, 3)
	require.Len(t, impacts, 2)
	assert.Equal(t, "TPO-1", impacts[0].Path[1])
	assert.Equal(t, "TPO-2", impacts[1].Path[1])
	assert.Len(t, result.Meta.Issues, 3)

	// The shared impact is fetched once.
	require.Len(t, store.fetches, 1)
	assert.Equal(t, []string{"TPO-IMP-1"}, store.fetches[0])
}

func TestBuildBatchesKeysDeterministically(t *testing.T) {
	var links []linkSpec
	var impacts []models.RawIssue
	for i := 0; i < 120; i++ {
		key := fmt.Sprintf("TPO-IMP-%03d", i)
		links = append(links, achieves(key))
		impacts = append(impacts, issue(key, "Impact", "To Do"))
	}
	goal := issue("TPO-1", "Goal", "To Do", links...)
	store := newFakeStore([]models.RawIssue{goal}, impacts...)

	result, err := NewEngine(store, Options{FetchConcurrency: 3}).Build(context.Background(), "PI3")
	require.NoError(t, err)

	require.Len(t, store.fetches, 3)
	sizes := map[int]int{}
	for _, f := range store.fetches {
		sizes[len(f)]++
	}
	assert.Equal(t, map[int]int{50: 2, 20: 1}, sizes)

	impactNodes := pathsOfLength(result.Nodes, 3)
	require.Len(t, impactNodes, 120)
	for i, node := range impactNodes {
		assert.Equal(t, fmt.Sprintf("TPO-IMP-%03d", i), node.ID)
	}
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine(newFakeStore(nil), Options{BatchSize: 500})
	opts := engine.Options()

	assert.Equal(t, "TPO", opts.GoalProject)
	assert.Equal(t, "Goal", opts.GoalIssueType)
	assert.Equal(t, 1500, opts.MaxNodes)
	assert.Equal(t, 30*time.Second, opts.Budget)
	assert.Equal(t, MaxBatchSize, opts.BatchSize)
	assert.Equal(t, 1, opts.FetchConcurrency)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(nil, 50))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunk([]string{"a", "b", "c"}, 2))
}
