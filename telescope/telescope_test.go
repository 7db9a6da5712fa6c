package telescope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoItems() []Item {
	return []Item{
		{Tool: "Todo", ID: "1", Primary: "Ship demo mode", Secondary: "Seeded screenshot data"},
		{Tool: "Todo", ID: "2", Primary: "Polish README copy"},
		{Tool: "HTTP", ID: "3", Primary: "get-user", Secondary: "GET https://example.com/users/1"},
		{Tool: "HTTP", ID: "4", Primary: "login", Secondary: "POST https://example.com/auth/login"},
		{Tool: "Vault", ID: "5", Primary: "github.com", Secondary: "ari@example.com"},
	}
}

func TestEmptyQueryKeepsListingOrder(t *testing.T) {
	s := NewSession("Find", true, demoItems())

	ranked := s.Ranked()
	require.Len(t, ranked, 5)
	for i, m := range ranked {
		assert.Equal(t, demoItems()[i].ID, m.Item.ID)
	}
}

func TestSubsequenceFiltering(t *testing.T) {
	s := NewSession("Find", true, demoItems())

	for _, r := range "lgn" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.NotEmpty(t, ranked)
	assert.Equal(t, "4", ranked[0].Item.ID, "lgn subsequence-matches login")
	for _, m := range ranked {
		assert.NotEqual(t, "2", m.Item.ID, "README has no lgn subsequence")
	}
}

func TestPrefixOutranksLaterMatch(t *testing.T) {
	items := []Item{
		{ID: "a", Primary: "my get-user call"},
		{ID: "b", Primary: "get-user"},
	}
	s := NewSession("Find", false, items)
	for _, r := range "get" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Item.ID, "exact prefix wins")
}

func TestContiguousRunOutranksScattered(t *testing.T) {
	items := []Item{
		{ID: "scattered", Primary: "x-a-x-b-x-c"},
		{ID: "contiguous", Primary: "x-abc-x"},
	}
	s := NewSession("Find", false, items)
	for _, r := range "abc" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, "contiguous", ranked[0].Item.ID)
}

func TestContiguousMatchBeatsEarlierScatteredStart(t *testing.T) {
	items := []Item{
		{ID: "scattered", Primary: "axb"},
		{ID: "late-run", Primary: "x-ab"},
	}
	s := NewSession("Find", false, items)
	for _, r := range "ab" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, "late-run", ranked[0].Item.ID,
		"a full contiguous run wins even when a scattered match starts earlier")
	assert.Equal(t, []int{2, 3}, ranked[0].Positions,
		"positions cover the contiguous occurrence, not the greedy one")
}

func TestShorterTextBreaksTies(t *testing.T) {
	items := []Item{
		{ID: "long", Primary: "note about everything"},
		{ID: "short", Primary: "note"},
	}
	s := NewSession("Find", false, items)
	for _, r := range "note" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, "short", ranked[0].Item.ID)
}

func TestSecondaryTextFallback(t *testing.T) {
	s := NewSession("Find", true, demoItems())
	for _, r := range "screenshot" {
		s.Type(r)
	}

	ranked := s.Ranked()
	require.Len(t, ranked, 1)
	assert.Equal(t, "1", ranked[0].Item.ID)
}

func TestRankingIsIdempotent(t *testing.T) {
	a := NewSession("Find", true, demoItems())
	b := NewSession("Find", true, demoItems())
	for _, r := range "e" {
		a.Type(r)
		b.Type(r)
	}

	require.Equal(t, len(a.Ranked()), len(b.Ranked()))
	for i := range a.Ranked() {
		assert.Equal(t, a.Ranked()[i].Item.ID, b.Ranked()[i].Item.ID)
	}
}

func TestAppendingNeverRevivesDroppedItems(t *testing.T) {
	s := NewSession("Find", true, demoItems())

	s.Type('l')
	before := map[string]bool{}
	for _, m := range s.Ranked() {
		before[m.Item.ID] = true
	}

	s.Type('o')
	for _, m := range s.Ranked() {
		assert.True(t, before[m.Item.ID], "item %s matched 'lo' but not 'l'", m.Item.ID)
	}
}

func TestBackspaceRestoresCandidates(t *testing.T) {
	s := NewSession("Find", true, demoItems())

	s.Type('z')
	assert.Empty(t, s.Ranked())

	s.Backspace()
	assert.Len(t, s.Ranked(), 5)
	s.Backspace() // backspace on empty query is a no-op
	assert.Equal(t, "", s.Query())
}

func TestMoveWrapsSelection(t *testing.T) {
	s := NewSession("Find", true, demoItems())

	s.Move(-1)
	assert.Equal(t, 4, s.SelectedIndex(), "moving up from the top wraps to the bottom")

	s.Move(1)
	assert.Equal(t, 0, s.SelectedIndex())

	s.Move(7)
	assert.Equal(t, 2, s.SelectedIndex(), "movement is modulo the result count")
}

func TestConfirmWithNoResultsIsNoop(t *testing.T) {
	s := NewSession("Find", true, demoItems())
	for _, r := range "zzz" {
		s.Type(r)
	}

	_, ok := s.Confirm()
	assert.False(t, ok)

	s.Move(1) // no-op with zero results
	assert.Equal(t, 0, s.SelectedIndex())
}

func TestConfirmReturnsOwningTool(t *testing.T) {
	s := NewSession("Find", true, demoItems())
	for _, r := range "github" {
		s.Type(r)
	}

	item, ok := s.Confirm()
	require.True(t, ok)
	assert.Equal(t, "Vault", item.Tool)
	assert.Equal(t, "5", item.ID)
}

func TestMatchPositionsCoverQuery(t *testing.T) {
	pos, ok := subsequence("gu", "get-user")
	require.True(t, ok)
	assert.Equal(t, []int{0, 4}, pos)

	_, ok = subsequence("xyz", "get-user")
	assert.False(t, ok)
}
