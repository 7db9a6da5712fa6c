package telescope

import (
	"sort"
	"strings"
)

// Item is one searchable entry contributed by a tool. The core never
// interprets ID; it is handed back verbatim on confirmation.
type Item struct {
	Tool      string // owning tool title
	ID        string // opaque item identifier
	Primary   string // main display/match text
	Secondary string // optional description, matched as fallback
}

// Match is a ranked item with the positions that matched the query,
// for highlighting.
type Match struct {
	Item      Item
	Positions []int
	score     score
}

// score orders matches: exact prefix first, then longest contiguous
// run, then earliest start offset, then shortest text. Ties beyond
// that keep the original listing order (the sort is stable).
type score struct {
	prefix bool
	run    int
	start  int
	length int
}

func (s score) better(other score) bool {
	if s.prefix != other.prefix {
		return s.prefix
	}
	if s.run != other.run {
		return s.run > other.run
	}
	if s.start != other.start {
		return s.start < other.start
	}
	return s.length < other.length
}

// Session is one open telescope overlay: a snapshot of candidates, a
// live query, and a wrapped selection. It exists only while the
// overlay is open; Confirm or Cancel ends it.
type Session struct {
	title    string
	global   bool
	items    []Item
	query    []rune
	ranked   []Match
	selected int
}

// NewSession snapshots the candidate items for one overlay lifetime.
// With an empty query all items rank in listing order.
func NewSession(title string, global bool, items []Item) *Session {
	s := &Session{title: title, global: global, items: items}
	s.rerank()
	return s
}

// Title returns the overlay title.
func (s *Session) Title() string { return s.title }

// Global reports whether the session spans all tools.
func (s *Session) Global() bool { return s.global }

// Query returns the current query text.
func (s *Session) Query() string { return string(s.query) }

// Ranked returns the current ranked matches.
func (s *Session) Ranked() []Match { return s.ranked }

// SelectedIndex returns the cursor position within the ranked results.
func (s *Session) SelectedIndex() int { return s.selected }

// Type appends a character to the query and re-ranks.
func (s *Session) Type(r rune) {
	s.query = append(s.query, r)
	s.rerank()
}

// Backspace removes the last query character and re-ranks.
func (s *Session) Backspace() {
	if len(s.query) == 0 {
		return
	}
	s.query = s.query[:len(s.query)-1]
	s.rerank()
}

// Move shifts the selection by delta, wrapping modulo the ranked
// count. With no results it is a no-op.
func (s *Session) Move(delta int) {
	n := len(s.ranked)
	if n == 0 {
		return
	}
	s.selected = ((s.selected+delta)%n + n) % n
}

// Selected returns the item under the cursor, if any.
func (s *Session) Selected() (Item, bool) {
	if s.selected < 0 || s.selected >= len(s.ranked) {
		return Item{}, false
	}
	return s.ranked[s.selected].Item, true
}

// Confirm resolves the session to the selected item. Confirming with
// no ranked results is a recoverable no-op.
func (s *Session) Confirm() (Item, bool) {
	return s.Selected()
}

// rerank rebuilds the ranked list from the snapshot. O(candidates ×
// query length) per keystroke; fine at interactive item counts, and
// the session API hides the scorer so an incremental index could be
// swapped in without changing behavior.
func (s *Session) rerank() {
	s.ranked = s.ranked[:0]
	query := strings.ToLower(string(s.query))
	for _, it := range s.items {
		if m, ok := matchItem(query, it); ok {
			s.ranked = append(s.ranked, m)
		}
	}
	sort.SliceStable(s.ranked, func(i, j int) bool {
		return s.ranked[i].score.better(s.ranked[j].score)
	})
	if s.selected >= len(s.ranked) {
		s.selected = 0
	}
}

// matchItem scores an item against a lowercased query. The query must
// be a case-insensitive subsequence of the primary text or, failing
// that, of the secondary text.
func matchItem(query string, it Item) (Match, bool) {
	if query == "" {
		return Match{Item: it}, true
	}
	if pos, ok := subsequence(query, it.Primary); ok {
		return Match{Item: it, Positions: pos, score: scoreOf(query, it.Primary, pos)}, true
	}
	if pos, ok := subsequence(query, it.Secondary); ok {
		return Match{Item: it, Positions: pos, score: scoreOf(query, it.Secondary, pos)}, true
	}
	return Match{}, false
}

// subsequence finds case-insensitive subsequence positions of query
// within text. A contiguous occurrence of the whole query dominates
// every other alignment on the run term, so the earliest one wins when
// it exists. Otherwise the positions are the greedy earliest
// alignment; partial runs are scored over that alignment, not over the
// best possible one.
func subsequence(query, text string) ([]int, bool) {
	if text == "" {
		return nil, false
	}
	lower := []rune(strings.ToLower(text))
	q := []rune(query)
	if start, ok := contiguousAt(q, lower); ok {
		positions := make([]int, len(q))
		for i := range positions {
			positions[i] = start + i
		}
		return positions, true
	}
	positions := make([]int, 0, len(q))
	next := 0
	for _, qr := range q {
		found := false
		for i := next; i < len(lower); i++ {
			if lower[i] == qr {
				positions = append(positions, i)
				next = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return positions, true
}

// contiguousAt returns the start of the earliest contiguous occurrence
// of q within lower.
func contiguousAt(q, lower []rune) (int, bool) {
	if len(q) == 0 || len(q) > len(lower) {
		return 0, false
	}
	for start := 0; start+len(q) <= len(lower); start++ {
		match := true
		for i, qr := range q {
			if lower[start+i] != qr {
				match = false
				break
			}
		}
		if match {
			return start, true
		}
	}
	return 0, false
}

func scoreOf(query, text string, positions []int) score {
	return score{
		prefix: strings.HasPrefix(strings.ToLower(text), query),
		run:    longestRun(positions),
		start:  positions[0],
		length: len([]rune(text)),
	}
}

// longestRun returns the length of the longest consecutive stretch of
// matched positions.
func longestRun(positions []int) int {
	best, cur := 1, 1
	for i := 1; i < len(positions); i++ {
		if positions[i] == positions[i-1]+1 {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 1
		}
	}
	return best
}
