// Package recommend ranks football players by the cosine similarity of their
// standardized skill vectors.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/scoutlab/internal/domain/preprocess"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type entry struct {
	player    Player
	foot      string
	overall   float64
	potential float64
	vector    []float64
	norm      float64
}

// Catalog is the immutable, standardized set of players eligible for
// recommendation. It is safe for concurrent use.
type Catalog struct {
	entries []entry
	index   map[int64]int
}

// BuildCatalog keeps the latest snapshot of every player, joins it to the
// identity rows in player order, derives passing, fills gaps with column
// medians and standardizes every feature over the joined set. Players without
// a snapshot are left out.
func BuildCatalog(players []Player, snapshots []Snapshot) (*Catalog, error) {
	latest := make(map[int64]int, len(snapshots))
	for i, s := range snapshots {
		cur, ok := latest[s.PlayerID]
		// ISO dates order lexicographically; on equal dates the later row wins.
		if !ok || s.Date >= snapshots[cur].Date {
			latest[s.PlayerID] = i
		}
	}

	c := &Catalog{index: make(map[int64]int, len(players))}
	var raw [][]float64
	for _, p := range players {
		si, ok := latest[p.ID]
		if !ok {
			continue
		}
		if _, dup := c.index[p.ID]; dup {
			continue
		}
		s := snapshots[si]
		c.index[p.ID] = len(c.entries)
		c.entries = append(c.entries, entry{player: p, foot: s.PreferredFoot})
		raw = append(raw, rawVector(s))
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	col := make([]float64, len(raw))
	for f := range Features {
		for i := range raw {
			col[i] = raw[i][f]
		}
		fill := preprocess.Median(col)
		for i := range raw {
			if math.IsNaN(raw[i][f]) {
				raw[i][f] = fill
			}
			col[i] = raw[i][f]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		switch Features[f] {
		case "overall_rating":
			for i := range raw {
				c.entries[i].overall = raw[i][f]
			}
		case "potential":
			for i := range raw {
				c.entries[i].potential = raw[i][f]
			}
		}
		for i := range raw {
			raw[i][f] = (raw[i][f] - mean) / std
		}
	}
	for i := range c.entries {
		c.entries[i].vector = raw[i]
		c.entries[i].norm = floats.Norm(raw[i], 2)
	}
	return c, nil
}

func rawVector(s Snapshot) []float64 {
	v := make([]float64, len(Features))
	for f, name := range Features {
		if name == FeaturePassing {
			v[f] = (skill(s, FeatureShortPassing) + skill(s, FeatureLongPassing)) / 2
			continue
		}
		v[f] = skill(s, name)
	}
	return v
}

func skill(s Snapshot, name string) float64 {
	v, ok := s.Skills[name]
	if !ok {
		return math.NaN()
	}
	return v
}

// Len returns the number of players in the catalog.
func (c *Catalog) Len() int { return len(c.entries) }

// Player returns the identity row of a catalog player.
func (c *Catalog) Player(id int64) (Player, bool) {
	i, ok := c.index[id]
	if !ok {
		return Player{}, false
	}
	return c.entries[i].player, true
}

// Vector returns a copy of a player's standardized feature vector.
func (c *Catalog) Vector(id int64) ([]float64, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(c.entries[i].vector))
	copy(out, c.entries[i].vector)
	return out, true
}

// Similarity returns the cosine similarity of two catalog players.
func (c *Catalog) Similarity(a, b int64) (float64, error) {
	i, ok := c.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrPlayerNotFound, a)
	}
	j, ok := c.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrPlayerNotFound, b)
	}
	return c.cosine(i, j), nil
}

// cosine is 0 when either vector has zero length.
func (c *Catalog) cosine(i, j int) float64 {
	a, b := c.entries[i], c.entries[j]
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	return floats.Dot(a.vector, b.vector) / (a.norm * b.norm)
}

// Recommend returns up to k players most similar to the anchor, best first.
// The anchor is never included. Equal scores keep catalog order.
func (c *Catalog) Recommend(anchorID int64, k int) ([]Recommendation, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	a, ok := c.index[anchorID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, anchorID)
	}

	out := make([]Recommendation, 0, len(c.entries)-1)
	for i, e := range c.entries {
		if i == a {
			continue
		}
		out = append(out, Recommendation{
			PlayerID:      e.player.ID,
			Name:          e.player.Name,
			OverallRating: e.overall,
			Potential:     e.potential,
			PreferredFoot: e.foot,
			Score:         c.cosine(a, i),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// Search returns players whose "<name> - <id>" label contains query,
// case-insensitively, in catalog order. A non-positive limit returns every
// match; an empty query matches everyone.
func (c *Catalog) Search(query string, limit int) []Player {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Player, 0)
	for _, e := range c.entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(e.player.Label()), q) {
			out = append(out, e.player)
		}
	}
	return out
}
