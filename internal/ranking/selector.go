package ranking

import (
	"sort"

	"github.com/yourusername/quant-edge/internal/models"
)

// Selection defaults
const (
	DefaultMinEdge  = 0.03
	DefaultMaxPlays = 10
)

// Selector keeps the strongest edges.
type Selector struct {
	MinEdge  float64
	MaxPlays int
}

// NewSelector returns a selector with the default threshold and cap.
func NewSelector() *Selector {
	return &Selector{MinEdge: DefaultMinEdge, MaxPlays: DefaultMaxPlays}
}

// Select filters records below MinEdge, orders the rest by edge descending with
// market_id ascending on ties, and returns at most MaxPlays. The input slice is
// not modified.
func (s *Selector) Select(records []models.EdgeRecord) []models.EdgeRecord {
	minEdge, maxPlays := s.MinEdge, s.MaxPlays
	if maxPlays <= 0 {
		maxPlays = DefaultMaxPlays
	}

	plays := make([]models.EdgeRecord, 0, len(records))
	for _, r := range records {
		if r.Edge >= minEdge {
			plays = append(plays, r)
		}
	}

	sort.SliceStable(plays, func(i, j int) bool {
		if plays[i].Edge != plays[j].Edge {
			return plays[i].Edge > plays[j].Edge
		}
		return plays[i].MarketID < plays[j].MarketID
	})

	if len(plays) > maxPlays {
		plays = plays[:maxPlays]
	}
	return plays
}
