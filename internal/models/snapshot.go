package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlayerStatus is the availability designation published on the injury report.
type PlayerStatus string

// Player availability designations
const (
	StatusActive       PlayerStatus = "ACTIVE"
	StatusOut          PlayerStatus = "OUT"
	StatusDoubtful     PlayerStatus = "DOUBTFUL"
	StatusQuestionable PlayerStatus = "QUESTIONABLE"
	StatusInactive     PlayerStatus = "INACTIVE"
)

// ParsePlayerStatus normalizes a provider status string. Designations that keep
// a player off the floor (G League assignment, suspension, out for season) map
// to INACTIVE; anything unrecognized is treated as ACTIVE.
func ParsePlayerStatus(raw string) PlayerStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusActive
	case strings.Contains(s, "DOUBTFUL"):
		return StatusDoubtful
	case strings.Contains(s, "QUESTIONABLE"), strings.Contains(s, "GTD"), strings.Contains(s, "DAY-TO-DAY"):
		return StatusQuestionable
	case strings.Contains(s, "INACTIVE"), strings.Contains(s, "G LEAGUE"),
		strings.Contains(s, "SUSPENSION"), strings.Contains(s, "OFS"):
		return StatusInactive
	case strings.Contains(s, "OUT"):
		return StatusOut
	case strings.Contains(s, "ACTIVE"), strings.Contains(s, "PROBABLE"), strings.Contains(s, "AVAILABLE"):
		return StatusActive
	default:
		return StatusActive
	}
}

// Excluded reports whether the status rules a player out of consideration.
func (s PlayerStatus) Excluded() bool {
	switch s {
	case StatusOut, StatusDoubtful, StatusInactive:
		return true
	default:
		return false
	}
}

// UnmarshalText normalizes raw provider strings on decode.
func (s *PlayerStatus) UnmarshalText(text []byte) error {
	*s = ParsePlayerStatus(string(text))
	return nil
}

// MarketType identifies the kind of proposition a market line prices.
type MarketType string

// Supported market types
const (
	MarketSpread     MarketType = "SPREAD"
	MarketMoneyline  MarketType = "MONEYLINE"
	MarketTotal      MarketType = "TOTAL"
	MarketTeamTotal  MarketType = "TEAM_TOTAL"
	MarketPlayerProp MarketType = "PLAYER_PROP"
)

// Side is the outcome a market line pays on.
type Side string

// Market sides
const (
	SideHome  Side = "HOME"
	SideAway  Side = "AWAY"
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// StatKind is the box-score statistic a player prop is written on.
type StatKind string

// Player prop statistics
const (
	StatPoints   StatKind = "POINTS"
	StatRebounds StatKind = "REBOUNDS"
	StatAssists  StatKind = "ASSISTS"
	StatThrees   StatKind = "THREES"
	StatPRA      StatKind = "PRA"
)

// OddsFormat names the convention a price is quoted in.
type OddsFormat string

// Odds formats
const (
	OddsAmerican OddsFormat = "american"
	OddsDecimal  OddsFormat = "decimal"
)

// Price is a quoted price in either American or decimal convention.
type Price struct {
	Format OddsFormat      `json:"format"`
	Value  decimal.Decimal `json:"value"`
}

// AmericanPrice builds a price from American odds such as -110 or +145.
func AmericanPrice(american int64) Price {
	return Price{Format: OddsAmerican, Value: decimal.NewFromInt(american)}
}

// DecimalPrice builds a price from decimal odds such as 1.91.
func DecimalPrice(dec float64) Price {
	return Price{Format: OddsDecimal, Value: decimal.NewFromFloat(dec)}
}

var hundred = decimal.NewFromInt(100)

// ParsePrice reads a price string. A leading sign ("+145", "-110") or a magnitude
// of at least 100 is taken as American odds; anything else as decimal odds.
// Range checks are left to the odds package.
func ParsePrice(raw string) (Price, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Price{}, fmt.Errorf("%w: empty price", ErrInvalidOdds)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q: %v", ErrInvalidOdds, raw, err)
	}
	p := Price{Format: OddsDecimal, Value: d}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") || d.Abs().GreaterThanOrEqual(hundred) {
		p.Format = OddsAmerican
	}
	return p, nil
}

// UnmarshalJSON accepts {"format":..,"value":..} as well as a bare quote such
// as "-110", "+145", 1.91 or -110.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*p = Price{}
		return nil
	case data[0] == '{':
		type plain Price
		var v plain
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*p = Price(v)
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	parsed, err := ParsePrice(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Price) String() string {
	if p.Format == OddsAmerican && p.Value.IsPositive() {
		return "+" + p.Value.String()
	}
	return p.Value.String()
}

// Game is a scheduled fixture.
type Game struct {
	GameID     string    `json:"game_id"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	TipoffTime time.Time `json:"tipoff_time"`
}

// Matchup renders the game as "AWAY at HOME".
func (g Game) Matchup() string {
	return fmt.Sprintf("%s at %s", g.AwayTeamID, g.HomeTeamID)
}

// HasTeam reports whether teamID plays in g.
func (g Game) HasTeam(teamID string) bool {
	return teamID == g.HomeTeamID || teamID == g.AwayTeamID
}

// Player is a rostered player with the fields eligibility depends on.
type Player struct {
	PlayerID          string       `json:"player_id"`
	Name              string       `json:"name,omitempty"`
	TeamID            string       `json:"team_id"`
	Status            PlayerStatus `json:"status,omitempty"`
	RecentAppearances int          `json:"recent_appearances"`
}

// MarketLine is a single priced outcome offered by a bookmaker.
type MarketLine struct {
	MarketID   string     `json:"market_id"`
	GameID     string     `json:"game_id"`
	MarketType MarketType `json:"market_type"`
	Side       Side       `json:"side"`
	Price      Price      `json:"price"`
	LineValue  *float64   `json:"line_value"`
	TeamID     string     `json:"team_id,omitempty"`
	PlayerID   string     `json:"player_id,omitempty"`
	Stat       StatKind   `json:"stat,omitempty"`
	Bookmaker  string     `json:"bookmaker,omitempty"`
}

// Line returns the line value, or zero when the market has none.
func (m MarketLine) Line() float64 {
	if m.LineValue == nil {
		return 0
	}
	return *m.LineValue
}

// TeamRatings are per-100-possession efficiency and pace figures for a team.
// Last-10 values take precedence when present.
type TeamRatings struct {
	OffRating       float64  `json:"off_rating"`
	DefRating       float64  `json:"def_rating"`
	Pace            float64  `json:"pace"`
	OffRatingLast10 *float64 `json:"off_rating_last10,omitempty"`
	DefRatingLast10 *float64 `json:"def_rating_last10,omitempty"`
	PaceLast10      *float64 `json:"pace_last10,omitempty"`
}

// Complete reports whether the season ratings needed for projection exist.
func (r TeamRatings) Complete() bool {
	return r.OffRating > 0 && r.DefRating > 0 && r.Pace > 0
}

// Offense returns the preferred offensive rating.
func (r TeamRatings) Offense() float64 { return preferRecent(r.OffRatingLast10, r.OffRating) }

// Defense returns the preferred defensive rating.
func (r TeamRatings) Defense() float64 { return preferRecent(r.DefRatingLast10, r.DefRating) }

// Possessions returns the preferred pace.
func (r TeamRatings) Possessions() float64 { return preferRecent(r.PaceLast10, r.Pace) }

func preferRecent(recent *float64, season float64) float64 {
	if recent != nil && *recent > 0 {
		return *recent
	}
	return season
}

// StatLine is the recent-form distribution of one statistic.
type StatLine struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
}

// PlayerForm holds recent-game production used by prop models.
type PlayerForm struct {
	Stats           map[StatKind]StatLine `json:"stats"`
	GamesSampled    int                   `json:"games_sampled"`
	RoleShare       *float64              `json:"role_share,omitempty"`
	MinutesVerified bool                  `json:"minutes_verified"`
}

// DataSnapshot is one run's worth of fetched live data.
type DataSnapshot struct {
	Schedule    []Game                             `json:"schedule"`
	Injuries    map[string]map[string]PlayerStatus `json:"injuries"`
	Lineups     map[string][]string                `json:"lineups"`
	Markets     []MarketLine                       `json:"markets"`
	FetchedAt   time.Time                          `json:"fetched_at"`
	DataDate    Date                               `json:"data_date"`
	Players     map[string]Player                  `json:"players,omitempty"`
	TeamRatings map[string]TeamRatings             `json:"team_ratings,omitempty"`
	PlayerForm  map[string]PlayerForm              `json:"player_form,omitempty"`
}

// GameByID returns the scheduled game with the given ID.
func (s *DataSnapshot) GameByID(gameID string) (Game, bool) {
	for _, g := range s.Schedule {
		if g.GameID == gameID {
			return g, true
		}
	}
	return Game{}, false
}

// ScheduledTeams returns every team on the schedule in schedule order.
func (s *DataSnapshot) ScheduledTeams() []string {
	seen := make(map[string]bool, len(s.Schedule)*2)
	teams := make([]string, 0, len(s.Schedule)*2)
	for _, g := range s.Schedule {
		for _, t := range []string{g.HomeTeamID, g.AwayTeamID} {
			if !seen[t] {
				seen[t] = true
				teams = append(teams, t)
			}
		}
	}
	return teams
}
