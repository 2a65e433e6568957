package models

import (
	"sort"
	"time"
)

// ConfidenceFlag marks a reduced-confidence edge.
type ConfidenceFlag string

// Confidence flags
const (
	FlagUnverified ConfidenceFlag = "unverified"
	FlagLowSample  ConfidenceFlag = "low_sample"
)

// AddFlag inserts flag into a sorted, duplicate-free flag set.
func AddFlag(flags []ConfidenceFlag, flag ConfidenceFlag) []ConfidenceFlag {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	out := append(append([]ConfidenceFlag{}, flags...), flag)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasFlag reports whether flag is present.
func HasFlag(flags []ConfidenceFlag, flag ConfidenceFlag) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SimulationResult is the modeled probability for one market.
type SimulationResult struct {
	MarketID           string           `json:"market_id"`
	ModeledProbability float64          `json:"modeled_probability"`
	SampleCount        int              `json:"sample_count"`
	ConvergenceNote    string           `json:"convergence_note,omitempty"`
	ConfidenceFlags    []ConfidenceFlag `json:"confidence_flags,omitempty"`
	ProjectedScore     string           `json:"projected_score,omitempty"`
}

// EdgeRecord compares a modeled probability with the market's price.
type EdgeRecord struct {
	MarketID                 string           `json:"market_id"`
	GameID                   string           `json:"game_id"`
	Matchup                  string           `json:"matchup,omitempty"`
	MarketType               MarketType       `json:"market_type"`
	Side                     Side             `json:"side"`
	LineValue                *float64         `json:"line_value"`
	AmericanOdds             int              `json:"american_odds"`
	Bookmaker                string           `json:"bookmaker,omitempty"`
	Description              string           `json:"description"`
	ModeledProbability       float64          `json:"modeled_probability"`
	MarketImpliedProbability float64          `json:"market_implied_probability"`
	Edge                     float64          `json:"edge"`
	ConfidenceFlags          []ConfidenceFlag `json:"confidence_flags"`
	ProjectedScore           string           `json:"projected_score,omitempty"`
	Risk                     string           `json:"risk_level,omitempty"`
	Units                    float64          `json:"suggested_units,omitempty"`
	KeyDataReasons           []string         `json:"key_data_reasons,omitempty"`
}

// AltLine suggests a higher-payout alternate of a ranked play.
type AltLine struct {
	MarketID   string `json:"market_id"`
	Play       string `json:"play"`
	TargetOdds string `json:"target_odds"`
	Reason     string `json:"reason"`
}

// Parlay pairs two ranked plays. Matchup is "cross-game" when the legs come
// from different games.
type Parlay struct {
	MarketIDs     []string `json:"market_ids"`
	Legs          []string `json:"legs"`
	Matchup       string   `json:"matchup"`
	Justification string   `json:"justification"`
}

// ReportStatus is the terminal outcome of a run.
type ReportStatus string

// Report statuses
const (
	StatusOK                ReportStatus = "OK"
	StatusAbortedNoLiveData ReportStatus = "ABORTED_NO_LIVE_DATA"
	StatusNoQualifyingBets  ReportStatus = "NO_QUALIFYING_BETS"
)

// Fixed user-facing messages.
const (
	MsgLiveDataUnavailable = "Live data unavailable. Analysis aborted."
	MsgNoQualifyingBets    = "No positive expected value opportunities today."
	MsgOK                  = "ok"
	MsgInvalidDate         = "Invalid date format. Use YYYY-MM-DD."
)

// UnverifiedMarket records a market left unsimulated because an input was missing.
type UnverifiedMarket struct {
	MarketID string `json:"market_id"`
	Reason   string `json:"reason"`
}

// Game readiness notes
const (
	GameReady                     = "ready"
	GameInsufficientLineupData    = "insufficient_lineup_data"
	GameInsufficientActivePlayers = "insufficient_active_players"
	GameMissingMarketData         = "missing_market_data"
)

// GameNote records per-game readiness.
type GameNote struct {
	GameID          string `json:"game_id"`
	Matchup         string `json:"matchup"`
	Status          string `json:"status"`
	EligiblePlayers int    `json:"eligible_players"`
}

// Report is the single artifact a run produces.
type Report struct {
	RunDate            Date               `json:"run_date"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Status             ReportStatus       `json:"status"`
	Message            string             `json:"message"`
	Plays              []EdgeRecord       `json:"plays"`
	ManualOverrideUsed bool               `json:"manual_override_used"`
	Iterations         int                `json:"iterations,omitempty"`
	VigRemoval         string             `json:"vig_removal,omitempty"`
	ConfirmedGames     []string           `json:"confirmed_games,omitempty"`
	UnverifiedMarkets  []UnverifiedMarket `json:"unverified_markets,omitempty"`
	GameNotes          []GameNote         `json:"game_notes,omitempty"`
	AltLines           []AltLine          `json:"alt_line_high_upside,omitempty"`
	Parlay             *Parlay            `json:"correlated_parlay,omitempty"`
	Issues             []string           `json:"issues,omitempty"`
}
