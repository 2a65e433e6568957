package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayerStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected PlayerStatus
	}{
		{"", StatusActive},
		{"Active", StatusActive},
		{"probable", StatusActive},
		{"Out", StatusOut},
		{"Doubtful", StatusDoubtful},
		{"Questionable", StatusQuestionable},
		{"Day-To-Day", StatusQuestionable},
		{"Inactive", StatusInactive},
		{"G League - Two-Way", StatusInactive},
		{"Suspension", StatusInactive},
		{"OFS", StatusInactive},
		{"something new", StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePlayerStatus(tt.raw))
		})
	}
}

func TestPlayerStatusExcluded(t *testing.T) {
	assert.True(t, StatusOut.Excluded())
	assert.True(t, StatusDoubtful.Excluded())
	assert.True(t, StatusInactive.Excluded())
	assert.False(t, StatusQuestionable.Excluded())
	assert.False(t, StatusActive.Excluded())
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2026, Month: time.October, Day: 17}, d)
	assert.Equal(t, "2026-10-17", d.String())

	data, err := json.Marshal(struct {
		D Date `json:"d"`
	}{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-10-17"}`, string(data))

	_, err = ParseDate("10/17/2026")
	assert.Error(t, err)
}

func TestDateIn(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 18th is still the 17th in New York.
	instant := time.Date(2026, time.October, 18, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-18", DateIn(instant, time.UTC).String())
	assert.Equal(t, "2026-10-17", DateIn(instant, ny).String())

	d := Date{Year: 2026, Month: time.October, Day: 17}
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.Equal(t, ny, d.Start(ny).Location())
}

func TestSnapshotDecodeNormalizesStatuses(t *testing.T) {
	raw := `{
		"schedule": [{"game_id": "g1", "home_team_id": "BOS", "away_team_id": "NYK", "tipoff_time": "2026-10-17T23:30:00Z"}],
		"injuries": {"BOS": {"p1": "Out"}, "NYK": {"p2": "G League - On Assignment"}},
		"lineups": {"BOS": ["p1"], "NYK": ["p2"]},
		"markets": [{"market_id": "m1", "game_id": "g1", "market_type": "SPREAD", "side": "HOME", "price": {"format": "american", "value": -110}, "line_value": -4.5}],
		"fetched_at": "2026-10-17T15:00:00Z",
		"data_date": "2026-10-17"
	}`

	var snap DataSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	assert.Equal(t, StatusOut, snap.Injuries["BOS"]["p1"])
	assert.Equal(t, StatusInactive, snap.Injuries["NYK"]["p2"])
	assert.Equal(t, "2026-10-17", snap.DataDate.String())
	assert.Equal(t, -4.5, snap.Markets[0].Line())
	assert.Equal(t, "-110", snap.Markets[0].Price.String())
	assert.Equal(t, []string{"BOS", "NYK"}, snap.ScheduledTeams())

	game, ok := snap.GameByID("g1")
	require.True(t, ok)
	assert.Equal(t, "NYK at BOS", game.Matchup())
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("+145")
	require.NoError(t, err)
	assert.Equal(t, OddsAmerican, p.Format)
	assert.Equal(t, "+145", p.String())

	p, err = ParsePrice("-110")
	require.NoError(t, err)
	assert.Equal(t, OddsAmerican, p.Format)

	p, err = ParsePrice("1.91")
	require.NoError(t, err)
	assert.Equal(t, OddsDecimal, p.Format)

	_, err = ParsePrice("")
	assert.ErrorIs(t, err, ErrInvalidOdds)
	_, err = ParsePrice("abc")
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestPriceAcceptsBareQuotes(t *testing.T) {
	raw := `[
		{"market_id": "a", "price": "-110"},
		{"market_id": "b", "price": "+145"},
		{"market_id": "c", "price": 1.91},
		{"market_id": "d", "price": -120},
		{"market_id": "e", "price": {"format": "decimal", "value": "2.05"}}
	]`

	var lines []MarketLine
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))
	require.Len(t, lines, 5)

	assert.Equal(t, AmericanPrice(-110).String(), lines[0].Price.String())
	assert.Equal(t, OddsAmerican, lines[1].Price.Format)
	assert.Equal(t, "+145", lines[1].Price.String())
	assert.Equal(t, OddsDecimal, lines[2].Price.Format)
	assert.Equal(t, "1.91", lines[2].Price.String())
	assert.Equal(t, OddsAmerican, lines[3].Price.Format)
	assert.Equal(t, OddsDecimal, lines[4].Price.Format)
	assert.Equal(t, "2.05", lines[4].Price.String())

	var bad MarketLine
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"price": "evens"}`), &bad), ErrInvalidOdds)
}

func TestPriceRoundTripsThroughJSON(t *testing.T) {
	data, err := json.Marshal(AmericanPrice(-110))
	require.NoError(t, err)

	var p Price
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, OddsAmerican, p.Format)
	assert.Equal(t, "-110", p.String())
}

func TestTeamRatingsPreferRecent(t *testing.T) {
	recent := 120.0
	r := TeamRatings{OffRating: 110, DefRating: 112, Pace: 99, OffRatingLast10: &recent}
	assert.True(t, r.Complete())
	assert.Equal(t, 120.0, r.Offense())
	assert.Equal(t, 112.0, r.Defense())
	assert.Equal(t, 99.0, r.Possessions())
	assert.False(t, TeamRatings{OffRating: 110}.Complete())
}

func TestAddFlagKeepsSortedSet(t *testing.T) {
	var flags []ConfidenceFlag
	flags = AddFlag(flags, FlagUnverified)
	flags = AddFlag(flags, FlagLowSample)
	flags = AddFlag(flags, FlagUnverified)
	assert.Equal(t, []ConfidenceFlag{FlagLowSample, FlagUnverified}, flags)
	assert.True(t, HasFlag(flags, FlagLowSample))
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &DataUnavailableError{Issues: []string{"schedule empty"}}
	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.Contains(t, err.Error(), "schedule empty")

	err = &OverrideRejectedError{Today: Date{2026, 10, 17}, Requested: Date{2026, 10, 16}}
	assert.True(t, errors.Is(err, ErrOverrideRejected))

	err = &MissingInputError{MarketID: "m1", Input: "role_share"}
	assert.True(t, errors.Is(err, ErrMissingModelInput))
	assert.False(t, errors.Is(err, ErrDataUnavailable))
}
