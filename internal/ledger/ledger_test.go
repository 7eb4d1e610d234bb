package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountJSON(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{"number", `40`, "40", nil},
		{"decimal string", `"40.50"`, "40.5", nil},
		{"zero", `0`, "", ErrInvalidAmount},
		{"negative", `-5`, "", ErrInvalidAmount},
		{"non numeric", `"abc"`, "", ErrInvalidAmount},
		{"too many places", `10.001`, "", ErrInvalidAmount},
		{"null", `null`, "", ErrInvalidAmount},
		{"empty", ``, "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmountJSON(json.RawMessage(tc.raw))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestPotentialPayout(t *testing.T) {
	got := PotentialPayout(decimal.RequireFromString("40.00"), decimal.RequireFromString("2.5"))
	assert.True(t, got.Equal(decimal.RequireFromString("100")))

	got = PotentialPayout(decimal.RequireFromString("33.33"), decimal.RequireFromString("1.85"))
	assert.Equal(t, "61.6605", got.String())
}

func TestValidateOdds(t *testing.T) {
	assert.NoError(t, ValidateOdds(decimal.RequireFromString("1")))
	assert.ErrorIs(t, ValidateOdds(decimal.RequireFromString("0.99")), ErrInvalidOdds)
	assert.ErrorIs(t, ValidateOdds(decimal.RequireFromString("1.555")), ErrInvalidOdds)

	assert.NoError(t, ValidateOfferedOdds(decimal.RequireFromString("1.00")))
	assert.ErrorIs(t, ValidateOfferedOdds(decimal.RequireFromString("0.5")), ErrInvalidOdds)
	assert.ErrorIs(t, ValidateOfferedOdds(decimal.Zero), ErrInvalidOdds)
}

func TestValidatePayout(t *testing.T) {
	assert.NoError(t, ValidatePayout(decimal.RequireFromString("1000.00"), decimal.RequireFromString("2.50")))
	assert.ErrorIs(t, ValidatePayout(decimal.RequireFromString("999999999999.99"), decimal.RequireFromString("999.99")), ErrInvalidAmount)
}

func TestCheckWithdrawalTransition(t *testing.T) {
	allowed := [][2]WithdrawalStatus{
		{WithdrawalPending, WithdrawalApproved},
		{WithdrawalPending, WithdrawalRejected},
		{WithdrawalApproved, WithdrawalProcessed},
	}
	for _, tr := range allowed {
		assert.NoError(t, CheckWithdrawalTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]WithdrawalStatus{
		{WithdrawalApproved, WithdrawalApproved},
		{WithdrawalApproved, WithdrawalRejected},
		{WithdrawalPending, WithdrawalProcessed},
		{WithdrawalRejected, WithdrawalApproved},
		{WithdrawalRejected, WithdrawalProcessed},
		{WithdrawalProcessed, WithdrawalRejected},
		{WithdrawalProcessed, WithdrawalPending},
	}
	for _, tr := range denied {
		assert.ErrorIs(t, CheckWithdrawalTransition(tr[0], tr[1]), ErrInvalidStateTransition, "%s -> %s", tr[0], tr[1])
	}
}

func TestCheckMatchTransition(t *testing.T) {
	assert.NoError(t, CheckMatchTransition(MatchUpcoming, MatchLive))
	assert.NoError(t, CheckMatchTransition(MatchLive, MatchLive))
	assert.NoError(t, CheckMatchTransition(MatchLive, MatchCompleted))
	assert.ErrorIs(t, CheckMatchTransition(MatchCompleted, MatchLive), ErrInvalidStateTransition)
	assert.ErrorIs(t, CheckMatchTransition(MatchCompleted, MatchCompleted), ErrInvalidStateTransition)
	assert.ErrorIs(t, CheckMatchTransition(MatchLive, MatchUpcoming), ErrInvalidStateTransition)
}

func TestRemote(t *testing.T) {
	assert.Nil(t, Remote("op", nil))

	err := Remote("insert bet", errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.Equal(t, "insert bet: connection reset", err.Error())

	assert.Same(t, ErrNotFound, Remote("wallet", ErrNotFound))
	assert.False(t, errors.Is(Remote("wallet", ErrNotFound), ErrRemoteFailure))
}

func TestBettingOddsFor(t *testing.T) {
	o := BettingOdds{TeamAOdds: decimal.RequireFromString("1.8"), TeamBOdds: decimal.RequireFromString("2.1")}
	v, ok := o.For(TeamB)
	assert.True(t, ok)
	assert.Equal(t, "2.1", v.String())

	_, ok = o.For(Draw)
	assert.False(t, ok)

	o.DrawOdds = decimal.NewNullDecimal(decimal.RequireFromString("3.4"))
	v, ok = o.For(Draw)
	assert.True(t, ok)
	assert.Equal(t, "3.4", v.String())
}

func TestOfferedOdds(t *testing.T) {
	o := BettingOdds{
		TeamAOdds: decimal.RequireFromString("2.50"),
		TeamBOdds: decimal.RequireFromString("1.60"),
		IsActive:  true,
	}

	cases := []struct {
		t    BetType
		s    Selection
		want string
	}{
		{BetMatchWinner, TeamA, "2.5"},
		{BetFirstKill, TeamA, "3"},
		{BetFirstKill, TeamB, "2.1"},
		{BetFirstTower, TeamB, "1.9"},
		{BetMostKills, TeamA, "2.5"},
		{BetMVPPlayer, TeamB, "2.2"},
	}
	for _, tc := range cases {
		got, err := OfferedOdds(o, tc.t, tc.s)
		require.NoError(t, err, "%s/%s", tc.t, tc.s)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s/%s = %s", tc.t, tc.s, got)
	}

	_, err := OfferedOdds(o, BetMatchWinner, Draw)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	o.DrawOdds = decimal.NewNullDecimal(decimal.RequireFromString("3.40"))
	_, err = OfferedOdds(o, BetMatchWinner, Draw)
	assert.NoError(t, err)
	_, err = OfferedOdds(o, BetFirstKill, Draw)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	offers := o.Offers()
	assert.Len(t, offers, 11)
	assert.Equal(t, Offer{BetType: BetMatchWinner, Selection: TeamA, Odds: o.TeamAOdds}, offers[0])

	m := MatchWithOdds{Odds: &o}.WithOffers()
	assert.Len(t, m.Offers, 11)
	assert.Empty(t, MatchWithOdds{}.WithOffers().Offers)
}
