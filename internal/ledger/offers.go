package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// acréscimos e odds fixas dos mercados de props
var (
	firstKillMargin  = decimal.RequireFromString("0.5")
	firstTowerMargin = decimal.RequireFromString("0.3")
	mostKillsOdds    = decimal.RequireFromString("2.5")
	mvpPlayerOdds    = decimal.RequireFromString("2.2")
)

var betTypes = []BetType{BetMatchWinner, BetFirstKill, BetFirstTower, BetMostKills, BetMVPPlayer}

// OfferedOdds devolve a odd que o servidor oferece para (tipo, seleção).
// Props só aceitam team_a ou team_b; empate só existe em match_winner com draw_odds.
func OfferedOdds(o BettingOdds, t BetType, s Selection) (decimal.Decimal, error) {
	if t == BetMatchWinner {
		odds, ok := o.For(s)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: no %s odds offered", ErrInvalidSelection, s)
		}
		return odds, nil
	}
	if s != TeamA && s != TeamB {
		return decimal.Zero, fmt.Errorf("%w: %s bets are team only", ErrInvalidSelection, t)
	}

	team, _ := o.For(s)
	switch t {
	case BetFirstKill:
		return team.Add(firstKillMargin), nil
	case BetFirstTower:
		return team.Add(firstTowerMargin), nil
	case BetMostKills:
		return mostKillsOdds, nil
	case BetMVPPlayer:
		return mvpPlayerOdds, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown bet type %q", ErrInvalidSelection, t)
}

// Offers lista todas as combinações apostáveis, na ordem do cardápio
func (o BettingOdds) Offers() []Offer {
	var out []Offer
	for _, t := range betTypes {
		for _, s := range []Selection{TeamA, TeamB, Draw} {
			odds, err := OfferedOdds(o, t, s)
			if err != nil {
				continue
			}
			out = append(out, Offer{BetType: t, Selection: s, Odds: odds})
		}
	}
	return out
}
