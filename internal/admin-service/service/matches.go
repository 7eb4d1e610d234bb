package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	settlement "github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

type MatchInput struct {
	TeamA        string
	TeamB        string
	TeamALogo    string
	TeamBLogo    string
	MatchTime    time.Time
	TournamentID string
}

// MatchPatch altera só os campos não nil
type MatchPatch struct {
	Status    *ledger.MatchStatus
	Winner    *ledger.Selection
	MatchTime *time.Time
	TeamALogo *string
	TeamBLogo *string
}

type OddsInput struct {
	TeamA decimal.Decimal
	TeamB decimal.Decimal
	Draw  decimal.NullDecimal
}

// CreateMatch cadastra uma partida upcoming
func (s *Service) CreateMatch(ctx context.Context, actor ledger.Actor, in MatchInput) (*ledger.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in.TeamA, in.TeamB = strings.TrimSpace(in.TeamA), strings.TrimSpace(in.TeamB)
	if in.TeamA == "" || in.TeamB == "" || strings.EqualFold(in.TeamA, in.TeamB) {
		return nil, fmt.Errorf("%w: two distinct teams required", ledger.ErrInvalidSelection)
	}

	m := &ledger.Match{
		TeamA:        in.TeamA,
		TeamB:        in.TeamB,
		TeamALogo:    in.TeamALogo,
		TeamBLogo:    in.TeamBLogo,
		MatchTime:    in.MatchTime,
		TournamentID: in.TournamentID,
		Status:       ledger.MatchUpcoming,
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error { return tx.InsertMatch(ctx, m) }); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.log.Info("match created", zap.String("match_id", m.ID), zap.String("team_a", m.TeamA), zap.String("team_b", m.TeamB))
	s.broadcastMatch(ctx, m)
	return m, nil
}

// UpdateMatch aplica a máquina de estados upcoming -> live -> completed, upcoming|live -> cancelled.
// O vencedor só existe em completed e é obrigatório ali.
func (s *Service) UpdateMatch(ctx context.Context, actor ledger.Actor, id string, p MatchPatch) (*ledger.Match, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		out      *ledger.Match
		finished bool
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		m, err := tx.LockMatch(ctx, id)
		if err != nil {
			return err
		}

		next := m.Status
		if p.Status != nil {
			next = *p.Status
		}
		if !next.Valid() {
			return fmt.Errorf("%w: unknown status %q", ledger.ErrInvalidStateTransition, next)
		}
		if p.Status != nil {
			if err := ledger.CheckMatchTransition(m.Status, next); err != nil {
				return err
			}
		} else if !m.Status.Open() && (p.MatchTime != nil || p.Winner != nil) {
			return fmt.Errorf("%w: match is %s", ledger.ErrInvalidStateTransition, m.Status)
		}

		winner := m.Winner
		if p.Winner != nil {
			winner = *p.Winner
		}
		switch {
		case next == ledger.MatchCompleted && !winner.Valid():
			return fmt.Errorf("%w: completed match needs a winner", ledger.ErrInvalidSelection)
		case next != ledger.MatchCompleted && winner != "":
			return fmt.Errorf("%w: winner only allowed on completed matches", ledger.ErrInvalidStateTransition)
		}

		finished = m.Status.Open() && !next.Open()
		m.Status = next
		m.Winner = winner
		if p.MatchTime != nil {
			m.MatchTime = *p.MatchTime
		}
		if p.TeamALogo != nil {
			m.TeamALogo = *p.TeamALogo
		}
		if p.TeamBLogo != nil {
			m.TeamBLogo = *p.TeamBLogo
		}
		if err := tx.UpdateMatch(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}

	s.log.Info("match updated",
		zap.String("match_id", out.ID), zap.String("status", string(out.Status)), zap.String("winner", string(out.Winner)))
	s.broadcastMatch(ctx, out)
	if finished {
		s.afterCommit(ctx, "match_completed", func(ctx context.Context) error {
			return s.notify.PublishMatchCompleted(ctx, events.MatchCompleted{
				MatchID: out.ID,
				Status:  string(out.Status),
				Winner:  string(out.Winner),
				Ts:      out.UpdatedAt,
			})
		})
	}
	return out, nil
}

// SetOdds substitui as odds ativas da partida; a linha anterior fica inativa
func (s *Service) SetOdds(ctx context.Context, actor ledger.Actor, matchID string, in OddsInput) (*ledger.BettingOdds, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	for _, o := range []decimal.Decimal{in.TeamA, in.TeamB} {
		if err := ledger.ValidateOfferedOdds(o); err != nil {
			return nil, err
		}
	}
	if in.Draw.Valid {
		if err := ledger.ValidateOfferedOdds(in.Draw.Decimal); err != nil {
			return nil, err
		}
	}

	o := &ledger.BettingOdds{MatchID: matchID, TeamAOdds: in.TeamA, TeamBOdds: in.TeamB, DrawOdds: in.Draw}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		m, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if !m.Status.Open() {
			return fmt.Errorf("%w: match is %s", ledger.ErrMatchClosed, m.Status)
		}
		return tx.ReplaceOdds(ctx, o)
	})
	if err != nil {
		return nil, fmt.Errorf("set odds: %w", err)
	}

	s.log.Info("odds replaced", zap.String("match_id", matchID),
		zap.String("team_a", o.TeamAOdds.StringFixed(2)), zap.String("team_b", o.TeamBOdds.StringFixed(2)))
	s.afterCommit(ctx, "broadcast", func(ctx context.Context) error {
		return s.notify.Broadcast(ctx, events.MatchUpdate{
			MatchID:   matchID,
			Kind:      "odds",
			Odds:      &events.Odds{TeamA: o.TeamAOdds, TeamB: o.TeamBOdds, Draw: o.DrawOdds},
			UpdatedAt: o.UpdatedAt,
		})
	})
	return o, nil
}

// CloseOdds desativa as odds da partida; novas apostas passam a ser recusadas
func (s *Service) CloseOdds(ctx context.Context, actor ledger.Actor, matchID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.LockMatch(ctx, matchID); err != nil {
			return err
		}
		return tx.DeactivateOdds(ctx, matchID)
	})
	if err != nil {
		return fmt.Errorf("close odds: %w", err)
	}

	s.log.Info("odds closed", zap.String("match_id", matchID))
	s.afterCommit(ctx, "broadcast", func(ctx context.Context) error {
		return s.notify.Broadcast(ctx, events.MatchUpdate{MatchID: matchID, Kind: "odds_closed", UpdatedAt: s.now()})
	})
	return nil
}

// SettleMatch roda a liquidação da partida de forma síncrona; repetir é seguro
func (s *Service) SettleMatch(ctx context.Context, actor ledger.Actor, matchID string) (*settlement.Result, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.settler == nil {
		return nil, errors.New("settlement not configured")
	}
	return s.settler.SettleMatch(ctx, matchID)
}

// SettleBet resolve uma aposta de props manualmente
func (s *Service) SettleBet(ctx context.Context, actor ledger.Actor, betID string, outcome ledger.BetStatus) (*ledger.Bet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.settler == nil {
		return nil, errors.New("settlement not configured")
	}
	return s.settler.SettleBet(ctx, actor, betID, outcome)
}

func (s *Service) broadcastMatch(ctx context.Context, m *ledger.Match) {
	s.afterCommit(ctx, "broadcast", func(ctx context.Context) error {
		return s.notify.Broadcast(ctx, events.MatchUpdate{
			MatchID:   m.ID,
			Kind:      "match",
			Status:    string(m.Status),
			Winner:    string(m.Winner),
			UpdatedAt: m.UpdatedAt,
		})
	})
}
