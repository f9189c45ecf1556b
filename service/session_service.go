package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/auth"
	"monkeybet/config"
	"monkeybet/games"
	"monkeybet/models"
)

// sessionService is the façade behind the web client's login and play calls
type sessionService struct {
	users  UserService
	ledger LedgerService
	rng    games.RandomSource
	now    func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(users UserService, ledger LedgerService, rng games.RandomSource) SessionService {
	return &sessionService{
		users:  users,
		ledger: ledger,
		rng:    rng,
		now:    time.Now,
	}
}

// Login accepts a signed assertion from the platform's login widget. The
// signature covers every submitted field, so nothing is trusted before
// Verify passes.
func (s *sessionService) Login(ctx context.Context, req LoginRequest) (*models.LoginResult, error) {
	cfg := config.Get()

	if !auth.Verify(req.Fields, req.Fields[auth.SignatureField], []byte(cfg.BotToken)) {
		log.WithField("id", req.Fields["id"]).Warn("Rejected login with invalid signature")
		return nil, fmt.Errorf("%w: invalid signature", ErrAuthenticationFailure)
	}

	if err := auth.CheckFreshness(req.Fields, s.now(), cfg.AuthMaxAge); err != nil {
		log.WithField("id", req.Fields["id"]).Warnf("Rejected login: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailure, err)
	}

	userID, err := strconv.ParseInt(req.Fields["id"], 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id %q", ErrAuthenticationFailure, req.Fields["id"])
	}

	user, created, err := s.users.GetOrCreateUser(ctx, userID, displayName(req.Fields), req.ReferrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &models.LoginResult{
		UserID:   user.ID,
		Username: user.Username,
		Redirect: cfg.LoginRedirect,
		Created:  created,
	}, nil
}

// PlaceBet resolves a round and settles it. The balance check happens inside
// settlement, so a round is never paid against a stale balance.
func (s *sessionService) PlaceBet(ctx context.Context, userID int64, variant models.GameVariant, bet decimal.Decimal) (*models.BetResult, error) {
	if _, ok := models.ParseGameVariant(string(variant)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, variant)
	}
	if err := ValidateBet(bet); err != nil {
		return nil, err
	}

	round, err := games.Resolve(variant, bet, s.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve round: %w", err)
	}

	txn, err := s.ledger.SettleRound(ctx, userID, round)
	if err != nil {
		return nil, err
	}

	return &models.BetResult{
		Round:         round,
		NewBalance:    txn.BalanceAfter,
		TransactionID: txn.ID,
	}, nil
}

// ValidateBet accepts positive stakes with at most two decimal places
func ValidateBet(bet decimal.Decimal) error {
	if !bet.IsPositive() {
		return fmt.Errorf("%w: bet must be positive", ErrInvalidBet)
	}
	if !hasAtMostPlaces(bet, userFacingPlaces) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidBet, userFacingPlaces)
	}
	return nil
}

// displayName prefers the platform username and falls back to the full name
func displayName(fields map[string]string) string {
	if username := strings.TrimSpace(fields["username"]); username != "" {
		return username
	}
	name := strings.TrimSpace(fields["first_name"] + " " + fields["last_name"])
	if name != "" {
		return name
	}
	return fields["id"]
}
