// Package service implements the wagering engine: escrow at start, per-variant
// state machines in between, and exactly one settlement or refund per bet.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wager-bot/internal/game"
	"wager-bot/internal/ledger"
	"wager-bot/internal/model"
	"wager-bot/internal/pkg/lock"
	"wager-bot/internal/session"
	"wager-bot/internal/timeout"
)

var (
	ErrBelowMinimumBet = errors.New("bet below minimum")
	ErrSessionNotFound = errors.New("no active session")
	ErrUnknownTxType   = errors.New("unknown transaction type")
	// ErrActionInProgress rejects a move while another one for the account is running.
	ErrActionInProgress = errors.New("action in progress")
	// ErrStaleSession rejects a move aimed at a session that has already ended.
	ErrStaleSession = errors.New("session is no longer active")
)

// defaultLockWait bounds how long start and admin operations queue for an account.
const defaultLockWait = 5 * time.Second

// Config is the wagering policy.
type Config struct {
	MinBet          int64
	SessionTimeout  time.Duration
	StartingBalance int64
}

// Snapshot is a renderable view of an active session.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	AccountID string    `json:"account_id"`
	Variant   string    `json:"variant"`
	Bet       int64     `json:"bet"`
	View      game.View `json:"view"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
	// SettlementPending is set when the round ended but its credit has not landed.
	SettlementPending bool `json:"settlement_pending,omitempty"`
}

// Outcome describes a finished session.
type Outcome struct {
	AccountID  string          `json:"account_id"`
	Variant    string          `json:"variant"`
	Bet        int64           `json:"bet"`
	Settlement game.Settlement `json:"settlement"`
	View       game.View       `json:"view"`
	Balance    int64           `json:"balance"`
	Refunded   bool            `json:"refunded,omitempty"`
}

// Result is what Start and Step return: a snapshot while the session is live,
// an outcome once it has ended.
type Result struct {
	Snapshot *Snapshot
	Outcome  *Outcome
}

// Notifier is told about sessions that ended without a player action.
type Notifier func(accountID string, out *Outcome)

// Stats counts engine state for the status API.
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
	ArmedTimers    int `json:"armed_timers"`
	Accounts       int `json:"accounts"`
}

// Engine owns the sessions of every account.
type Engine struct {
	ledger   *ledger.Ledger
	games    *game.Registry
	sessions *session.Registry
	timers   *timeout.Supervisor
	locks    *lock.AccountLock
	rng      game.Rand
	cfg      Config
	now      func() time.Time
	lockWait time.Duration

	notifyMu sync.RWMutex
	notify   Notifier
}

// NewEngine creates an engine. rng is shared by every session.
func NewEngine(l *ledger.Ledger, games *game.Registry, rng game.Rand, cfg Config) *Engine {
	e := &Engine{
		ledger:   l,
		games:    games,
		sessions: session.NewRegistry(),
		locks:    lock.NewAccountLock(),
		rng:      rng,
		cfg:      cfg,
		now:      time.Now,
		lockWait: defaultLockWait,
	}
	e.timers = timeout.New(e.expire)
	return e
}

// SetNotifier installs the expiry notifier.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifyMu.Lock()
	e.notify = n
	e.notifyMu.Unlock()
}

// Games returns the variant registry.
func (e *Engine) Games() *game.Registry { return e.games }

// MinBet returns the configured bet floor.
func (e *Engine) MinBet() int64 { return e.cfg.MinBet }

// Start escrows bet and opens a session of variant for the account.
func (e *Engine) Start(ctx context.Context, accountID, variant string, bet int64, opts game.Options) (*Result, error) {
	g, err := e.games.Lookup(variant)
	if err != nil {
		return nil, err
	}
	if bet < e.cfg.MinBet {
		return nil, fmt.Errorf("%w: minimum is %d", ErrBelowMinimumBet, e.cfg.MinBet)
	}

	var res *Result
	err = e.locks.WithLockContext(ctx, accountID, e.lockWait, func() error {
		var err error
		res, err = e.start(ctx, g, accountID, variant, bet, opts)
		return err
	})
	return res, err
}

// start runs with the account lock held.
func (e *Engine) start(ctx context.Context, g game.Game, accountID, variant string, bet int64, opts game.Options) (*Result, error) {
	if _, ok := e.sessions.Get(accountID); ok {
		return nil, session.ErrSessionAlreadyActive
	}
	if bet > e.ledger.Balance(accountID) {
		return nil, ledger.ErrInsufficientBalance
	}

	state, err := g.Start(bet, opts, e.rng)
	if err != nil {
		return nil, err
	}
	if _, err := e.ledger.Debit(ctx, accountID, bet, model.TxTypeBet, variant+" bet"); err != nil {
		return nil, err
	}

	sess := session.New(accountID, variant, bet, state, e.now())
	if err := e.sessions.TryCreate(sess); err != nil {
		// Unreachable under the account lock; hand the escrow back regardless.
		e.refundOrLog(ctx, accountID, bet, variant)
		return nil, err
	}

	log.Info().
		Str("account_id", accountID).
		Str("session_id", sess.ID).
		Str("variant", variant).
		Int64("bet", bet).
		Msg("Session started")

	if res := state.Result(); res != nil {
		out, err := e.finish(ctx, sess, res)
		if err != nil {
			return nil, err
		}
		return &Result{Outcome: out}, nil
	}

	e.timers.Arm(accountID, sess.ID, e.cfg.SessionTimeout)
	return &Result{Snapshot: e.snapshot(sess)}, nil
}

// Step applies one action to the account's current session.
func (e *Engine) Step(ctx context.Context, accountID string, a game.Action) (*Result, error) {
	return e.StepSession(ctx, accountID, "", a)
}

// StepSession applies one action to the account's session, which must be
// sessionID unless that is empty. Moves are not queued: while another move for
// the account is running it fails with ErrActionInProgress. A rejected action
// leaves the session and its timer untouched.
func (e *Engine) StepSession(ctx context.Context, accountID, sessionID string, a game.Action) (*Result, error) {
	if !e.locks.TryLock(accountID) {
		return nil, ErrActionInProgress
	}
	defer e.locks.Unlock(accountID)

	sess, ok := e.sessions.Get(accountID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sessionID != "" && sess.ID != sessionID {
		return nil, ErrStaleSession
	}

	if sess.Pending != nil {
		out, err := e.finish(ctx, sess, sess.Pending)
		if err != nil {
			return nil, err
		}
		return &Result{Outcome: out}, nil
	}

	res, err := sess.State.Step(a)
	if err != nil {
		return nil, err
	}
	if res == nil {
		e.timers.Arm(accountID, sess.ID, e.cfg.SessionTimeout)
		return &Result{Snapshot: e.snapshot(sess)}, nil
	}

	out, err := e.finish(ctx, sess, res)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: out}, nil
}

// Cashout is Step with the cashout action.
func (e *Engine) Cashout(ctx context.Context, accountID string) (*Result, error) {
	return e.Step(ctx, accountID, game.Action{Kind: game.ActionCashout})
}

// Snapshot returns the account's active session.
func (e *Engine) Snapshot(accountID string) (*Snapshot, error) {
	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	sess, ok := e.sessions.Get(accountID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.snapshot(sess), nil
}

// Stats returns current counts.
func (e *Engine) Stats() Stats {
	return Stats{
		ActiveSessions: e.sessions.Count(),
		ArmedTimers:    e.timers.Count(),
		Accounts:       len(e.ledger.Snapshot()),
	}
}

// finish credits res and ends sess. Called with the account lock held. If the
// credit fails the session stays registered with res pending, and the timer is
// re-armed so expiry retries it.
func (e *Engine) finish(ctx context.Context, sess *session.Session, res *game.Settlement) (*Outcome, error) {
	e.timers.Disarm(sess.AccountID)

	balance := e.ledger.Balance(sess.AccountID)
	if res.Payout > 0 {
		var err error
		balance, err = e.ledger.Credit(ctx, sess.AccountID, res.Payout, model.TxTypePayout, sess.Variant+" "+string(res.Outcome))
		if err != nil {
			sess.Pending = res
			e.timers.Arm(sess.AccountID, sess.ID, e.cfg.SessionTimeout)
			log.Error().
				Err(err).
				Str("account_id", sess.AccountID).
				Str("session_id", sess.ID).
				Int64("payout", res.Payout).
				Msg("Settlement credit failed, keeping session pending")
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
	}
	e.sessions.ClearIf(sess.AccountID, sess.ID)

	log.Info().
		Str("account_id", sess.AccountID).
		Str("session_id", sess.ID).
		Str("variant", sess.Variant).
		Str("outcome", string(res.Outcome)).
		Int64("bet", sess.Bet).
		Int64("payout", res.Payout).
		Msg("Session settled")

	return &Outcome{
		AccountID:  sess.AccountID,
		Variant:    sess.Variant,
		Bet:        sess.Bet,
		Settlement: *res,
		View:       sess.State.View(),
		Balance:    balance,
	}, nil
}

// expire is the timeout callback. It refunds the escrow unless the session was
// settled or re-armed in the meantime.
func (e *Engine) expire(accountID, sessionID string) {
	out, ok := e.reclaim(context.Background(), accountID, sessionID, true)
	if !ok || out == nil {
		return
	}

	e.notifyMu.RLock()
	notify := e.notify
	e.notifyMu.RUnlock()
	if notify != nil {
		notify(accountID, out)
	}
}

// reclaim ends a session that nobody is playing: a pending settlement is
// credited, otherwise the bet is refunded. With fromTimer set, a session whose
// timer was re-armed is left alone. It reports whether the session was found.
func (e *Engine) reclaim(ctx context.Context, accountID, sessionID string, fromTimer bool) (*Outcome, bool) {
	e.locks.Lock(accountID)
	defer e.locks.Unlock(accountID)

	sess, ok := e.sessions.Get(accountID)
	if !ok || sess.ID != sessionID {
		return nil, false
	}
	if fromTimer && e.timers.Pending(accountID) {
		return nil, true
	}

	if sess.Pending != nil {
		out, err := e.finish(ctx, sess, sess.Pending)
		if err != nil {
			return nil, true
		}
		return out, true
	}

	e.timers.Disarm(accountID)
	balance, err := e.ledger.Credit(ctx, accountID, sess.Bet, model.TxTypeRefund, sess.Variant+" refund")
	if err != nil {
		e.timers.Arm(accountID, sess.ID, e.cfg.SessionTimeout)
		log.Error().
			Err(err).
			Str("account_id", accountID).
			Str("session_id", sess.ID).
			Int64("bet", sess.Bet).
			Msg("Refund failed, will retry")
		return nil, true
	}
	e.sessions.ClearIf(accountID, sess.ID)

	log.Info().
		Str("account_id", accountID).
		Str("session_id", sess.ID).
		Str("variant", sess.Variant).
		Int64("bet", sess.Bet).
		Msg("Session expired, bet refunded")

	return &Outcome{
		AccountID: accountID,
		Variant:   sess.Variant,
		Bet:       sess.Bet,
		Settlement: game.Settlement{
			Outcome: game.OutcomePush,
			Payout:  sess.Bet,
			Summary: "Session expired, bet refunded.",
		},
		View:     sess.State.View(),
		Balance:  balance,
		Refunded: true,
	}, true
}

// RefundAll stops the timers and reclaims every active session. It is meant
// for shutdown.
func (e *Engine) RefundAll(ctx context.Context) (int, error) {
	e.timers.Stop()

	var errs []error
	n := 0
	for _, sess := range e.sessions.List() {
		out, found := e.reclaim(ctx, sess.AccountID, sess.ID, false)
		switch {
		case out != nil:
			n++
		case found:
			errs = append(errs, fmt.Errorf("failed to reclaim session %s of %s", sess.ID, sess.AccountID))
		}
	}
	e.locks.Prune()
	return n, errors.Join(errs...)
}

// Run prunes idle account locks every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.locks.Prune(); n > 0 {
				log.Debug().Int("pruned", n).Msg("Pruned idle account locks")
			}
		}
	}
}

func (e *Engine) refundOrLog(ctx context.Context, accountID string, amount int64, variant string) {
	if _, err := e.ledger.Credit(ctx, accountID, amount, model.TxTypeRefund, variant+" refund"); err != nil {
		log.Error().Err(err).Str("account_id", accountID).Int64("amount", amount).Msg("Escrow refund failed")
	}
}

func (e *Engine) snapshot(sess *session.Session) *Snapshot {
	deadline, _ := e.timers.Deadline(sess.AccountID)
	return &Snapshot{
		SessionID:         sess.ID,
		AccountID:         sess.AccountID,
		Variant:           sess.Variant,
		Bet:               sess.Bet,
		View:              sess.State.View(),
		CreatedAt:         sess.CreatedAt,
		Deadline:          deadline,
		SettlementPending: sess.Pending != nil,
	}
}
