package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
)

const adjustAdd = "add"

// LedgerService owns every change to a user's balance and bet history. Each
// operation is one atomic Store.UpdateUser call.
type LedgerService struct {
	store       Store
	hasher      *PasswordHasher
	broadcaster Broadcaster
	logger      *logrus.Logger
	now         func() time.Time
}

func NewLedgerService(store Store, hasher *PasswordHasher, broadcaster Broadcaster, logger *logrus.Logger) *LedgerService {
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	return &LedgerService{
		store:       store,
		hasher:      hasher,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (l *LedgerService) SetClock(now func() time.Time) {
	l.now = now
}

func (l *LedgerService) Register(ctx context.Context, username, password string) (err error) {
	defer func() { observeLedger("register", err) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}

	hash, err := l.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := l.now().UTC()
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Balance:      0,
		History:      []models.Ticket{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.store.CreateUser(ctx, user); err != nil {
		return err
	}

	l.logger.WithField("username", username).Info("user registered")
	return nil
}

func (l *LedgerService) Login(ctx context.Context, username, password string) (user *models.User, err error) {
	defer func() { observeLedger("login", err) }()

	user, err = l.store.GetUser(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		l.hasher.CompareMissing(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !l.hasher.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Sync returns the current record, or nil without error for an unknown user.
func (l *LedgerService) Sync(ctx context.Context, username string) (*models.User, error) {
	user, err := l.store.GetUser(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (l *LedgerService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return l.store.ListUsers(ctx)
}

// PlaceBet debits stake and puts the ticket at the head of the history.
func (l *LedgerService) PlaceBet(ctx context.Context, username string, stake float64, ticket models.Ticket) (placed *models.Ticket, err error) {
	defer func() { observeLedger("bet", err) }()

	if stake <= 0 || math.IsNaN(stake) || math.IsInf(stake, 0) {
		return nil, ErrInvalidStake
	}

	ticket.ID = models.GenerateTicketID()
	ticket.Stake = stake
	ticket.Status = models.TicketPending
	ticket.PlacedAt = l.now().UTC()
	ticket.SettledAt = nil

	user, err := l.store.UpdateUser(ctx, username, func(u *models.User) error {
		if u.Balance < stake {
			return ErrInsufficientBalance
		}
		u.Balance = addMoney(u.Balance, -stake)
		u.History = append([]models.Ticket{ticket}, u.History...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"username": username,
		"ticket":   ticket.ID,
		"stake":    stake,
		"balance":  user.Balance,
	}).Info("bet placed")
	l.broadcaster.BroadcastBalance(models.BalanceUpdate{Username: user.Username, Balance: user.Balance, Reason: "bet"})

	return &ticket, nil
}

// AdjustBalance adds amount when op is "add" and subtracts it otherwise.
func (l *LedgerService) AdjustBalance(ctx context.Context, username string, amount float64, op string) (user *models.User, err error) {
	defer func() { observeLedger("adjust", err) }()

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	delta := -amount
	if op == adjustAdd {
		delta = amount
	}

	user, err = l.store.UpdateUser(ctx, username, func(u *models.User) error {
		u.Balance = addMoney(u.Balance, delta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"username": username,
		"delta":    delta,
		"balance":  user.Balance,
	}).Info("balance adjusted by admin")
	l.broadcaster.BroadcastBalance(models.BalanceUpdate{Username: user.Username, Balance: user.Balance, Reason: "adjust"})

	return user, nil
}

// Settle records a result on one ticket. A first transition to Win credits
// the digits of the ticket's win field; when those cannot be parsed the
// status is still recorded and the outcome says the credit was skipped.
func (l *LedgerService) Settle(ctx context.Context, req models.SettleRequest) (outcome *models.SettleOutcome, err error) {
	defer func() { observeLedger("settle", err) }()

	status, err := models.ParseTicketStatus(req.Result)
	if err != nil {
		return nil, ErrInvalidResult
	}

	var result models.SettleOutcome
	user, err := l.store.UpdateUser(ctx, req.Username, func(u *models.User) error {
		result = models.SettleOutcome{Status: status}

		idx, err := locateTicket(u, req)
		if err != nil {
			return err
		}

		ticket := &u.History[idx]
		wasWin := ticket.Status == models.TicketWin

		ticket.Status = status
		if status == models.TicketPending {
			ticket.SettledAt = nil
		} else {
			at := l.now().UTC()
			ticket.SettledAt = &at
		}
		result.TicketID = ticket.ID

		if status == models.TicketWin && !wasWin {
			amount, ok := models.ParseWinAmount(ticket.Win)
			if ok {
				u.Balance = addMoney(u.Balance, float64(amount))
				result.Credited = amount
			} else {
				result.CreditSkipped = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Balance = user.Balance

	entry := l.logger.WithFields(logrus.Fields{
		"username": req.Username,
		"ticket":   result.TicketID,
		"status":   status,
		"credited": result.Credited,
	})
	if result.CreditSkipped {
		entry.Warn("ticket settled as Win but the win amount could not be parsed")
	} else {
		entry.Info("ticket settled")
	}
	l.broadcaster.BroadcastBalance(models.BalanceUpdate{Username: user.Username, Balance: user.Balance, Reason: "settle"})

	return &result, nil
}

func locateTicket(u *models.User, req models.SettleRequest) (int, error) {
	if req.TicketID != "" {
		if idx := u.TicketByID(req.TicketID); idx >= 0 {
			return idx, nil
		}
		return 0, fmt.Errorf("bet %s: %w", req.TicketID, ErrNotFound)
	}

	if req.BetIndex != nil {
		idx := *req.BetIndex
		if idx >= 0 && idx < len(u.History) {
			return idx, nil
		}
		return 0, fmt.Errorf("bet index %d: %w", idx, ErrNotFound)
	}

	return 0, fmt.Errorf("no bet reference given: %w", ErrNotFound)
}

// addMoney sums in decimal so repeated small stakes do not drift.
func addMoney(balance, delta float64) float64 {
	return decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(delta)).InexactFloat64()
}
