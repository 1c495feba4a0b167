package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/services"
)

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []models.BalanceUpdate
}

func (b *recordingBroadcaster) BroadcastBalance(update models.BalanceUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
}

func (b *recordingBroadcaster) last() (models.BalanceUpdate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.updates) == 0 {
		return models.BalanceUpdate{}, false
	}
	return b.updates[len(b.updates)-1], true
}

func newLedger(t *testing.T) (*services.LedgerService, *services.MemoryStore, *recordingBroadcaster) {
	t.Helper()
	store := services.NewMemoryStore()
	hub := &recordingBroadcaster{}
	ledger := services.NewLedgerService(store, services.NewPasswordHasher(bcrypt.MinCost), hub, quietLogger())
	ledger.SetClock(func() time.Time { return kickoff })
	return ledger, store, hub
}

// fundedUser registers username and credits amount through the admin path.
func fundedUser(t *testing.T, ledger *services.LedgerService, username string, amount float64) {
	t.Helper()
	ctx := context.Background()
	if err := ledger.Register(ctx, username, "secret"); err != nil {
		t.Fatalf("Failed to register %s: %v", username, err)
	}
	if amount > 0 {
		if _, err := ledger.AdjustBalance(ctx, username, amount, "add"); err != nil {
			t.Fatalf("Failed to fund %s: %v", username, err)
		}
	}
}

func ticketFromJSON(t *testing.T, payload string) models.Ticket {
	t.Helper()
	var ticket models.Ticket
	if err := json.Unmarshal([]byte(payload), &ticket); err != nil {
		t.Fatalf("Failed to decode ticket: %v", err)
	}
	return ticket
}

func TestLedgerRegisterAndLogin(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()

	if err := ledger.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := ledger.Register(ctx, "alice", "other"); !errors.Is(err, services.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists for duplicate username, got %v", err)
	}

	user, err := ledger.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Balance != 0 || len(user.History) != 0 {
		t.Errorf("New user should start with zero balance and no history, got %v / %d", user.Balance, len(user.History))
	}
	if user.PasswordHash == "pw1" || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Errorf("Password should be stored as a bcrypt hash, got %q", user.PasswordHash)
	}

	if _, err := ledger.Login(ctx, "alice", "wrong"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := ledger.Login(ctx, "nobody", "pw1"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLedgerRegisterRejectsBlankCredentials(t *testing.T) {
	ledger, _, _ := newLedger(t)

	if err := ledger.Register(context.Background(), "  ", "pw"); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected blank username to be rejected, got %v", err)
	}
	if err := ledger.Register(context.Background(), "bob", ""); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Errorf("Expected blank password to be rejected, got %v", err)
	}
}

func TestLedgerSyncUnknownUser(t *testing.T) {
	ledger, _, _ := newLedger(t)

	user, err := ledger.Sync(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Sync of unknown user should not fail: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil user, got %+v", user)
	}
}

func TestLedgerPlaceBet(t *testing.T) {
	ledger, _, hub := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	ticket := ticketFromJSON(t, `{"id":"client-chosen","win":"150","status":"Win","selections":[{"match":"1","pick":"h"}]}`)
	placed, err := ledger.PlaceBet(ctx, "alice", 40, ticket)
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	if !strings.HasPrefix(placed.ID, "bet_") || placed.ID == "client-chosen" {
		t.Errorf("Server should assign the ticket id, got %q", placed.ID)
	}
	if placed.Status != models.TicketPending {
		t.Errorf("New ticket should be pending, got %q", placed.Status)
	}
	if placed.Stake != 40 {
		t.Errorf("Expected stake 40, got %v", placed.Stake)
	}

	user, err := ledger.Sync(ctx, "alice")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if user.Balance != 60 {
		t.Errorf("Expected balance 60 after bet, got %v", user.Balance)
	}
	if len(user.History) != 1 || user.History[0].ID != placed.ID {
		t.Fatalf("Expected the new ticket at the head of history, got %+v", user.History)
	}
	if _, ok := user.History[0].Details["selections"]; !ok {
		t.Error("Client ticket fields should be preserved")
	}

	if update, ok := hub.last(); !ok || update.Balance != 60 || update.Username != "alice" {
		t.Errorf("Expected balance broadcast of 60 for alice, got %+v", update)
	}
}

func TestLedgerPlaceBetNewestFirst(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	first, err := ledger.PlaceBet(ctx, "alice", 10, models.Ticket{})
	if err != nil {
		t.Fatalf("First bet failed: %v", err)
	}
	second, err := ledger.PlaceBet(ctx, "alice", 10, models.Ticket{})
	if err != nil {
		t.Fatalf("Second bet failed: %v", err)
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.History[0].ID != second.ID || user.History[1].ID != first.ID {
		t.Error("History should be ordered newest first")
	}
	if first.ID == second.ID {
		t.Error("Ticket ids should be unique")
	}
}

func TestLedgerPlaceBetRejections(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 50)

	tests := []struct {
		name     string
		username string
		stake    float64
		want     error
	}{
		{"zero stake", "alice", 0, services.ErrInvalidStake},
		{"negative stake", "alice", -5, services.ErrInvalidStake},
		{"insufficient balance", "alice", 50.01, services.ErrInsufficientBalance},
		{"unknown user", "ghost", 10, services.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.PlaceBet(ctx, tt.username, tt.stake, models.Ticket{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.Balance != 50 || len(user.History) != 0 {
		t.Errorf("Rejected bets must not change the record, got balance %v and %d tickets", user.Balance, len(user.History))
	}
}

func TestLedgerPlaceBetExactBalance(t *testing.T) {
	ledger, _, _ := newLedger(t)
	fundedUser(t, ledger, "alice", 25)

	if _, err := ledger.PlaceBet(context.Background(), "alice", 25, models.Ticket{}); err != nil {
		t.Fatalf("Staking the whole balance should be allowed: %v", err)
	}
	user, _ := ledger.Sync(context.Background(), "alice")
	if user.Balance != 0 {
		t.Errorf("Expected balance 0, got %v", user.Balance)
	}
}

func TestLedgerConcurrentBetsNeverOverdraw(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.PlaceBet(ctx, "alice", 10, models.Ticket{}); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	user, _ := ledger.Sync(ctx, "alice")
	if accepted != 10 {
		t.Errorf("Expected exactly 10 accepted bets, got %d", accepted)
	}
	if user.Balance != 0 || len(user.History) != 10 {
		t.Errorf("Expected balance 0 with 10 tickets, got %v with %d", user.Balance, len(user.History))
	}
}

func TestLedgerAdjustBalance(t *testing.T) {
	ledger, _, hub := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 0)

	user, err := ledger.AdjustBalance(ctx, "alice", 100, "add")
	if err != nil || user.Balance != 100 {
		t.Fatalf("Expected balance 100 after add, got %v (%v)", user, err)
	}

	user, err = ledger.AdjustBalance(ctx, "alice", 30, "subtract")
	if err != nil || user.Balance != 70 {
		t.Fatalf("Expected balance 70 after subtract, got %v (%v)", user, err)
	}

	user, err = ledger.AdjustBalance(ctx, "alice", 100, "")
	if err != nil {
		t.Fatalf("Admin debit beyond balance should be allowed: %v", err)
	}
	if user.Balance != -30 {
		t.Errorf("Expected balance -30, got %v", user.Balance)
	}

	if _, err := ledger.AdjustBalance(ctx, "ghost", 10, "add"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}

	if update, ok := hub.last(); !ok || update.Balance != -30 {
		t.Errorf("Expected last broadcast to carry -30, got %+v", update)
	}
}

func TestLedgerAdjustBalanceDecimalSums(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 0)

	for i := 0; i < 3; i++ {
		if _, err := ledger.AdjustBalance(ctx, "alice", 0.1, "add"); err != nil {
			t.Fatalf("AdjustBalance failed: %v", err)
		}
	}
	user, _ := ledger.Sync(ctx, "alice")
	if user.Balance != 0.3 {
		t.Errorf("Expected 0.3, got %v", user.Balance)
	}
}

func TestLedgerSettleWinCreditsOnce(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	placed, err := ledger.PlaceBet(ctx, "alice", 40, ticketFromJSON(t, `{"win":"150 units"}`))
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	outcome, err := ledger.Settle(ctx, models.SettleRequest{Username: "alice", TicketID: placed.ID, Result: "Win"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if outcome.Credited != 150 || outcome.Balance != 210 || outcome.CreditSkipped {
		t.Errorf("Expected 150 credited to reach 210, got %+v", outcome)
	}

	outcome, err = ledger.Settle(ctx, models.SettleRequest{Username: "alice", TicketID: placed.ID, Result: "Win"})
	if err != nil {
		t.Fatalf("Second settle failed: %v", err)
	}
	if outcome.Credited != 0 || outcome.Balance != 210 {
		t.Errorf("Re-settling a won ticket must not credit again, got %+v", outcome)
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.History[0].Status != models.TicketWin || user.History[0].SettledAt == nil {
		t.Errorf("Ticket should be recorded as settled Win, got %+v", user.History[0])
	}
}

func TestLedgerSettleByIndex(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	older, _ := ledger.PlaceBet(ctx, "alice", 10, ticketFromJSON(t, `{"win":"20"}`))
	if _, err := ledger.PlaceBet(ctx, "alice", 10, ticketFromJSON(t, `{"win":"30"}`)); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	idx := 1
	outcome, err := ledger.Settle(ctx, models.SettleRequest{Username: "alice", BetIndex: &idx, Result: "Lose"})
	if err != nil {
		t.Fatalf("Settle by index failed: %v", err)
	}
	if outcome.TicketID != older.ID || outcome.Status != models.TicketLose {
		t.Errorf("Index 1 should address the older ticket, got %+v", outcome)
	}
	if outcome.Balance != 80 {
		t.Errorf("A loss must not move the balance, got %v", outcome.Balance)
	}
}

func TestLedgerSettleUnparsableWin(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)

	placed, _ := ledger.PlaceBet(ctx, "alice", 10, ticketFromJSON(t, `{"win":"TBD"}`))

	outcome, err := ledger.Settle(ctx, models.SettleRequest{Username: "alice", TicketID: placed.ID, Result: "Win"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if !outcome.CreditSkipped || outcome.Credited != 0 || outcome.Balance != 90 {
		t.Errorf("Expected skipped credit with unchanged balance, got %+v", outcome)
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.History[0].Status != models.TicketWin {
		t.Errorf("Status should still be recorded, got %q", user.History[0].Status)
	}
}

func TestLedgerSettleRejections(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)
	if _, err := ledger.PlaceBet(ctx, "alice", 10, models.Ticket{}); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	outOfRange := 5
	negative := -1
	tests := []struct {
		name string
		req  models.SettleRequest
		want error
	}{
		{"bad result", models.SettleRequest{Username: "alice", BetIndex: new(int), Result: "won"}, services.ErrInvalidResult},
		{"wrong case", models.SettleRequest{Username: "alice", BetIndex: new(int), Result: "win"}, services.ErrInvalidResult},
		{"index out of range", models.SettleRequest{Username: "alice", BetIndex: &outOfRange, Result: "Lose"}, services.ErrNotFound},
		{"negative index", models.SettleRequest{Username: "alice", BetIndex: &negative, Result: "Lose"}, services.ErrNotFound},
		{"unknown ticket", models.SettleRequest{Username: "alice", TicketID: "bet_missing", Result: "Lose"}, services.ErrNotFound},
		{"no reference", models.SettleRequest{Username: "alice", Result: "Lose"}, services.ErrNotFound},
		{"unknown user", models.SettleRequest{Username: "ghost", BetIndex: new(int), Result: "Lose"}, services.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ledger.Settle(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.History[0].Status != models.TicketPending || user.Balance != 90 {
		t.Errorf("Rejected settlements must not change the record, got %+v", user)
	}
}

func TestLedgerSettleBackToPendingClearsSettledAt(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ctx := context.Background()
	fundedUser(t, ledger, "alice", 100)
	placed, _ := ledger.PlaceBet(ctx, "alice", 10, models.Ticket{})

	if _, err := ledger.Settle(ctx, models.SettleRequest{Username: "alice", TicketID: placed.ID, Result: "Void"}); err != nil {
		t.Fatalf("Settle Void failed: %v", err)
	}
	if _, err := ledger.Settle(ctx, models.SettleRequest{Username: "alice", TicketID: placed.ID, Result: "pending"}); err != nil {
		t.Fatalf("Settle pending failed: %v", err)
	}

	user, _ := ledger.Sync(ctx, "alice")
	if user.History[0].SettledAt != nil {
		t.Errorf("Reopened ticket should have no settledAt, got %v", user.History[0].SettledAt)
	}
}

func TestLedgerListUsersSorted(t *testing.T) {
	ledger, _, _ := newLedger(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		fundedUser(t, ledger, name, 0)
	}

	users, err := ledger.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 3 || users[0].Username != "alice" || users[2].Username != "carol" {
		t.Errorf("Expected users sorted by name, got %+v", users)
	}
}
