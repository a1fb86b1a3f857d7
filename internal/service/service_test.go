package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"familyledger/internal/database"
	"familyledger/internal/models"
	"familyledger/internal/repository"
	"familyledger/internal/security"
)

// testEnv wires the full service stack against a throwaway SQLite database
// with the real migrations applied.
type testEnv struct {
	t        *testing.T
	db       *database.DB
	users    *repository.UserRepository
	members  *repository.MemberRepository
	txs      *repository.TransactionRepository
	auth     *AuthService
	family   *FamilyService
	ledger   *TransactionService
	transfer *TransferService
	tokens   *security.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background(), filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	email, err := NewEmailService("", "", "", false)
	if err != nil {
		t.Fatalf("failed to create email service: %v", err)
	}
	tokens := security.NewTokenManager("test-secret", "test", time.Hour)

	return &testEnv{
		t:        t,
		db:       db,
		users:    userRepo,
		members:  memberRepo,
		txs:      txRepo,
		auth:     NewAuthService(userRepo, email, tokens),
		family:   NewFamilyService(familyRepo, memberRepo),
		ledger:   NewTransactionService(db, memberRepo, txRepo),
		transfer: NewTransferService(db, userRepo, memberRepo, txRepo),
		tokens:   tokens,
	}
}

func (e *testEnv) createUser(username string) *models.User {
	e.t.Helper()
	ctx := context.Background()

	hash, err := security.HashPassword("password123")
	if err != nil {
		e.t.Fatalf("failed to hash password: %v", err)
	}
	user, err := e.users.CreateUser(ctx, username, username+"@example.com", hash, "123456")
	if err != nil {
		e.t.Fatalf("failed to create user %s: %v", username, err)
	}
	if err := e.users.MarkVerified(ctx, user.ID); err != nil {
		e.t.Fatalf("failed to verify user %s: %v", username, err)
	}
	user.IsVerified = true
	return user
}

func (e *testEnv) createFamily(name string, head *models.User) (*models.Family, *models.Member) {
	e.t.Helper()
	family, member, err := e.family.CreateFamily(context.Background(), head.ID, name, "")
	if err != nil {
		e.t.Fatalf("failed to create family %s: %v", name, err)
	}
	return family, member
}

func (e *testEnv) joinFamily(user *models.User, familyCode string) *models.Member {
	e.t.Helper()
	_, member, err := e.family.JoinFamily(context.Background(), user.ID, familyCode, "")
	if err != nil {
		e.t.Fatalf("failed to join family: %v", err)
	}
	return member
}

func (e *testEnv) addEntry(userID int64, entryType models.TransactionType, amount, description string) *models.Transaction {
	e.t.Helper()
	entry, err := e.ledger.CreateTransaction(context.Background(), userID, TransactionInput{
		Amount:          dec(e.t, amount),
		TransactionType: entryType,
		Description:     description,
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if err != nil {
		e.t.Fatalf("failed to create %s of %s: %v", entryType, amount, err)
	}
	return entry
}

func (e *testEnv) balance(memberID int64) decimal.Decimal {
	e.t.Helper()
	member, err := e.members.GetMemberByID(context.Background(), memberID)
	if err != nil {
		e.t.Fatalf("failed to load member %d: %v", memberID, err)
	}
	if member == nil {
		e.t.Fatalf("member %d not found", memberID)
	}
	return member.Balance
}

func (e *testEnv) assertBalance(memberID int64, want string) {
	e.t.Helper()
	got := e.balance(memberID)
	if !got.Equal(dec(e.t, want)) {
		e.t.Errorf("balance = %s, want %s", got, want)
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}
