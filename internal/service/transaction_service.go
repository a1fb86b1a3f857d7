package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"familyledger/internal/apperrors"
	"familyledger/internal/database"
	"familyledger/internal/models"
	"familyledger/internal/repository"
)

// TransactionInput carries the caller-supplied fields of a ledger entry.
type TransactionInput struct {
	Amount          decimal.Decimal
	TransactionType models.TransactionType
	Description     string
	Category        string
	TransactionAt   time.Time
}

// ListParams narrows a ledger query. Window and Month/Year are mutually
// exclusive; when both are absent the whole history matches.
type ListParams struct {
	Type   models.TransactionType
	Window models.TimeWindow
	Month  int
	Year   int
	Page   models.PageRequest
}

// TransactionService is the transaction engine: it creates, edits, and
// deletes ledger entries, keeping each member's balance equal to the signed
// sum of their entries. Every mutation runs inside one store transaction so
// the ledger row and the balance change commit or abort together.
type TransactionService struct {
	db         *database.DB
	memberRepo *repository.MemberRepository
	txRepo     *repository.TransactionRepository
	now        func() time.Time
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(db *database.DB, memberRepo *repository.MemberRepository, txRepo *repository.TransactionRepository) *TransactionService {
	return &TransactionService{
		db:         db,
		memberRepo: memberRepo,
		txRepo:     txRepo,
		now:        time.Now,
	}
}

// GetBalance returns the caller's current balance.
func (s *TransactionService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	member, err := s.requireMember(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return member.Balance, nil
}

// CreateTransaction records an income or expense for the caller and applies
// its delta to the balance. An expense that would drive the balance negative
// is rejected with no effect.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID int64, input TransactionInput) (*models.Transaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	member, err := s.requireMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	action := ActionAddExpense
	if input.TransactionType == models.TypeIncome {
		action = ActionAddIncome
	}
	if err := Authorize(action, member.PermissionFlags); err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		FamilyID:        member.FamilyID,
		MemberID:        member.ID,
		Amount:          input.Amount,
		TransactionType: input.TransactionType,
		Description:     input.Description,
		Category:        input.Category,
		TransactionAt:   input.TransactionAt,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.memberRepo.GetMemberForUpdate(ctx, tx, member.ID)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, apperrors.NotFound("member not found")
	}

	newBalance := locked.Balance.Add(entry.SignedAmount())
	if newBalance.IsNegative() {
		return nil, apperrors.InsufficientFunds("insufficient balance for this expense")
	}

	id, err := s.txRepo.Insert(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.SetBalance(ctx, tx, member.ID, newBalance); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.txRepo.GetTransactionByID(ctx, id)
}

// EditTransaction rewrites an entry and adjusts the owning member's balance
// by the reversal of the old effect plus the new effect, atomically. Only
// the family head may edit, and only within their own family.
func (s *TransactionService) EditTransaction(ctx context.Context, userID, transactionID int64, input TransactionInput) (*models.Transaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	caller, err := s.requireMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ActionEditTransaction, caller.PermissionFlags); err != nil {
		return nil, err
	}

	existing, err := s.txRepo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound("transaction not found")
	}
	if existing.FamilyID != caller.FamilyID {
		return nil, apperrors.Forbidden("transaction belongs to another family")
	}

	updated := *existing
	updated.Amount = input.Amount
	updated.TransactionType = input.TransactionType
	updated.Description = input.Description
	updated.Category = input.Category
	updated.TransactionAt = input.TransactionAt

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	owner, err := s.memberRepo.GetMemberForUpdate(ctx, tx, existing.MemberID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperrors.NotFound("member not found")
	}

	// Reverse the old entry's effect, then apply the new one.
	newBalance := owner.Balance.Sub(existing.SignedAmount()).Add(updated.SignedAmount())
	if newBalance.IsNegative() {
		return nil, apperrors.InsufficientFunds("edit would make the balance negative")
	}

	if err := s.txRepo.Update(ctx, tx, &updated); err != nil {
		return nil, err
	}
	if err := s.memberRepo.SetBalance(ctx, tx, owner.ID, newBalance); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &updated, nil
}

// DeleteTransaction removes an entry and reverses its balance effect.
// Reversing an income that the member has since spent would drive the
// balance negative; that delete is rejected rather than partially applied.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID int64) error {
	caller, err := s.requireMember(ctx, userID)
	if err != nil {
		return err
	}
	if err := Authorize(ActionDeleteTransaction, caller.PermissionFlags); err != nil {
		return err
	}

	existing, err := s.txRepo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.NotFound("transaction not found")
	}
	if existing.FamilyID != caller.FamilyID {
		return apperrors.Forbidden("transaction belongs to another family")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	owner, err := s.memberRepo.GetMemberForUpdate(ctx, tx, existing.MemberID)
	if err != nil {
		return err
	}
	if owner == nil {
		return apperrors.NotFound("member not found")
	}

	newBalance := owner.Balance.Sub(existing.SignedAmount())
	if newBalance.IsNegative() {
		return apperrors.InsufficientFunds("delete would make the balance negative")
	}

	if err := s.txRepo.Delete(ctx, tx, existing.ID); err != nil {
		return err
	}
	if err := s.memberRepo.SetBalance(ctx, tx, owner.ID, newBalance); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTransactions returns one page of the caller's entries, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID int64, params ListParams) ([]models.Transaction, models.PageMeta, error) {
	member, err := s.requireMember(ctx, userID)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	filter, err := s.resolveFilter(params)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	page := params.Page.Normalize()
	transactions, total, err := s.txRepo.ListByMember(ctx, member.ID, filter, page)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return transactions, models.NewPageMeta(page, total), nil
}

// TotalTransactions sums the caller's entries of one type over a window.
func (s *TransactionService) TotalTransactions(ctx context.Context, userID int64, transactionType models.TransactionType, window models.TimeWindow) (decimal.Decimal, error) {
	if !transactionType.Valid() {
		return decimal.Zero, apperrors.BadRequest("transactionType must be INCOME or EXPENSE")
	}

	member, err := s.requireMember(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	filter, err := s.resolveFilter(ListParams{Type: transactionType, Window: window})
	if err != nil {
		return decimal.Zero, err
	}
	return s.txRepo.SumByMember(ctx, member.ID, filter)
}

// ListFamilyTransactions returns one page of the whole family's entries.
// Viewing across members requires the family-report capability.
func (s *TransactionService) ListFamilyTransactions(ctx context.Context, userID int64, params ListParams) ([]models.Transaction, models.PageMeta, error) {
	member, err := s.requireMember(ctx, userID)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	if err := Authorize(ActionViewFamilyReport, member.PermissionFlags); err != nil {
		return nil, models.PageMeta{}, err
	}

	filter, err := s.resolveFilter(params)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	page := params.Page.Normalize()
	transactions, total, err := s.txRepo.ListByFamily(ctx, member.FamilyID, filter, page)
	if err != nil {
		return nil, models.PageMeta{}, err
	}
	return transactions, models.NewPageMeta(page, total), nil
}

func (s *TransactionService) requireMember(ctx context.Context, userID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperrors.NotFound("member not found")
	}
	return member, nil
}

func (s *TransactionService) resolveFilter(params ListParams) (repository.TransactionFilter, error) {
	filter := repository.TransactionFilter{}

	if params.Type != "" {
		if !params.Type.Valid() {
			return filter, apperrors.BadRequest("transactionType must be INCOME or EXPENSE")
		}
		filter.Type = params.Type
	}

	switch {
	case params.Month != 0 || params.Year != 0:
		if params.Window != "" {
			return filter, apperrors.BadRequest("timePeriod and month/year are mutually exclusive")
		}
		if params.Month < 1 || params.Month > 12 {
			return filter, apperrors.BadRequest("month must be between 1 and 12")
		}
		if params.Year < 1 {
			return filter, apperrors.BadRequest("year is required with month")
		}
		filter.Start, filter.End = models.MonthRange(params.Year, time.Month(params.Month), s.now().Location())
		filter.Bounded = true
	case params.Window != "":
		if !params.Window.Valid() {
			return filter, apperrors.BadRequest("timePeriod must be one of day, week, month, year, all")
		}
		filter.Start, filter.End, filter.Bounded = params.Window.Resolve(s.now())
	}

	return filter, nil
}

func validateInput(input TransactionInput) error {
	if !input.Amount.IsPositive() {
		return apperrors.BadRequest("amount must be a positive number")
	}
	if !input.TransactionType.Valid() {
		return apperrors.BadRequest("transactionType must be INCOME or EXPENSE")
	}
	if input.Description == "" {
		return apperrors.BadRequest("description is required")
	}
	if input.Category == "" {
		return apperrors.BadRequest("category is required")
	}
	if input.TransactionAt.IsZero() {
		return apperrors.BadRequest("transactionAt is required")
	}
	return nil
}
