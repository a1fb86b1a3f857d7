package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"familyledger/internal/database"
	"familyledger/internal/models"
)

// TransactionFilter narrows ledger queries by type and time range.
// A zero Type matches both types; Bounded false means the whole history.
type TransactionFilter struct {
	Type    models.TransactionType
	Start   time.Time
	End     time.Time
	Bounded bool
}

// TransactionRepository handles database operations for ledger entries.
type TransactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, family_id, member_id, amount, transaction_type,
	description, category, transaction_at, created_at`

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(
		&t.ID,
		&t.FamilyID,
		&t.MemberID,
		&t.Amount,
		&t.TransactionType,
		&t.Description,
		&t.Category,
		&t.TransactionAt,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// Insert writes a ledger row inside the caller's transaction and returns its id.
func (r *TransactionRepository) Insert(ctx context.Context, q database.DBTX, t *models.Transaction) (int64, error) {
	query := `
		INSERT INTO transactions (family_id, member_id, amount, transaction_type, description, category, transaction_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(ctx, query,
		t.FamilyID, t.MemberID, t.Amount, string(t.TransactionType), t.Description, t.Category, t.TransactionAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

// Update rewrites a ledger row's mutable fields inside the caller's transaction.
func (r *TransactionRepository) Update(ctx context.Context, q database.DBTX, t *models.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = ?, transaction_type = ?, description = ?, category = ?, transaction_at = ?
		WHERE id = ?
	`
	if _, err := q.Exec(ctx, query,
		t.Amount, string(t.TransactionType), t.Description, t.Category, t.TransactionAt, t.ID); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete removes a ledger row inside the caller's transaction.
func (r *TransactionRepository) Delete(ctx context.Context, q database.DBTX, id int64) error {
	if _, err := q.Exec(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a ledger entry by id.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = ?"
	return scanTransaction(r.db.QueryRow(ctx, query, id))
}

// ListByMember returns one page of a member's entries, newest first,
// plus the unpaginated total for the filter.
func (r *TransactionRepository) ListByMember(ctx context.Context, memberID int64, filter TransactionFilter, page models.PageRequest) ([]models.Transaction, int64, error) {
	where, args := buildFilter("member_id", memberID, filter)
	return r.list(ctx, where, args, page)
}

// ListByFamily returns one page of a family's entries across all members.
func (r *TransactionRepository) ListByFamily(ctx context.Context, familyID int64, filter TransactionFilter, page models.PageRequest) ([]models.Transaction, int64, error) {
	where, args := buildFilter("family_id", familyID, filter)
	return r.list(ctx, where, args, page)
}

func (r *TransactionRepository) list(ctx context.Context, where string, args []any, page models.PageRequest) ([]models.Transaction, int64, error) {
	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := "SELECT " + transactionColumns + " FROM transactions " + where +
		" ORDER BY transaction_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.FamilyID, &t.MemberID, &t.Amount, &t.TransactionType,
			&t.Description, &t.Category, &t.TransactionAt, &t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, total, rows.Err()
}

// SumByMember returns the summed magnitude of a member's entries matching
// the filter.
func (r *TransactionRepository) SumByMember(ctx context.Context, memberID int64, filter TransactionFilter) (decimal.Decimal, error) {
	where, args := buildFilter("member_id", memberID, filter)
	query := "SELECT COALESCE(SUM(amount), 0) FROM transactions " + where

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// SignedSumByMember returns the signed sum of all of a member's entries:
// income positive, expense negative. It must always equal the stored balance.
func (r *TransactionRepository) SignedSumByMember(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'INCOME' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE member_id = ?
	`
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, memberID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

func buildFilter(ownerColumn string, ownerID int64, filter TransactionFilter) (string, []any) {
	where := "WHERE " + ownerColumn + " = ?"
	args := []any{ownerID}

	if filter.Type != "" {
		where += " AND transaction_type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.Bounded {
		where += " AND transaction_at >= ? AND transaction_at < ?"
		args = append(args, filter.Start, filter.End)
	}
	return where, args
}
