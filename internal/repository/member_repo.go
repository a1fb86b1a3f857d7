package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"familyledger/internal/database"
	"familyledger/internal/models"
)

// MemberRepository handles database operations for the member ledger.
// Balances are never adjusted ad hoc: mutations go through locking reads
// and writes inside the caller's transaction.
type MemberRepository struct {
	db *database.DB
}

// NewMemberRepository creates a new member repository.
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, user_id, family_id, role, is_family_head, can_add_income,
	can_view_family_report, balance, joined_at`

func scanMember(row *sql.Row) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.FamilyID,
		&member.Role,
		&member.IsFamilyHead,
		&member.CanAddIncome,
		&member.CanViewFamilyReport,
		&member.Balance,
		&member.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// CreateMember inserts a non-head member with the given role and flags.
func (r *MemberRepository) CreateMember(ctx context.Context, userID, familyID int64, role string, flags models.PermissionFlags) (*models.Member, error) {
	query := `
		INSERT INTO members (user_id, family_id, role, is_family_head, can_add_income, can_view_family_report)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		userID, familyID, role, flags.IsFamilyHead, flags.CanAddIncome, flags.CanViewFamilyReport)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	return r.GetMemberByID(ctx, id)
}

// GetMemberByID retrieves a member by id.
func (r *MemberRepository) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE id = ?"
	return scanMember(r.db.QueryRow(ctx, query, id))
}

// GetMemberByUserID retrieves the member row owned by a user.
func (r *MemberRepository) GetMemberByUserID(ctx context.Context, userID int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE user_id = ?"
	return scanMember(r.db.QueryRow(ctx, query, userID))
}

// GetMemberInFamily retrieves a user's member row within one family.
func (r *MemberRepository) GetMemberInFamily(ctx context.Context, userID, familyID int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE user_id = ? AND family_id = ?"
	return scanMember(r.db.QueryRow(ctx, query, userID, familyID))
}

// GetFamilyMembers retrieves the roster of a family with user identities.
func (r *MemberRepository) GetFamilyMembers(ctx context.Context, familyID int64) ([]models.MemberWithUser, error) {
	query := `
		SELECT m.id, m.user_id, m.family_id, m.role, m.is_family_head, m.can_add_income,
			m.can_view_family_report, m.balance, m.joined_at, u.username, u.email
		FROM members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.family_id = ?
		ORDER BY m.joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberWithUser
	for rows.Next() {
		var m models.MemberWithUser
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.FamilyID, &m.Role, &m.IsFamilyHead, &m.CanAddIncome,
			&m.CanViewFamilyReport, &m.Balance, &m.JoinedAt, &m.Username, &m.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdatePermissions replaces a member's capability flags. Partial-update
// merging is the service's job; the repository writes the full set.
func (r *MemberRepository) UpdatePermissions(ctx context.Context, memberID int64, flags models.PermissionFlags) error {
	query := `
		UPDATE members SET is_family_head = ?, can_add_income = ?, can_view_family_report = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(ctx, query,
		flags.IsFamilyHead, flags.CanAddIncome, flags.CanViewFamilyReport, memberID); err != nil {
		return fmt.Errorf("failed to update permissions: %w", err)
	}
	return nil
}

// GetMemberForUpdate reads a member inside the caller's transaction with a
// locking read where the engine supports it, so a concurrent balance
// check-then-write cannot suffer a lost update.
func (r *MemberRepository) GetMemberForUpdate(ctx context.Context, q database.DBTX, memberID int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE id = ?"
	if clause := q.GetDialect().LockingClause(); clause != "" {
		query = strings.TrimSpace(query) + " " + clause
	}
	return scanMember(q.QueryRow(ctx, query, memberID))
}

// SetBalance writes a member's balance inside the caller's transaction.
func (r *MemberRepository) SetBalance(ctx context.Context, q database.DBTX, memberID int64, balance decimal.Decimal) error {
	if _, err := q.Exec(ctx, "UPDATE members SET balance = ? WHERE id = ?", balance, memberID); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}
