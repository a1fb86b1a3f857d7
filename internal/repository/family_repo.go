package repository

import (
	"context"
	"database/sql"
	"fmt"

	"familyledger/internal/database"
	"familyledger/internal/models"
)

// FamilyRepository handles database operations for families.
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository.
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

const familyColumns = "id, name, family_code, family_head_id, created_at, updated_at"

func scanFamily(row *sql.Row) (*models.Family, error) {
	family := &models.Family{}
	err := row.Scan(
		&family.ID,
		&family.Name,
		&family.FamilyCode,
		&family.FamilyHeadID,
		&family.CreatedAt,
		&family.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// CreateFamily creates a family together with its head member in one
// transaction: the family row, the creator's member row with full
// permissions, and the family_head_id back-reference all commit or none do.
func (r *FamilyRepository) CreateFamily(ctx context.Context, name, familyCode string, creatorUserID int64, role string) (*models.Family, *models.Member, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	familyID, err := tx.ExecReturningID(ctx,
		"INSERT INTO families (name, family_code) VALUES (?, ?)", name, familyCode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create family: %w", err)
	}

	flags := models.HeadFlags()
	memberID, err := tx.ExecReturningID(ctx, `
		INSERT INTO members (user_id, family_id, role, is_family_head, can_add_income, can_view_family_report)
		VALUES (?, ?, ?, ?, ?, ?)`,
		creatorUserID, familyID, role, flags.IsFamilyHead, flags.CanAddIncome, flags.CanViewFamilyReport)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create head member: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE families SET family_head_id = ? WHERE id = ?", memberID, familyID); err != nil {
		return nil, nil, fmt.Errorf("failed to record family head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	family, err := r.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, nil, err
	}
	member := &models.Member{
		ID:              memberID,
		UserID:          creatorUserID,
		FamilyID:        familyID,
		Role:            role,
		PermissionFlags: flags,
	}
	return family, member, nil
}

// GetFamilyByID retrieves a family by id.
func (r *FamilyRepository) GetFamilyByID(ctx context.Context, id int64) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	return scanFamily(r.db.QueryRow(ctx, query, id))
}

// GetFamilyByName retrieves a family by its unique name.
func (r *FamilyRepository) GetFamilyByName(ctx context.Context, name string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE name = ?"
	return scanFamily(r.db.QueryRow(ctx, query, name))
}

// GetFamilyByCode retrieves a family by its join code.
func (r *FamilyRepository) GetFamilyByCode(ctx context.Context, code string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE family_code = ?"
	return scanFamily(r.db.QueryRow(ctx, query, code))
}
