package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Family is a group of members sharing a ledger. The join code is handed
// out by the family head so other users can join.
type Family struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FamilyCode   string    `json:"familyCode"`
	FamilyHeadID int64     `json:"familyHeadId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultRole is assigned to members who join without supplying one.
const DefaultRole = "ANGGOTA"

// PermissionFlags is the capability set attached to each member.
type PermissionFlags struct {
	IsFamilyHead        bool `json:"isFamilyHead"`
	CanAddIncome        bool `json:"canAddIncome"`
	CanViewFamilyReport bool `json:"canViewFamilyReport"`
}

// HeadFlags returns the full capability set granted to a family creator.
func HeadFlags() PermissionFlags {
	return PermissionFlags{IsFamilyHead: true, CanAddIncome: true, CanViewFamilyReport: true}
}

// Member is a user's participation record within one family. It owns the
// authoritative balance: always the signed sum of the member's transactions.
type Member struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"userId"`
	FamilyID int64           `json:"familyId"`
	Role     string          `json:"role"`
	PermissionFlags
	Balance  decimal.Decimal `json:"balance"`
	JoinedAt time.Time       `json:"joinedAt"`
}

// MemberWithUser pairs a member with the owning user's public identity,
// used for family rosters.
type MemberWithUser struct {
	Member
	Username string `json:"username"`
	Email    string `json:"email"`
}
