package service

import (
	"familyledger/internal/apperrors"
	"familyledger/internal/models"
)

// Action enumerates the operations gated by member capability flags.
type Action int

const (
	ActionAddIncome Action = iota
	ActionAddExpense
	ActionViewFamilyReport
	ActionEditTransaction
	ActionDeleteTransaction
	ActionGrantPermissions
)

// Authorize is the single permission gate: a pure function from the
// requested action and the caller's flags to allow or Forbidden. Every
// mutation path runs through it before touching the ledger.
func Authorize(action Action, flags models.PermissionFlags) error {
	switch action {
	case ActionAddIncome:
		if !flags.CanAddIncome {
			return apperrors.Forbidden("you do not have permission to add income")
		}
	case ActionAddExpense:
		// Any member may record their own expenses.
	case ActionViewFamilyReport:
		if !flags.CanViewFamilyReport {
			return apperrors.Forbidden("you do not have permission to view the family report")
		}
	case ActionEditTransaction:
		if !flags.IsFamilyHead {
			return apperrors.Forbidden("only the family head can edit transactions")
		}
	case ActionDeleteTransaction:
		if !flags.IsFamilyHead {
			return apperrors.Forbidden("only the family head can delete transactions")
		}
	case ActionGrantPermissions:
		if !flags.IsFamilyHead {
			return apperrors.Forbidden("only the family head can change permissions")
		}
	}
	return nil
}
