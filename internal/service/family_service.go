package service

import (
	"context"
	"fmt"
	"strings"

	"familyledger/internal/apperrors"
	"familyledger/internal/models"
	"familyledger/internal/repository"
	"familyledger/internal/security"
)

// FamilyService manages family creation, membership, and permission grants.
type FamilyService struct {
	familyRepo *repository.FamilyRepository
	memberRepo *repository.MemberRepository
}

// NewFamilyService creates a new family service.
func NewFamilyService(familyRepo *repository.FamilyRepository, memberRepo *repository.MemberRepository) *FamilyService {
	return &FamilyService{familyRepo: familyRepo, memberRepo: memberRepo}
}

// CreateFamily creates a family and its head member. The creator receives
// the full capability set; the family name must be unique.
func (s *FamilyService) CreateFamily(ctx context.Context, userID int64, name, role string) (*models.Family, *models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apperrors.BadRequest("family name is required")
	}
	if role = strings.TrimSpace(role); role == "" {
		role = models.DefaultRole
	}

	existing, err := s.memberRepo.GetMemberByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperrors.BadRequest("user already belongs to a family")
	}

	duplicate, err := s.familyRepo.GetFamilyByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if duplicate != nil {
		return nil, nil, apperrors.BadRequest("family name already exists")
	}

	family, member, err := s.familyRepo.CreateFamily(ctx, name, security.GenerateFamilyCode(), userID, role)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create family: %w", err)
	}
	return family, member, nil
}

// JoinFamily adds the user to the family behind the join code. Joiners get
// the supplied (or default) role with every permission flag off.
func (s *FamilyService) JoinFamily(ctx context.Context, userID int64, familyCode, role string) (*models.Family, *models.Member, error) {
	familyCode = strings.TrimSpace(familyCode)
	if familyCode == "" {
		return nil, nil, apperrors.BadRequest("family code is required")
	}
	if role = strings.TrimSpace(role); role == "" {
		role = models.DefaultRole
	}

	family, err := s.familyRepo.GetFamilyByCode(ctx, familyCode)
	if err != nil {
		return nil, nil, err
	}
	if family == nil {
		return nil, nil, apperrors.NotFound("family not found")
	}

	existing, err := s.memberRepo.GetMemberByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		if existing.FamilyID == family.ID {
			return nil, nil, apperrors.BadRequest("user is already a member of this family")
		}
		return nil, nil, apperrors.BadRequest("user already belongs to a family")
	}

	member, err := s.memberRepo.CreateMember(ctx, userID, family.ID, role, models.PermissionFlags{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join family: %w", err)
	}
	return family, member, nil
}

// PermissionGrant is a partial update: nil fields keep their current value.
type PermissionGrant struct {
	IsFamilyHead        *bool
	CanAddIncome        *bool
	CanViewFamilyReport *bool
}

// GrantPermissions updates only the supplied flags of a member in the
// caller's family. Only the family head may grant or revoke.
func (s *FamilyService) GrantPermissions(ctx context.Context, callerUserID, targetMemberID int64, grant PermissionGrant) (*models.Member, error) {
	caller, err := s.memberRepo.GetMemberByUserID(ctx, callerUserID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, apperrors.NotFound("member not found")
	}
	if err := Authorize(ActionGrantPermissions, caller.PermissionFlags); err != nil {
		return nil, err
	}

	target, err := s.memberRepo.GetMemberByID(ctx, targetMemberID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperrors.NotFound("target member not found")
	}
	if target.FamilyID != caller.FamilyID {
		return nil, apperrors.Forbidden("target member is not in your family")
	}

	flags := target.PermissionFlags
	if grant.IsFamilyHead != nil {
		flags.IsFamilyHead = *grant.IsFamilyHead
	}
	if grant.CanAddIncome != nil {
		flags.CanAddIncome = *grant.CanAddIncome
	}
	if grant.CanViewFamilyReport != nil {
		flags.CanViewFamilyReport = *grant.CanViewFamilyReport
	}

	if err := s.memberRepo.UpdatePermissions(ctx, target.ID, flags); err != nil {
		return nil, err
	}
	target.PermissionFlags = flags
	return target, nil
}

// GetFamilyMembers returns the roster of the caller's family.
func (s *FamilyService) GetFamilyMembers(ctx context.Context, callerUserID int64) ([]models.MemberWithUser, error) {
	caller, err := s.memberRepo.GetMemberByUserID(ctx, callerUserID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, apperrors.NotFound("member not found")
	}
	return s.memberRepo.GetFamilyMembers(ctx, caller.FamilyID)
}

// GetFamily returns the caller's family, including its join code.
func (s *FamilyService) GetFamily(ctx context.Context, callerUserID int64) (*models.Family, error) {
	caller, err := s.memberRepo.GetMemberByUserID(ctx, callerUserID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, apperrors.NotFound("member not found")
	}

	family, err := s.familyRepo.GetFamilyByID(ctx, caller.FamilyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, apperrors.NotFound("family not found")
	}
	return family, nil
}
