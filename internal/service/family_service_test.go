package service

import (
	"context"
	"testing"

	"familyledger/internal/apperrors"
	"familyledger/internal/models"
)

func TestCreateFamilyMakesCallerHead(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")

	family, member, err := env.family.CreateFamily(context.Background(), head.ID, "Smith", "")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}

	if family.FamilyCode == "" {
		t.Error("CreateFamily() family code is empty")
	}
	if family.FamilyHeadID != member.ID {
		t.Errorf("family head id = %d, want %d", family.FamilyHeadID, member.ID)
	}
	if !member.IsFamilyHead || !member.CanAddIncome || !member.CanViewFamilyReport {
		t.Errorf("head flags = %+v, want all true", member.PermissionFlags)
	}
	if member.Role != models.DefaultRole {
		t.Errorf("role = %q, want %q", member.Role, models.DefaultRole)
	}
	if !member.Balance.IsZero() {
		t.Errorf("initial balance = %s, want 0", member.Balance)
	}
}

func TestCreateFamilyRejectsExistingMember(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	_, _, err := env.family.CreateFamily(context.Background(), head.ID, "Jones", "")
	if !apperrors.Is(err, apperrors.KindBadRequest) {
		t.Errorf("CreateFamily() error = %v, want BadRequest", err)
	}
}

func TestCreateFamilyRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.createFamily("Smith", env.createUser("ana"))

	_, _, err := env.family.CreateFamily(context.Background(), env.createUser("ben").ID, "Smith", "")
	if !apperrors.Is(err, apperrors.KindBadRequest) {
		t.Errorf("CreateFamily() error = %v, want BadRequest", err)
	}
}

func TestJoinFamilyWithCode(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)

	joiner := env.createUser("ben")
	joined, member, err := env.family.JoinFamily(context.Background(), joiner.ID, family.FamilyCode, "")
	if err != nil {
		t.Fatalf("JoinFamily() error = %v", err)
	}
	if joined.ID != family.ID {
		t.Errorf("joined family = %d, want %d", joined.ID, family.ID)
	}
	if member.Role != models.DefaultRole {
		t.Errorf("role = %q, want %q", member.Role, models.DefaultRole)
	}
	if member.IsFamilyHead || member.CanAddIncome || member.CanViewFamilyReport {
		t.Errorf("joiner flags = %+v, want all false", member.PermissionFlags)
	}

	// The same code keeps working for further users.
	carol := env.createUser("carol")
	if _, _, err := env.family.JoinFamily(context.Background(), carol.ID, family.FamilyCode, ""); err != nil {
		t.Fatalf("JoinFamily() second join error = %v", err)
	}

	// An existing member cannot join again.
	_, _, err = env.family.JoinFamily(context.Background(), joiner.ID, family.FamilyCode, "")
	if !apperrors.Is(err, apperrors.KindBadRequest) {
		t.Errorf("JoinFamily() rejoin error = %v, want BadRequest", err)
	}
}

func TestJoinFamilyUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("ana")

	_, _, err := env.family.JoinFamily(context.Background(), user.ID, "no-such-code", "")
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("JoinFamily() error = %v, want NotFound", err)
	}
}

func TestGrantPermissionsPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)
	member := env.joinFamily(env.createUser("ben"), family.FamilyCode)

	yes := true
	updated, err := env.family.GrantPermissions(context.Background(), head.ID, member.ID, PermissionGrant{
		CanAddIncome: &yes,
	})
	if err != nil {
		t.Fatalf("GrantPermissions() error = %v", err)
	}

	if !updated.CanAddIncome {
		t.Error("CanAddIncome = false after grant, want true")
	}
	if updated.IsFamilyHead || updated.CanViewFamilyReport {
		t.Errorf("untouched flags changed: %+v", updated.PermissionFlags)
	}
}

func TestGrantPermissionsRequiresHead(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, headMember := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	env.joinFamily(joiner, family.FamilyCode)

	yes := true
	_, err := env.family.GrantPermissions(context.Background(), joiner.ID, headMember.ID, PermissionGrant{
		CanAddIncome: &yes,
	})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("GrantPermissions() error = %v, want Forbidden", err)
	}
}

func TestGrantPermissionsRejectsOtherFamily(t *testing.T) {
	env := newTestEnv(t)
	headA := env.createUser("ana")
	env.createFamily("Smith", headA)

	headB := env.createUser("ben")
	_, memberB := env.createFamily("Jones", headB)

	yes := true
	_, err := env.family.GrantPermissions(context.Background(), headA.ID, memberB.ID, PermissionGrant{
		CanAddIncome: &yes,
	})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("GrantPermissions() error = %v, want Forbidden", err)
	}
}

func TestGetFamilyMembers(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)
	env.joinFamily(env.createUser("ben"), family.FamilyCode)

	members, err := env.family.GetFamilyMembers(context.Background(), head.ID)
	if err != nil {
		t.Fatalf("GetFamilyMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("GetFamilyMembers() returned %d members, want 2", len(members))
	}
	names := map[string]bool{}
	for _, m := range members {
		names[m.Username] = true
	}
	if !names["ana"] || !names["ben"] {
		t.Errorf("member usernames = %v, want ana and ben", names)
	}
}

func TestGetFamilyReturnsJoinCode(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	created, _ := env.createFamily("Smith", head)

	family, err := env.family.GetFamily(context.Background(), head.ID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if family.FamilyCode != created.FamilyCode {
		t.Errorf("family code = %q, want %q", family.FamilyCode, created.FamilyCode)
	}
}

func TestGetFamilyWithoutMembership(t *testing.T) {
	env := newTestEnv(t)
	loner := env.createUser("ana")

	_, err := env.family.GetFamily(context.Background(), loner.ID)
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("GetFamily() error = %v, want NotFound", err)
	}
}
