package service

import (
	"context"
	"testing"
	"time"

	"familyledger/internal/apperrors"
	"familyledger/internal/models"
)

func TestCreateIncomeIncreasesBalance(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	entry := env.addEntry(head.ID, models.TypeIncome, "500", "salary")

	env.assertBalance(member.ID, "500")
	if entry.ID == 0 {
		t.Error("CreateTransaction() returned id 0")
	}
	if entry.TransactionType != models.TypeIncome {
		t.Errorf("type = %q, want INCOME", entry.TransactionType)
	}

	entries, meta, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if meta.Total != 1 || len(entries) != 1 {
		t.Errorf("ListTransactions() total = %d, len = %d; want 1, 1", meta.Total, len(entries))
	}
}

func TestExpenseExceedingBalanceRejected(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)
	env.addEntry(head.ID, models.TypeIncome, "100", "allowance")

	_, err := env.ledger.CreateTransaction(context.Background(), head.ID, TransactionInput{
		Amount:          dec(t, "200"),
		TransactionType: models.TypeExpense,
		Description:     "too much",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if !apperrors.Is(err, apperrors.KindInsufficientFunds) {
		t.Fatalf("CreateTransaction() error = %v, want InsufficientFunds", err)
	}

	// Nothing was applied: balance and row count are untouched.
	env.assertBalance(member.ID, "100")
	_, meta, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if meta.Total != 1 {
		t.Errorf("transaction count = %d, want 1", meta.Total)
	}
}

func TestExpenseDecreasesBalance(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	env.addEntry(head.ID, models.TypeIncome, "100", "allowance")
	env.addEntry(head.ID, models.TypeExpense, "40.25", "groceries")

	env.assertBalance(member.ID, "59.75")
}

func TestCreateIncomeRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	env.joinFamily(joiner, family.FamilyCode)

	_, err := env.ledger.CreateTransaction(context.Background(), joiner.ID, TransactionInput{
		Amount:          dec(t, "10"),
		TransactionType: models.TypeIncome,
		Description:     "pocket money",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("CreateTransaction() error = %v, want Forbidden", err)
	}
}

func TestAnyMemberCanRecordExpense(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	member := env.joinFamily(joiner, family.FamilyCode)

	// Seed the joiner's balance with a transfer from the head.
	env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	if _, err := env.transfer.Transfer(context.Background(), head.ID, member.ID, dec(t, "50"), "seed"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	env.addEntry(joiner.ID, models.TypeExpense, "20", "snacks")
	env.assertBalance(member.ID, "30")
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	base := TransactionInput{
		Amount:          dec(t, "10"),
		TransactionType: models.TypeIncome,
		Description:     "ok",
		Category:        "General",
		TransactionAt:   time.Now(),
	}

	tests := []struct {
		name   string
		mutate func(*TransactionInput)
	}{
		{name: "zero amount", mutate: func(in *TransactionInput) { in.Amount = dec(t, "0") }},
		{name: "negative amount", mutate: func(in *TransactionInput) { in.Amount = dec(t, "-5") }},
		{name: "unknown type", mutate: func(in *TransactionInput) { in.TransactionType = "REFUND" }},
		{name: "missing description", mutate: func(in *TransactionInput) { in.Description = "" }},
		{name: "missing category", mutate: func(in *TransactionInput) { in.Category = "" }},
		{name: "missing timestamp", mutate: func(in *TransactionInput) { in.TransactionAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)
			_, err := env.ledger.CreateTransaction(context.Background(), head.ID, input)
			if !apperrors.Is(err, apperrors.KindBadRequest) {
				t.Errorf("CreateTransaction() error = %v, want BadRequest", err)
			}
		})
	}
}

func TestEditTransactionReversesAndReapplies(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	env.addEntry(head.ID, models.TypeIncome, "150", "salary")
	expense := env.addEntry(head.ID, models.TypeExpense, "50", "groceries")
	env.assertBalance(member.ID, "100")

	// Flipping the expense of 50 to an income of 50 is a +100 swing.
	updated, err := env.ledger.EditTransaction(context.Background(), head.ID, expense.ID, TransactionInput{
		Amount:          dec(t, "50"),
		TransactionType: models.TypeIncome,
		Description:     "refund",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("EditTransaction() error = %v", err)
	}

	env.assertBalance(member.ID, "200")
	if updated.TransactionType != models.TypeIncome || updated.Description != "refund" {
		t.Errorf("updated entry = %+v, want income refund", updated)
	}
}

func TestEditTransactionRejectsNegativeResult(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	income := env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	env.addEntry(head.ID, models.TypeExpense, "80", "groceries")
	env.assertBalance(member.ID, "20")

	// Turning the income into an expense would land at -160.
	_, err := env.ledger.EditTransaction(context.Background(), head.ID, income.ID, TransactionInput{
		Amount:          dec(t, "80"),
		TransactionType: models.TypeExpense,
		Description:     "oops",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if !apperrors.Is(err, apperrors.KindInsufficientFunds) {
		t.Fatalf("EditTransaction() error = %v, want InsufficientFunds", err)
	}

	// The original entry and the balance are untouched.
	env.assertBalance(member.ID, "20")
	unchanged, err := env.txs.GetTransactionByID(context.Background(), income.ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if unchanged.TransactionType != models.TypeIncome || !unchanged.Amount.Equal(dec(t, "100")) {
		t.Errorf("entry changed after rejected edit: %+v", unchanged)
	}
}

func TestEditTransactionAdjustsOwnersBalance(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, headMember := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	member := env.joinFamily(joiner, family.FamilyCode)

	env.addEntry(head.ID, models.TypeIncome, "200", "salary")
	if _, err := env.transfer.Transfer(context.Background(), head.ID, member.ID, dec(t, "100"), "seed"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	expense := env.addEntry(joiner.ID, models.TypeExpense, "30", "snacks")
	env.assertBalance(member.ID, "70")

	// The head edits the joiner's entry; the joiner's balance moves.
	if _, err := env.ledger.EditTransaction(context.Background(), head.ID, expense.ID, TransactionInput{
		Amount:          dec(t, "10"),
		TransactionType: models.TypeExpense,
		Description:     "snacks",
		Category:        "General",
		TransactionAt:   time.Now(),
	}); err != nil {
		t.Fatalf("EditTransaction() error = %v", err)
	}

	env.assertBalance(member.ID, "90")
	env.assertBalance(headMember.ID, "100")
}

func TestNonHeadCannotEditOrDelete(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, member := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	env.joinFamily(joiner, family.FamilyCode)

	entry := env.addEntry(head.ID, models.TypeIncome, "100", "salary")

	_, err := env.ledger.EditTransaction(context.Background(), joiner.ID, entry.ID, TransactionInput{
		Amount:          dec(t, "1"),
		TransactionType: models.TypeIncome,
		Description:     "hijack",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("EditTransaction() error = %v, want Forbidden", err)
	}

	if err := env.ledger.DeleteTransaction(context.Background(), joiner.ID, entry.ID); !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("DeleteTransaction() error = %v, want Forbidden", err)
	}

	// Nothing changed.
	env.assertBalance(member.ID, "100")
	unchanged, err := env.txs.GetTransactionByID(context.Background(), entry.ID)
	if err != nil || unchanged == nil {
		t.Fatalf("GetTransactionByID() = %v, %v; want entry", unchanged, err)
	}
}

func TestEditRejectsOtherFamilysTransaction(t *testing.T) {
	env := newTestEnv(t)
	headA := env.createUser("ana")
	env.createFamily("Smith", headA)
	entry := env.addEntry(headA.ID, models.TypeIncome, "100", "salary")

	headB := env.createUser("ben")
	env.createFamily("Jones", headB)

	_, err := env.ledger.EditTransaction(context.Background(), headB.ID, entry.ID, TransactionInput{
		Amount:          dec(t, "1"),
		TransactionType: models.TypeIncome,
		Description:     "hijack",
		Category:        "General",
		TransactionAt:   time.Now(),
	})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("EditTransaction() error = %v, want Forbidden", err)
	}
}

func TestDeleteTransactionReversesEffect(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	expense := env.addEntry(head.ID, models.TypeExpense, "80", "groceries")
	env.assertBalance(member.ID, "20")

	if err := env.ledger.DeleteTransaction(context.Background(), head.ID, expense.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	env.assertBalance(member.ID, "100")
	gone, err := env.txs.GetTransactionByID(context.Background(), expense.ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if gone != nil {
		t.Error("deleted entry still present")
	}
}

func TestDeleteIncomeAlreadySpentRejected(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	_, member := env.createFamily("Smith", head)

	income := env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	env.addEntry(head.ID, models.TypeExpense, "80", "groceries")
	env.assertBalance(member.ID, "20")

	// Reversing the income would leave the balance at -80.
	err := env.ledger.DeleteTransaction(context.Background(), head.ID, income.ID)
	if !apperrors.Is(err, apperrors.KindInsufficientFunds) {
		t.Fatalf("DeleteTransaction() error = %v, want InsufficientFunds", err)
	}
	env.assertBalance(member.ID, "20")
}

func TestDeleteUnknownTransaction(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	err := env.ledger.DeleteTransaction(context.Background(), head.ID, 9999)
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("DeleteTransaction() error = %v, want NotFound", err)
	}
}

func TestBalanceMatchesSignedSum(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, headMember := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	member := env.joinFamily(joiner, family.FamilyCode)

	env.addEntry(head.ID, models.TypeIncome, "500", "salary")
	env.addEntry(head.ID, models.TypeExpense, "120.50", "groceries")
	if _, err := env.transfer.Transfer(context.Background(), head.ID, member.ID, dec(t, "75.25"), "allowance"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	env.addEntry(joiner.ID, models.TypeExpense, "25", "snacks")

	for _, id := range []int64{headMember.ID, member.ID} {
		sum, err := env.txs.SignedSumByMember(context.Background(), id)
		if err != nil {
			t.Fatalf("SignedSumByMember() error = %v", err)
		}
		balance := env.balance(id)
		if !balance.Equal(sum) {
			t.Errorf("member %d balance = %s, signed sum = %s", id, balance, sum)
		}
	}
}

func TestListTransactionsPagination(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	for i := 0; i < 25; i++ {
		env.addEntry(head.ID, models.TypeIncome, "10", "entry")
	}

	entries, meta, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Page: models.PageRequest{Page: 2, Limit: 10},
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}

	if len(entries) != 10 {
		t.Errorf("page length = %d, want 10", len(entries))
	}
	if meta.Total != 25 || meta.TotalPages != 3 || meta.Page != 2 {
		t.Errorf("meta = %+v, want total=25 totalPages=3 page=2", meta)
	}

	last, _, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Page: models.PageRequest{Page: 3, Limit: 10},
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(last) != 5 {
		t.Errorf("last page length = %d, want 5", len(last))
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	first := env.addEntry(head.ID, models.TypeIncome, "10", "first")
	second := env.addEntry(head.ID, models.TypeIncome, "20", "second")

	entries, _, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Errorf("order = [%d, %d], want [%d, %d]", entries[0].ID, entries[1].ID, second.ID, first.ID)
	}
}

func TestListTransactionsTypeFilter(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	env.addEntry(head.ID, models.TypeExpense, "30", "groceries")
	env.addEntry(head.ID, models.TypeExpense, "20", "transport")

	entries, meta, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Type: models.TypeExpense,
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if meta.Total != 2 {
		t.Errorf("total = %d, want 2", meta.Total)
	}
	for _, e := range entries {
		if e.TransactionType != models.TypeExpense {
			t.Errorf("entry %d type = %q, want EXPENSE", e.ID, e.TransactionType)
		}
	}
}

func TestListTransactionsMonthFilter(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	march := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.Local)
	april := time.Date(2025, time.April, 2, 12, 0, 0, 0, time.Local)

	for _, at := range []time.Time{march, march.AddDate(0, 0, 1), april} {
		if _, err := env.ledger.CreateTransaction(context.Background(), head.ID, TransactionInput{
			Amount:          dec(t, "10"),
			TransactionType: models.TypeIncome,
			Description:     "entry",
			Category:        "General",
			TransactionAt:   at,
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	_, meta, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Month: 3,
		Year:  2025,
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if meta.Total != 2 {
		t.Errorf("march total = %d, want 2", meta.Total)
	}
}

func TestListTransactionsRejectsConflictingFilters(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	_, _, err := env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Window: models.WindowMonth,
		Month:  3,
		Year:   2025,
	})
	if !apperrors.Is(err, apperrors.KindBadRequest) {
		t.Errorf("ListTransactions() error = %v, want BadRequest", err)
	}

	_, _, err = env.ledger.ListTransactions(context.Background(), head.ID, ListParams{
		Window: "fortnight",
	})
	if !apperrors.Is(err, apperrors.KindBadRequest) {
		t.Errorf("ListTransactions() error = %v, want BadRequest", err)
	}
}

func TestTotalTransactions(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	env.createFamily("Smith", head)

	env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	env.addEntry(head.ID, models.TypeIncome, "50.50", "bonus")
	env.addEntry(head.ID, models.TypeExpense, "30", "groceries")

	total, err := env.ledger.TotalTransactions(context.Background(), head.ID, models.TypeIncome, models.WindowAll)
	if err != nil {
		t.Fatalf("TotalTransactions() error = %v", err)
	}
	if !total.Equal(dec(t, "150.50")) {
		t.Errorf("income total = %s, want 150.50", total)
	}

	total, err = env.ledger.TotalTransactions(context.Background(), head.ID, models.TypeExpense, models.WindowDay)
	if err != nil {
		t.Fatalf("TotalTransactions() error = %v", err)
	}
	if !total.Equal(dec(t, "30")) {
		t.Errorf("today's expense total = %s, want 30", total)
	}
}

func TestListFamilyTransactionsRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	head := env.createUser("ana")
	family, _ := env.createFamily("Smith", head)
	joiner := env.createUser("ben")
	member := env.joinFamily(joiner, family.FamilyCode)

	env.addEntry(head.ID, models.TypeIncome, "100", "salary")
	if _, err := env.transfer.Transfer(context.Background(), head.ID, member.ID, dec(t, "10"), "seed"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	_, _, err := env.ledger.ListFamilyTransactions(context.Background(), joiner.ID, ListParams{})
	if !apperrors.Is(err, apperrors.KindForbidden) {
		t.Errorf("ListFamilyTransactions() error = %v, want Forbidden", err)
	}

	// The head sees entries from every member.
	entries, meta, err := env.ledger.ListFamilyTransactions(context.Background(), head.ID, ListParams{})
	if err != nil {
		t.Fatalf("ListFamilyTransactions() error = %v", err)
	}
	if meta.Total != 3 {
		t.Errorf("family total = %d, want 3 (income plus both transfer legs)", meta.Total)
	}
	memberIDs := map[int64]bool{}
	for _, e := range entries {
		memberIDs[e.MemberID] = true
	}
	if len(memberIDs) != 2 {
		t.Errorf("family report covers %d members, want 2", len(memberIDs))
	}
}

func TestGetBalanceWithoutMembership(t *testing.T) {
	env := newTestEnv(t)
	loner := env.createUser("ana")

	_, err := env.ledger.GetBalance(context.Background(), loner.ID)
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("GetBalance() error = %v, want NotFound", err)
	}
}
