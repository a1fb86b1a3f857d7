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

// TransferService moves money between two members of the same family. A
// transfer is recorded as a matched pair of ledger entries, an expense on
// the sender and an income on the recipient, written with both balance
// updates in one store transaction.
type TransferService struct {
	db         *database.DB
	userRepo   *repository.UserRepository
	memberRepo *repository.MemberRepository
	txRepo     *repository.TransactionRepository
	now        func() time.Time
}

// NewTransferService creates a new transfer service.
func NewTransferService(db *database.DB, userRepo *repository.UserRepository, memberRepo *repository.MemberRepository, txRepo *repository.TransactionRepository) *TransferService {
	return &TransferService{
		db:         db,
		userRepo:   userRepo,
		memberRepo: memberRepo,
		txRepo:     txRepo,
		now:        time.Now,
	}
}

// TransferResult reports both halves of a completed transfer.
type TransferResult struct {
	SenderTransaction    *models.Transaction `json:"senderTransaction"`
	RecipientTransaction *models.Transaction `json:"recipientTransaction"`
	SenderBalance        decimal.Decimal     `json:"senderBalance"`
}

// Transfer moves amount from the calling user's member to another member of
// the same family. Either all four effects commit (two ledger rows, two
// balance updates) or none do.
func (s *TransferService) Transfer(ctx context.Context, senderUserID, recipientMemberID int64, amount decimal.Decimal, description string) (*TransferResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.BadRequest("amount must be a positive number")
	}
	if description == "" {
		return nil, apperrors.BadRequest("description is required")
	}

	sender, err := s.memberRepo.GetMemberByUserID(ctx, senderUserID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, apperrors.NotFound("member not found")
	}
	if sender.ID == recipientMemberID {
		return nil, apperrors.BadRequest("cannot transfer to yourself")
	}

	recipient, err := s.memberRepo.GetMemberByID(ctx, recipientMemberID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, apperrors.NotFound("recipient member not found")
	}
	if recipient.FamilyID != sender.FamilyID {
		return nil, apperrors.Forbidden("recipient is not in your family")
	}

	senderUser, err := s.userRepo.GetUserByID(ctx, senderUserID)
	if err != nil {
		return nil, err
	}
	recipientUser, err := s.userRepo.GetUserByID(ctx, recipient.UserID)
	if err != nil {
		return nil, err
	}
	if senderUser == nil || recipientUser == nil {
		return nil, apperrors.NotFound("user not found")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock both member rows in ascending id order so two concurrent
	// transfers between the same pair cannot deadlock.
	first, second := sender.ID, recipient.ID
	if second < first {
		first, second = second, first
	}
	lockedFirst, err := s.memberRepo.GetMemberForUpdate(ctx, tx, first)
	if err != nil {
		return nil, err
	}
	lockedSecond, err := s.memberRepo.GetMemberForUpdate(ctx, tx, second)
	if err != nil {
		return nil, err
	}
	if lockedFirst == nil || lockedSecond == nil {
		return nil, apperrors.NotFound("member not found")
	}

	lockedSender, lockedRecipient := lockedFirst, lockedSecond
	if lockedSender.ID != sender.ID {
		lockedSender, lockedRecipient = lockedSecond, lockedFirst
	}

	senderBalance := lockedSender.Balance.Sub(amount)
	if senderBalance.IsNegative() {
		return nil, apperrors.InsufficientFunds("insufficient balance for this transfer")
	}
	recipientBalance := lockedRecipient.Balance.Add(amount)

	// Both halves carry the same timestamp so windowed queries agree.
	transferredAt := s.now()

	outgoing := &models.Transaction{
		FamilyID:        sender.FamilyID,
		MemberID:        sender.ID,
		Amount:          amount,
		TransactionType: models.TypeExpense,
		Description:     fmt.Sprintf("Transfer to %s: %s", recipientUser.Username, description),
		Category:        models.TransferCategory,
		TransactionAt:   transferredAt,
	}
	incoming := &models.Transaction{
		FamilyID:        sender.FamilyID,
		MemberID:        recipient.ID,
		Amount:          amount,
		TransactionType: models.TypeIncome,
		Description:     fmt.Sprintf("Transfer from %s: %s", senderUser.Username, description),
		Category:        models.TransferCategory,
		TransactionAt:   transferredAt,
	}

	outgoingID, err := s.txRepo.Insert(ctx, tx, outgoing)
	if err != nil {
		return nil, err
	}
	incomingID, err := s.txRepo.Insert(ctx, tx, incoming)
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.SetBalance(ctx, tx, sender.ID, senderBalance); err != nil {
		return nil, err
	}
	if err := s.memberRepo.SetBalance(ctx, tx, recipient.ID, recipientBalance); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	outgoing.ID = outgoingID
	incoming.ID = incomingID
	return &TransferResult{
		SenderTransaction:    outgoing,
		RecipientTransaction: incoming,
		SenderBalance:        senderBalance,
	}, nil
}
