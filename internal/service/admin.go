package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/ddanilov/bank-cards/internal/utils"
)

// RequestCreateCard appends a card creation request to the pending buffer.
// The target user is not validated here, validation is deferred to commit.
func (s *Service) RequestCreateCard(req models.CardRequest) {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	s.pendingCreates = append(s.pendingCreates, req)
	s.log.Infof("Queued card creation request for user %d", req.UserID)
}

// CommitCardCreations drains the pending creation buffer: every request is
// resolved to its user, a fresh card is generated, and the whole batch is
// persisted atomically. On any failure the buffer stays intact so the batch
// can be retried after the cause is fixed.
func (s *Service) CommitCardCreations(ctx context.Context) error {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if len(s.pendingCreates) == 0 {
		return nil
	}

	now := time.Now()
	cards := make([]*models.Card, 0, len(s.pendingCreates))
	owners := make([]*models.User, 0, len(s.pendingCreates))
	for _, req := range s.pendingCreates {
		user, err := s.users.FindByID(ctx, req.UserID)
		if err != nil {
			return err
		}

		number, err := utils.GenerateCardNumber("400000", 16)
		if err != nil {
			return fmt.Errorf("failed to generate card number: %w", err)
		}

		cards = append(cards, &models.Card{
			UserID:       req.UserID,
			Number:       number,
			NumberMasked: utils.MaskCardNumber(number),
			Holder:       req.Holder,
			ExpiryDate:   now.AddDate(s.config.ExpiryYears, 0, 0),
			Status:       models.StatusActive,
			Balance:      req.InitialBalance,
		})
		owners = append(owners, user)
	}

	if err := s.cards.CreateAll(ctx, cards); err != nil {
		return err
	}
	s.pendingCreates = nil

	for i, card := range cards {
		s.notifyCardIssued(owners[i], card)
	}
	s.log.Infof("Committed %d card creation requests", len(cards))
	return nil
}

// RequestBlockCard validates that the card exists and stores a pending block
// request for the user. A later request for the same user overwrites an
// earlier uncommitted one.
func (s *Service) RequestBlockCard(ctx context.Context, userID int64, number string) error {
	if _, err := s.cards.FindByUserAndNumber(ctx, userID, number); err != nil {
		return err
	}

	s.blockMu.Lock()
	defer s.blockMu.Unlock()
	s.pendingBlocks[userID] = number
	s.log.Infof("Queued block request for user %d", userID)
	return nil
}

// CommitCardBlocks drains the pending block buffer: every card is re-resolved
// and set to BLOCKED, and the whole batch is persisted atomically. On any
// failure the buffer stays intact so the batch can be retried.
func (s *Service) CommitCardBlocks(ctx context.Context) error {
	s.blockMu.Lock()
	defer s.blockMu.Unlock()

	if len(s.pendingBlocks) == 0 {
		return nil
	}

	now := time.Now()
	cards := make([]*models.Card, 0, len(s.pendingBlocks))
	owners := make([]*models.User, 0, len(s.pendingBlocks))
	for userID, number := range s.pendingBlocks {
		card, err := s.cards.FindByUserAndNumber(ctx, userID, number)
		if err != nil {
			return err
		}
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		card.Status = models.StatusBlocked
		// An overdue expiry date wins over the block.
		card.RefreshStatus(now)
		cards = append(cards, card)
		owners = append(owners, user)
	}

	if err := s.cards.UpdateStatusAll(ctx, cards); err != nil {
		return err
	}
	s.pendingBlocks = make(map[int64]string)

	for i, card := range cards {
		s.notifyCardBlocked(owners[i], card)
	}
	s.log.Infof("Committed %d card block requests", len(cards))
	return nil
}

// RemoveCard retires a card permanently by forcing it to EXPIRED. Unlike
// blocking, removal is applied immediately, not batched.
func (s *Service) RemoveCard(ctx context.Context, userID int64, number string) error {
	card, err := s.cards.FindByUserAndNumber(ctx, userID, number)
	if err != nil {
		return err
	}

	card.Status = models.StatusExpired
	if err := s.cards.UpdateStatus(ctx, card); err != nil {
		return err
	}

	s.log.Infof("Removed card %s of user %d", card.NumberMasked, userID)
	return nil
}

// ListAllCards returns every card in the store for the admin overview
func (s *Service) ListAllCards(ctx context.Context) ([]models.Card, error) {
	cards, err := s.cards.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range cards {
		cards[i].RefreshStatus(now)
	}
	return cards, nil
}

// ExpireOverdueCards persists the EXPIRED status for every card whose expiry
// date has passed. Run periodically so stored statuses catch up with the
// lifecycle recompute that normally happens per touchpoint.
func (s *Service) ExpireOverdueCards(ctx context.Context) (int, error) {
	cards, err := s.cards.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := make([]*models.Card, 0)
	for i := range cards {
		if cards[i].RefreshStatus(now) {
			expired = append(expired, &cards[i])
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.cards.UpdateStatusAll(ctx, expired); err != nil {
		return 0, err
	}
	s.log.Infof("Expiry sweep marked %d cards as expired", len(expired))
	return len(expired), nil
}

func (s *Service) notifyCardIssued(user *models.User, card *models.Card) {
	if s.mail == nil {
		return
	}
	s.mail.CardIssued(user.Email, user.Username, card.NumberMasked, card.ExpiryDate)
}

func (s *Service) notifyCardBlocked(user *models.User, card *models.Card) {
	if s.mail == nil {
		return
	}
	s.mail.CardBlocked(user.Email, user.Username, card.NumberMasked)
}
