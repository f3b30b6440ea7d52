package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ddanilov/bank-cards/internal/errs"
	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/shopspring/decimal"
)

// ListCards returns one page of the user's cards, newest first
func (s *Service) ListCards(ctx context.Context, userID int64, page, size int) (*models.CardPage, error) {
	cardPage, err := s.cards.FindPageByUser(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range cardPage.Cards {
		cardPage.Cards[i].RefreshStatus(now)
	}
	return cardPage, nil
}

// GetCard returns a single card owned by the user
func (s *Service) GetCard(ctx context.Context, userID, cardID int64) (*models.Card, error) {
	card, err := s.cards.FindByUserAndID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	card.RefreshStatus(time.Now())
	return card, nil
}

// TopUp adds amount to the balance of the card identified by number and
// holder and returns the updated card. The amount is not sign-checked here:
// the API layer rejects negative amounts, the engine applies plain addition.
// The addition is a relative update, so concurrent top-ups compose instead
// of overwriting each other.
func (s *Service) TopUp(ctx context.Context, number, holder string, amount decimal.Decimal) (*models.Card, error) {
	card, err := s.cards.FindByNumberAndHolder(ctx, number, holder)
	if err != nil {
		return nil, err
	}
	card.RefreshStatus(time.Now())
	if !card.Usable() {
		return nil, fmt.Errorf("card of holder %q is not usable: %w", card.Holder, errs.ErrCardNotUsable)
	}

	balance, err := s.cards.AddToBalance(ctx, card.ID, amount)
	if err != nil {
		return nil, err
	}
	card.Balance = balance

	s.log.Infof("Topped up card %s by %s", card.NumberMasked, amount)
	return card, nil
}

// Transfer moves amount from the source card to the destination card. The
// debit and the credit are one guarded transaction in the store: the debit
// re-checks the funds at write time, so concurrent transfers over the same
// source cannot overdraw it, and a failure on either side leaves both
// balances untouched. A self-transfer nets out to the original balance.
func (s *Service) Transfer(ctx context.Context, fromNumber, fromHolder, toNumber, toHolder string, amount decimal.Decimal) error {
	now := time.Now()

	src, err := s.cards.FindByNumberAndHolder(ctx, fromNumber, fromHolder)
	if err != nil {
		return err
	}
	src.RefreshStatus(now)
	if !src.Usable() {
		return fmt.Errorf("card of holder %q is not usable: %w", src.Holder, errs.ErrCardNotUsable)
	}
	if amount.GreaterThan(src.Balance) {
		return fmt.Errorf("card of holder %q has insufficient funds for the transfer: %w", src.Holder, errs.ErrInsufficientFunds)
	}

	dst, err := s.cards.FindByNumberAndHolder(ctx, toNumber, toHolder)
	if err != nil {
		return err
	}
	dst.RefreshStatus(now)
	if !dst.Usable() {
		return fmt.Errorf("card of holder %q is not usable: %w", dst.Holder, errs.ErrCardNotUsable)
	}

	if err := s.cards.TransferBalance(ctx, src.ID, dst.ID, amount); err != nil {
		return err
	}

	s.log.Infof("Transferred %s from card %s to card %s", amount, src.NumberMasked, dst.NumberMasked)
	return nil
}
