package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ddanilov/bank-cards/internal/errs"
	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/shopspring/decimal"
)

const cardColumns = "id, user_id, card_number, card_number_masked, card_holder, expiry_date, status, balance, created_at"

// CardRepository provides database operations on cards
type CardRepository struct {
	db *sql.DB
}

// NewCardRepository initializes a new card repository
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts a new card
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (user_id, card_number, card_number_masked, card_holder, expiry_date, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		card.UserID, card.Number, card.NumberMasked, card.Holder, card.ExpiryDate, card.Status, card.Balance).
		Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// CreateAll inserts a batch of cards in a single transaction, all or nothing
func (r *CardRepository) CreateAll(ctx context.Context, cards []*models.Card) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bank.cards (user_id, card_number, card_number_masked, card_holder, expiry_date, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	for _, card := range cards {
		err := tx.QueryRowContext(ctx, query,
			card.UserID, card.Number, card.NumberMasked, card.Holder, card.ExpiryDate, card.Status, card.Balance).
			Scan(&card.ID, &card.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create card for user %d: %w", card.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus persists the lifecycle status of an existing card. Balances
// are never written here, they change only through the relative updates
// below, so a status write cannot clobber a concurrent balance change.
func (r *CardRepository) UpdateStatus(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE bank.cards
		SET status = $1
		WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, card.Status, card.ID)
	if err != nil {
		return fmt.Errorf("failed to save card %d: %w", card.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save card %d: %w", card.ID, err)
	}
	if rows == 0 {
		return fmt.Errorf("card with id %d does not exist: %w", card.ID, errs.ErrCardNotFound)
	}
	return nil
}

// UpdateStatusAll persists the statuses of a batch of cards in a single
// transaction, all or nothing
func (r *CardRepository) UpdateStatusAll(ctx context.Context, cards []*models.Card) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE bank.cards
		SET status = $1
		WHERE id = $2`
	for _, card := range cards {
		if _, err := tx.ExecContext(ctx, query, card.Status, card.ID); err != nil {
			return fmt.Errorf("failed to save card %d: %w", card.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddToBalance adjusts a card's balance by amount as a single relative
// update and returns the resulting balance. Concurrent adjustments compose
// instead of overwriting each other.
func (r *CardRepository) AddToBalance(ctx context.Context, cardID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE bank.cards
		SET balance = balance + $1
		WHERE id = $2
		RETURNING balance`
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, amount, cardID).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, fmt.Errorf("card with id %d does not exist: %w", cardID, errs.ErrCardNotFound)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to adjust balance of card %d: %w", cardID, err)
	}
	return balance, nil
}

// TransferBalance moves amount from one card to another in one transaction.
// The debit only matches when the source still holds enough funds, so
// concurrent transfers cannot overdraw the card. Transferring a card to
// itself leaves its balance unchanged.
func (r *CardRepository) TransferBalance(ctx context.Context, srcID, dstID int64, amount decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	debit := `
		UPDATE bank.cards
		SET balance = balance - $1
		WHERE id = $2 AND balance >= $1`
	res, err := tx.ExecContext(ctx, debit, amount, srcID)
	if err != nil {
		return fmt.Errorf("failed to debit card %d: %w", srcID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to debit card %d: %w", srcID, err)
	}
	if rows == 0 {
		return fmt.Errorf("card %d has insufficient funds for the transfer: %w", srcID, errs.ErrInsufficientFunds)
	}

	credit := `
		UPDATE bank.cards
		SET balance = balance + $1
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, credit, amount, dstID); err != nil {
		return fmt.Errorf("failed to credit card %d: %w", dstID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByNumberAndHolder retrieves a card by its number and holder name
func (r *CardRepository) FindByNumberAndHolder(ctx context.Context, number, holder string) (*models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank.cards
		WHERE card_number = $1 AND card_holder = $2`, cardColumns)
	card, err := r.scanCard(r.db.QueryRowContext(ctx, query, number, holder))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card of holder %q does not exist: %w", holder, errs.ErrCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindByUserAndNumber retrieves a card by owner id and card number
func (r *CardRepository) FindByUserAndNumber(ctx context.Context, userID int64, number string) (*models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank.cards
		WHERE user_id = $1 AND card_number = $2`, cardColumns)
	card, err := r.scanCard(r.db.QueryRowContext(ctx, query, userID, number))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card for user %d does not exist: %w", userID, errs.ErrCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindByUserAndID retrieves a card by owner id and card id
func (r *CardRepository) FindByUserAndID(ctx context.Context, userID, cardID int64) (*models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank.cards
		WHERE user_id = $1 AND id = $2`, cardColumns)
	card, err := r.scanCard(r.db.QueryRowContext(ctx, query, userID, cardID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("card with id %d does not exist: %w", cardID, errs.ErrCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindPageByUser retrieves one page of a user's cards, newest first
func (r *CardRepository) FindPageByUser(ctx context.Context, userID int64, page, size int) (*models.CardPage, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM bank.cards WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count cards for user %d: %w", userID, err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bank.cards
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, cardColumns)
	rows, err := r.db.QueryContext(ctx, query, userID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for user %d: %w", userID, err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := r.scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cards for user %d: %w", userID, err)
	}

	return &models.CardPage{Cards: cards, Page: page, Size: size, Total: total}, nil
}

// FindAll retrieves every card in the store
func (r *CardRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bank.cards
		ORDER BY created_at DESC`, cardColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := r.scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CardRepository) scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(
		&card.ID, &card.UserID, &card.Number, &card.NumberMasked, &card.Holder,
		&card.ExpiryDate, &card.Status, &card.Balance, &card.CreatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}
