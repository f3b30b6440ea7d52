package service

import (
	"context"
	"sync"
	"time"

	"github.com/ddanilov/bank-cards/internal/config"
	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CardStore is the persistence contract for cards. Create/UpdateStatus act
// on a single record; CreateAll/UpdateStatusAll persist the whole batch
// atomically. Balances change only through AddToBalance and TransferBalance,
// which apply relative updates so concurrent writers cannot lose each
// other's changes.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	CreateAll(ctx context.Context, cards []*models.Card) error
	UpdateStatus(ctx context.Context, card *models.Card) error
	UpdateStatusAll(ctx context.Context, cards []*models.Card) error
	AddToBalance(ctx context.Context, cardID int64, amount decimal.Decimal) (decimal.Decimal, error)
	TransferBalance(ctx context.Context, srcID, dstID int64, amount decimal.Decimal) error
	FindByNumberAndHolder(ctx context.Context, number, holder string) (*models.Card, error)
	FindByUserAndNumber(ctx context.Context, userID int64, number string) (*models.Card, error)
	FindByUserAndID(ctx context.Context, userID, cardID int64) (*models.Card, error)
	FindPageByUser(ctx context.Context, userID int64, page, size int) (*models.CardPage, error)
	FindAll(ctx context.Context) ([]models.Card, error)
}

// UserStore is the persistence contract for users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Notifier delivers best-effort notifications to card owners. Implementations
// log their own delivery failures. May be nil.
type Notifier interface {
	CardIssued(to, username, maskedNumber string, expiry time.Time)
	CardBlocked(to, username, maskedNumber string)
}

// Service handles business logic
type Service struct {
	cards  CardStore
	users  UserStore
	mail   Notifier
	log    *logrus.Logger
	config *config.Config

	// Pending admin batch requests. Both buffers are process state owned by
	// this instance and are guarded for the full duration of an enqueue or a
	// drain, so each entry is applied exactly once under concurrent callers.
	createMu       sync.Mutex
	pendingCreates []models.CardRequest

	blockMu       sync.Mutex
	pendingBlocks map[int64]string // user id -> card number, last request wins
}

// NewService initializes a new service
func NewService(cards CardStore, users UserStore, mail Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		cards:         cards,
		users:         users,
		mail:          mail,
		log:           log,
		config:        cfg,
		pendingBlocks: make(map[int64]string),
	}
}
