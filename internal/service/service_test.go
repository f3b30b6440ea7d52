package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ddanilov/bank-cards/internal/config"
	"github.com/ddanilov/bank-cards/internal/errs"
	"github.com/ddanilov/bank-cards/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// fakeCardStore is an in-memory CardStore. Lookups return copies of the
// stored records, the way scanning database rows does, and balance writes
// mirror the guarded relative updates of the real store.
type fakeCardStore struct {
	mu             sync.Mutex
	cards          map[int64]models.Card
	nextID         int64
	findCalls      int
	statusCalls    int
	statusAllCalls int
	addCalls       int
	transferCalls  int
	failStatusAll  error
	failTransfer   error
	failCreate     error

	// beforeTransfer, when set, runs at the start of TransferBalance before
	// the store lock is taken. Tests use it to line up concurrent callers.
	beforeTransfer func()
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[int64]models.Card), nextID: 1}
}

func (f *fakeCardStore) put(card models.Card) models.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	if card.ID == 0 {
		card.ID = f.nextID
		f.nextID++
	} else if card.ID >= f.nextID {
		f.nextID = card.ID + 1
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	f.cards[card.ID] = card
	return card
}

func (f *fakeCardStore) get(id int64) models.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[id]
}

func (f *fakeCardStore) Create(_ context.Context, card *models.Card) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	*card = f.put(*card)
	return nil
}

func (f *fakeCardStore) CreateAll(ctx context.Context, cards []*models.Card) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	for _, card := range cards {
		*card = f.put(*card)
	}
	return nil
}

func (f *fakeCardStore) UpdateStatus(_ context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	stored, ok := f.cards[card.ID]
	if !ok {
		return fmt.Errorf("card with id %d does not exist: %w", card.ID, errs.ErrCardNotFound)
	}
	stored.Status = card.Status
	f.cards[card.ID] = stored
	return nil
}

func (f *fakeCardStore) UpdateStatusAll(_ context.Context, cards []*models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusAllCalls++
	if f.failStatusAll != nil {
		return f.failStatusAll
	}
	for _, card := range cards {
		stored := f.cards[card.ID]
		stored.Status = card.Status
		f.cards[card.ID] = stored
	}
	return nil
}

func (f *fakeCardStore) AddToBalance(_ context.Context, cardID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	card, ok := f.cards[cardID]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("card with id %d does not exist: %w", cardID, errs.ErrCardNotFound)
	}
	card.Balance = card.Balance.Add(amount)
	f.cards[cardID] = card
	return card.Balance, nil
}

func (f *fakeCardStore) TransferBalance(_ context.Context, srcID, dstID int64, amount decimal.Decimal) error {
	if f.beforeTransfer != nil {
		f.beforeTransfer()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls++
	if f.failTransfer != nil {
		return f.failTransfer
	}
	src, ok := f.cards[srcID]
	if !ok {
		return fmt.Errorf("card with id %d does not exist: %w", srcID, errs.ErrCardNotFound)
	}
	if src.Balance.LessThan(amount) {
		return fmt.Errorf("card %d has insufficient funds for the transfer: %w", srcID, errs.ErrInsufficientFunds)
	}
	src.Balance = src.Balance.Sub(amount)
	f.cards[srcID] = src
	dst := f.cards[dstID]
	dst.Balance = dst.Balance.Add(amount)
	f.cards[dstID] = dst
	return nil
}

func (f *fakeCardStore) FindByNumberAndHolder(_ context.Context, number, holder string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	for _, card := range f.cards {
		if card.Number == number && card.Holder == holder {
			c := card
			return &c, nil
		}
	}
	return nil, fmt.Errorf("card of holder %q does not exist: %w", holder, errs.ErrCardNotFound)
}

func (f *fakeCardStore) FindByUserAndNumber(_ context.Context, userID int64, number string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	for _, card := range f.cards {
		if card.UserID == userID && card.Number == number {
			c := card
			return &c, nil
		}
	}
	return nil, fmt.Errorf("card for user %d does not exist: %w", userID, errs.ErrCardNotFound)
}

func (f *fakeCardStore) FindByUserAndID(_ context.Context, userID, cardID int64) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	card, ok := f.cards[cardID]
	if !ok || card.UserID != userID {
		return nil, fmt.Errorf("card with id %d does not exist: %w", cardID, errs.ErrCardNotFound)
	}
	c := card
	return &c, nil
}

func (f *fakeCardStore) FindPageByUser(_ context.Context, userID int64, page, size int) (*models.CardPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := []models.Card{}
	for _, card := range f.cards {
		if card.UserID == userID {
			owned = append(owned, card)
		}
	}
	start := page * size
	if start > len(owned) {
		start = len(owned)
	}
	end := start + size
	if end > len(owned) {
		end = len(owned)
	}
	return &models.CardPage{Cards: owned[start:end], Page: page, Size: size, Total: int64(len(owned))}, nil
}

func (f *fakeCardStore) FindAll(_ context.Context) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	all := make([]models.Card, 0, len(f.cards))
	for _, card := range f.cards {
		all = append(all, card)
	}
	return all, nil
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]models.User), nextID: 1}
}

func (f *fakeUserStore) put(user models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	} else if user.ID >= f.nextID {
		f.nextID = user.ID + 1
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	*user = f.put(*user)
	return nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %d does not exist: %w", id, errs.ErrUserNotFound)
	}
	u := user
	return &u, nil
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with name %q does not exist: %w", username, errs.ErrUserNotFound)
}

// fakeNotifier records delivered notifications.
type fakeNotifier struct {
	mu      sync.Mutex
	issued  []string
	blocked []string
}

func (f *fakeNotifier) CardIssued(to, _, _ string, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, to)
}

func (f *fakeNotifier) CardBlocked(to, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = append(f.blocked, to)
}

func newTestService(cards *fakeCardStore, users *fakeUserStore, mail Notifier) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret", ExpiryYears: 3}
	return NewService(cards, users, mail, log, cfg)
}
