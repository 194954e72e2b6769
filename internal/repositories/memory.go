package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"cardman/internal/models"

	"github.com/shopspring/decimal"
)

// InMemoryStore is an embedded implementation of the repository contracts.
// It mirrors the Postgres semantics the services rely on: per-card exclusive
// locks held for the duration of a unit of work, and all-or-nothing commits.
type InMemoryStore struct {
	mu         sync.Mutex
	users      map[uint]*models.User
	cards      map[uint]*models.Card
	limits     map[uint]*models.CardLimit
	txns       []*models.Transaction
	cardLocks  map[uint]*sync.Mutex
	nextUserID uint
	nextCardID uint
	nextLimit  uint
	nextTxnID  uint
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:     make(map[uint]*models.User),
		cards:     make(map[uint]*models.Card),
		limits:    make(map[uint]*models.CardLimit),
		cardLocks: make(map[uint]*sync.Mutex),
	}
}

// UserRepository

func (s *InMemoryStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *InMemoryStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *InMemoryStore) GetByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *InMemoryStore) ExistsByEmail(email string) (bool, error) {
	_, err := s.GetByEmail(email)
	if err == ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *InMemoryStore) List(offset, limit int, sortDir string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if sortDir == "desc" {
			return users[i].ID > users[j].ID
		}
		return users[i].ID < users[j].ID
	})
	return paginate(users, offset, limit), nil
}

func (s *InMemoryStore) Update(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// CardRepository

// Cards returns a CardRepository view of the store. The store itself already
// implements the user contract with the same method names, so the card
// contract lives on a thin wrapper.
func (s *InMemoryStore) Cards() CardRepository {
	return &memCards{s: s}
}

type memCards struct {
	s *InMemoryStore
}

func (m *memCards) Create(card *models.Card) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCardID++
	card.ID = s.nextCardID
	card.CreatedAt = time.Now()
	cp := *card
	cp.Limit = nil
	s.cards[card.ID] = &cp
	return nil
}

func (m *memCards) GetByID(id uint) (*models.Card, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardCopy(id)
}

func (m *memCards) GetByIDAndHolder(id uint, holderEmail string) (*models.Card, error) {
	card, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if card.CardHolderName != holderEmail {
		return nil, ErrCardNotFound
	}
	return card, nil
}

func (m *memCards) ExistsByIDAndOwnerEmail(id uint, ownerEmail string) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return false, nil
	}
	owner, ok := s.users[card.UserID]
	return ok && owner.Email == ownerEmail, nil
}

func (m *memCards) GetByUserID(userID uint) ([]models.Card, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var cards []models.Card
	for _, c := range s.cards {
		if c.UserID == userID {
			cp, _ := s.cardCopy(c.ID)
			cards = append(cards, *cp)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (m *memCards) GetByHolder(holderEmail string) ([]models.Card, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var cards []models.Card
	for _, c := range s.cards {
		if c.CardHolderName == holderEmail {
			cp, _ := s.cardCopy(c.ID)
			cards = append(cards, *cp)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (m *memCards) List(sortField, sortDir string, offset, limit int) ([]models.Card, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := make([]models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		cp, _ := s.cardCopy(c.ID)
		cards = append(cards, *cp)
	}
	if _, ok := CardSortFields[sortField]; !ok {
		sortField = "id"
	}
	desc := sortDir == "desc"
	sort.Slice(cards, func(i, j int) bool {
		less := lessCards(&cards[i], &cards[j], sortField)
		if desc {
			return !less
		}
		return less
	})
	return paginate(cards, offset, limit), nil
}

func lessCards(a, b *models.Card, field string) bool {
	switch field {
	case "balance":
		return a.Balance.LessThan(b.Balance)
	case "expiration_date":
		return a.ExpirationDate.Before(b.ExpirationDate)
	case "status":
		return strings.Compare(a.Status, b.Status) < 0
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	default:
		return a.ID < b.ID
	}
}

func (m *memCards) Update(card *models.Card) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return ErrCardNotFound
	}
	cp := *card
	cp.Limit = nil
	s.cards[card.ID] = &cp
	return nil
}

func (m *memCards) Delete(id uint) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, id)
	return nil
}

func (m *memCards) MarkExpired(now time.Time) (int64, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.cards {
		if c.ExpirationDate.Before(now) && c.Status != models.CardStatusExpired {
			c.Status = models.CardStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memCards) SaveLimit(limit *models.CardLimit) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit.ID == 0 {
		s.nextLimit++
		limit.ID = s.nextLimit
		limit.CreatedAt = time.Now()
	}
	cp := *limit
	s.limits[limit.ID] = &cp
	return nil
}

func (m *memCards) GetLimitByCardID(cardID uint) (*models.CardLimit, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitCopyByCard(cardID)
}

func (m *memCards) DeleteLimit(limitID uint) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.limits, limitID)
	return nil
}

// TransactionRepository

// Engine returns the TransactionRepository view of the store.
func (s *InMemoryStore) Engine() TransactionRepository {
	return &memEngine{s: s}
}

type memEngine struct {
	s *InMemoryStore
}

func (m *memEngine) ExecuteInTransaction(fn func(tx TransactionRepository) error) error {
	tx := &memTx{
		s:      m.s,
		staged: make(map[uint]*models.Card),
	}
	err := fn(tx)
	if err == nil {
		tx.commit()
	}
	tx.release()
	return err
}

func (m *memEngine) LockCard(id uint, holderEmail string) (*models.Card, error) {
	// Outside a unit of work there is nothing to hold a lock for.
	return (&memCards{s: m.s}).GetByIDAndHolder(id, holderEmail)
}

func (m *memEngine) UpdateCardBalance(card *models.Card) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	committed, ok := s.cards[card.ID]
	if !ok {
		return ErrCardNotFound
	}
	committed.Balance = card.Balance
	return nil
}

func (m *memEngine) CreateTransaction(txn *models.Transaction) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendTransaction(txn)
	return nil
}

func (m *memEngine) GetTransactionByID(id uint) (*models.Transaction, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionCopy(id)
}

func (m *memEngine) ListByCard(cardID uint) ([]models.Transaction, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByCard(cardID), nil
}

func (m *memEngine) SumWithdrawals(cardID uint, from, to time.Time) (decimal.Decimal, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumWithdrawals(cardID, from, to), nil
}

func (m *memEngine) GetLimit(cardID uint) (*models.CardLimit, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitCopyByCard(cardID)
}

func (m *memEngine) DeleteByCard(cardID uint) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txns[:0]
	for _, t := range s.txns {
		if t.CardID != cardID {
			kept = append(kept, t)
		}
	}
	s.txns = kept
	return nil
}

// memTx is one in-flight unit of work. Mutations are staged on local copies
// and applied together on commit, while the per-card mutexes keep concurrent
// units working on the same card strictly serialized.
type memTx struct {
	s       *InMemoryStore
	locked  []uint
	staged  map[uint]*models.Card
	updated []uint
	created []*models.Transaction
}

func (t *memTx) ExecuteInTransaction(fn func(tx TransactionRepository) error) error {
	return fn(t)
}

func (t *memTx) LockCard(id uint, holderEmail string) (*models.Card, error) {
	s := t.s

	s.mu.Lock()
	card, ok := s.cards[id]
	if !ok || card.CardHolderName != holderEmail {
		s.mu.Unlock()
		return nil, ErrCardNotFound
	}
	lock, ok := s.cardLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.cardLocks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	t.locked = append(t.locked, id)

	// Re-read committed state now that the lock is held; a concurrent unit
	// of work may have committed between the check and the acquisition.
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok = s.cards[id]
	if !ok || card.CardHolderName != holderEmail {
		return nil, ErrCardNotFound
	}
	cp := *card
	t.staged[id] = &cp
	return &cp, nil
}

func (t *memTx) UpdateCardBalance(card *models.Card) error {
	if _, ok := t.staged[card.ID]; !ok {
		return ErrCardNotFound
	}
	t.staged[card.ID] = card
	t.updated = append(t.updated, card.ID)
	return nil
}

func (t *memTx) CreateTransaction(txn *models.Transaction) error {
	t.created = append(t.created, txn)
	return nil
}

func (t *memTx) GetTransactionByID(id uint) (*models.Transaction, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionCopy(id)
}

func (t *memTx) ListByCard(cardID uint) ([]models.Transaction, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByCard(cardID), nil
}

func (t *memTx) SumWithdrawals(cardID uint, from, to time.Time) (decimal.Decimal, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumWithdrawals(cardID, from, to), nil
}

func (t *memTx) GetLimit(cardID uint) (*models.CardLimit, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitCopyByCard(cardID)
}

func (t *memTx) DeleteByCard(cardID uint) error {
	return (&memEngine{s: t.s}).DeleteByCard(cardID)
}

// commit applies staged changes before any card lock is released, so the next
// unit of work on the same card observes them.
func (t *memTx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range t.updated {
		if committed, ok := s.cards[id]; ok {
			cp := *t.staged[id]
			cp.Limit = nil
			*committed = cp
		}
	}
	for _, txn := range t.created {
		s.appendTransaction(txn)
	}
}

func (t *memTx) release() {
	s := t.s
	s.mu.Lock()
	locks := make([]*sync.Mutex, 0, len(t.locked))
	for _, id := range t.locked {
		locks = append(locks, s.cardLocks[id])
	}
	s.mu.Unlock()
	for i := len(locks) - 1; i >= 0; i-- {
		locks[i].Unlock()
	}
	t.locked = nil
}

// helpers, caller holds s.mu

func (s *InMemoryStore) cardCopy(id uint) (*models.Card, error) {
	card, ok := s.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	cp := *card
	if limit, err := s.limitCopyByCard(id); err == nil {
		cp.Limit = limit
	}
	return &cp, nil
}

func (s *InMemoryStore) limitCopyByCard(cardID uint) (*models.CardLimit, error) {
	for _, l := range s.limits {
		if l.CardID == cardID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrLimitNotFound
}

func (s *InMemoryStore) transactionCopy(id uint) (*models.Transaction, error) {
	for _, t := range s.txns {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (s *InMemoryStore) listByCard(cardID uint) []models.Transaction {
	var out []models.Transaction
	for _, t := range s.txns {
		if t.CardID == cardID {
			out = append(out, *t)
		}
	}
	return out
}

func (s *InMemoryStore) sumWithdrawals(cardID uint, from, to time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.txns {
		if t.CardID != cardID || t.Type != models.TransactionTypeWithdrawal {
			continue
		}
		if t.Timestamp.Before(from) || !t.Timestamp.Before(to) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum
}

func (s *InMemoryStore) appendTransaction(txn *models.Transaction) {
	s.nextTxnID++
	txn.ID = s.nextTxnID
	txn.CreatedAt = time.Now()
	cp := *txn
	s.txns = append(s.txns, &cp)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
