package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a mutex-guarded Store used to exercise the engine without a
// database.  Holding the mutex for the whole InTx call gives the same
// serialization the MySQL store gets from its row lock.  Writes go to a
// shadow copy and are applied on commit, so a failed transaction leaves no
// partial state behind.
type memoryStore struct {
	mu      sync.Mutex
	tickets map[uint64]TicketClass
	sales   []Sale
	nextID  uint64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tickets: make(map[uint64]TicketClass), nextID: 1}
}

func (s *memoryStore) seed(t TicketClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
}

func (s *memoryStore) ticket(id uint64) TicketClass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[id]
}

func (s *memoryStore) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *memoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{store: s, tickets: make(map[uint64]TicketClass)}
	if err := fn(tx); err != nil {
		return err
	}
	// commit the shadow state
	for id, t := range tx.tickets {
		s.tickets[id] = t
	}
	s.sales = append(s.sales, tx.sales...)
	return nil
}

type memoryTx struct {
	store   *memoryStore
	tickets map[uint64]TicketClass
	sales   []Sale
}

func (tx *memoryTx) TicketForUpdate(ctx context.Context, ticketID uint64) (*TicketClass, error) {
	t, ok := tx.tickets[ticketID]
	if !ok {
		t, ok = tx.store.tickets[ticketID]
		if !ok {
			return nil, ErrTicketNotFound
		}
	}
	return &t, nil
}

func (tx *memoryTx) UserQuantity(ctx context.Context, userID, ticketID uint64) (uint32, error) {
	var total uint32
	for _, s := range tx.store.sales {
		if s.UserID == userID && s.TicketID == ticketID {
			total += s.Quantity
		}
	}
	for _, s := range tx.sales {
		if s.UserID == userID && s.TicketID == ticketID {
			total += s.Quantity
		}
	}
	return total, nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, s *Sale) error {
	s.ID = tx.store.nextID
	tx.store.nextID++
	s.CreatedAt = time.Now().UTC()
	tx.sales = append(tx.sales, *s)
	return nil
}

func (tx *memoryTx) AddSold(ctx context.Context, ticketID uint64, qty uint32) error {
	t, err := tx.TicketForUpdate(ctx, ticketID)
	if err != nil {
		return err
	}
	if t.QuantitySold+qty > t.QuantityTotal {
		return ErrSoldOut
	}
	t.QuantitySold += qty
	tx.tickets[ticketID] = *t
	return nil
}

func TestReserveZeroQuantity(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 10, PerUserLimit: 5})
	eng := NewEngine(store)

	res, err := eng.Reserve(context.Background(), 7, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Nil(t, res)
	assert.Equal(t, 0, store.saleCount(), "no sale row for rejected request")
}

func TestReserveUnknownTicket(t *testing.T) {
	store := newMemoryStore()
	eng := NewEngine(store)

	res, err := eng.Reserve(context.Background(), 7, 999, 1)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Nil(t, res)
	assert.Equal(t, 0, store.saleCount())
}

func TestReserveSoldOutClass(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 10, QuantitySold: 10, PerUserLimit: 5})
	eng := NewEngine(store)

	for _, qty := range []uint32{1, 4, 100} {
		_, err := eng.Reserve(context.Background(), 7, 1, qty)
		assert.ErrorIs(t, err, ErrSoldOut)
	}
	assert.Equal(t, uint32(10), store.ticket(1).QuantitySold)
}

func TestReserveExactRemaining(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 8, QuantitySold: 3, PerUserLimit: 10})
	eng := NewEngine(store)

	res, err := eng.Reserve(context.Background(), 7, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Remaining)
	assert.Equal(t, uint32(5), res.Sale.Quantity)
	assert.NotZero(t, res.Sale.ID)
	assert.False(t, res.Sale.CreatedAt.IsZero())
	assert.Equal(t, uint32(8), store.ticket(1).QuantitySold)
}

func TestReservePerUserLimit(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 100, PerUserLimit: 3})
	eng := NewEngine(store)

	res, err := eng.Reserve(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(98), res.Remaining)

	// 2+2 > 3: rejected, and the failed attempt must not move the counter
	_, err = eng.Reserve(context.Background(), 7, 1, 2)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, uint32(2), store.ticket(1).QuantitySold)
	assert.Equal(t, 1, store.saleCount())

	// 2+1 == 3: reaching the limit exactly is allowed
	res, err = eng.Reserve(context.Background(), 7, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(97), res.Remaining)

	// a different user is unaffected by the first user's total
	_, err = eng.Reserve(context.Background(), 8, 1, 3)
	assert.NoError(t, err)
}

func TestReserveLastTicketRace(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 1, PerUserLimit: 5})
	eng := NewEngine(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Reserve(context.Background(), uint64(100+i), 1, 1)
		}(i)
	}
	wg.Wait()

	var wins, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one request wins the last ticket")
	assert.Equal(t, 1, soldOut)
	assert.Equal(t, uint32(1), store.ticket(1).QuantitySold)
	assert.Equal(t, 1, store.saleCount())
}

func TestReserveConcurrentNeverOversells(t *testing.T) {
	const (
		capacity = 50
		buyers   = 40
		perBuyer = 4
	)
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: capacity, PerUserLimit: perBuyer})
	eng := NewEngine(store)

	var wg sync.WaitGroup
	for b := 0; b < buyers; b++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			for q := 0; q < perBuyer; q++ {
				_, err := eng.Reserve(context.Background(), user, 1, 1)
				if err != nil && !errors.Is(err, ErrSoldOut) && !errors.Is(err, ErrLimitExceeded) {
					t.Errorf("user %d: unexpected error: %v", user, err)
					return
				}
			}
		}(uint64(b + 1))
	}
	wg.Wait()

	final := store.ticket(1)
	assert.LessOrEqual(t, final.QuantitySold, final.QuantityTotal, "committed quantity never exceeds capacity")
	assert.Equal(t, uint32(capacity), final.QuantitySold, "demand exceeds supply, so the class must sell out")

	// ledger and counter agree, and no user is over the cap
	perUser := make(map[uint64]uint32)
	var ledger uint32
	for _, s := range store.sales {
		perUser[s.UserID] += s.Quantity
		ledger += s.Quantity
	}
	assert.Equal(t, final.QuantitySold, ledger)
	for user, total := range perUser {
		assert.LessOrEqualf(t, total, uint32(perBuyer), "user %d over per-user limit", user)
	}
}

// conflictStore fails the first n transactions with ErrConflict to verify
// the engine's bounded retry.
type conflictStore struct {
	*memoryStore
	fails int
}

func (s *conflictStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.fails > 0 {
		s.fails--
		return ErrConflict
	}
	return s.memoryStore.InTx(ctx, fn)
}

func TestReserveRetriesOnConflict(t *testing.T) {
	inner := newMemoryStore()
	inner.seed(TicketClass{ID: 1, QuantityTotal: 10, PerUserLimit: 5})
	store := &conflictStore{memoryStore: inner, fails: 2}
	eng := NewEngine(store)

	res, err := eng.Reserve(context.Background(), 7, 1, 1)
	require.NoError(t, err, "two conflicts are absorbed by retries")
	assert.Equal(t, uint32(9), res.Remaining)
}

func TestReserveGivesUpAfterRepeatedConflicts(t *testing.T) {
	inner := newMemoryStore()
	inner.seed(TicketClass{ID: 1, QuantityTotal: 10, PerUserLimit: 5})
	store := &conflictStore{memoryStore: inner, fails: 10}
	eng := NewEngine(store)

	_, err := eng.Reserve(context.Background(), 7, 1, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 0, inner.saleCount(), "no partial state after giving up")
}

func TestReserveHonoursCancelledContext(t *testing.T) {
	store := newMemoryStore()
	store.seed(TicketClass{ID: 1, QuantityTotal: 10, PerUserLimit: 5})
	eng := NewEngine(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Reserve(ctx, 7, 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
