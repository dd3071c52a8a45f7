package testhelpers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// ScriptedRandom replays a fixed sequence of values, then falls back to Default.
// Values are reduced modulo n so a script stays valid for any range.
type ScriptedRandom struct {
	mu      sync.Mutex
	Values  []int64
	Default int64
	calls   int
}

// NewScriptedRandom creates a random source that returns values in order
func NewScriptedRandom(values ...int64) *ScriptedRandom {
	return &ScriptedRandom{Values: values}
}

func (r *ScriptedRandom) Int63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range %d", n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.Default
	if r.calls < len(r.Values) {
		v = r.Values[r.calls]
	}
	r.calls++
	return v % n, nil
}

// Calls returns how many values have been drawn
func (r *ScriptedRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// SeededRandom is a deterministic uniform source for tests that need many distinct values
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom creates a reproducible random source
func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *SeededRandom) Int63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range %d", n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64N(n), nil
}

// MockInstantWinEvaluator is a mock implementation of InstantWinEvaluator
type MockInstantWinEvaluator struct {
	mock.Mock
}

func (m *MockInstantWinEvaluator) Evaluate(ctx context.Context, competition *entities.Competition, prizes []*entities.InstantWinPrize) (*entities.InstantWinPrize, error) {
	args := m.Called(ctx, competition, prizes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InstantWinPrize), args.Error(1)
}

// MockTicketIssuanceService is a mock implementation of TicketIssuanceService
type MockTicketIssuanceService struct {
	mock.Mock
}

func (m *MockTicketIssuanceService) IssueTickets(ctx context.Context, order *entities.Order) ([]*entities.Ticket, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

// MockEligibilityGuard is a mock implementation of EligibilityGuard
type MockEligibilityGuard struct {
	mock.Mock
}

func (m *MockEligibilityGuard) CheckEligibility(ctx context.Context, req interfaces.EligibilityRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockPaymentProvider is a mock implementation of PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, req interfaces.CheckoutRequest) (*interfaces.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) GetSessionStatus(ctx context.Context, sessionID string) (*interfaces.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SessionStatus), args.Error(1)
}
