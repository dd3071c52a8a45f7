package interfaces

import (
	"context"
	"time"

	"rafflehouse/domain/entities"
)

// RandomSource yields uniform integers in [0, n)
type RandomSource interface {
	Int63n(n int64) (int64, error)
}

// InstantWinEvaluator decides whether a ticket wins an instant prize
type InstantWinEvaluator interface {
	// Evaluate returns the prize claimed for one ticket, or nil if the ticket does not win.
	// A returned prize has already been decremented in storage.
	Evaluate(ctx context.Context, competition *entities.Competition, prizes []*entities.InstantWinPrize) (*entities.InstantWinPrize, error)
}

// EligibilityRequest asks whether a user may buy ticketCount tickets
type EligibilityRequest struct {
	CompetitionID string
	UserID        string
	TicketCount   int
}

// EligibilityGuard pre-checks purchase requests
type EligibilityGuard interface {
	// CheckEligibility returns nil to allow, or a classified error carrying the reason
	CheckEligibility(ctx context.Context, req EligibilityRequest) error
}

// TicketIssuanceService creates the tickets of an order
type TicketIssuanceService interface {
	// IssueTickets issues exactly order.TicketCount tickets or none
	IssueTickets(ctx context.Context, order *entities.Order) ([]*entities.Ticket, error)
}

// CheckoutRequest describes an external payment to start
type CheckoutRequest struct {
	OrderID     string
	UserID      string
	Email       string
	Amount      int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the provider's handle for a started payment
type CheckoutSession struct {
	SessionID string
	URL       string
}

// SessionStatus is the provider's current view of a checkout session
type SessionStatus struct {
	SessionID   string
	Status      entities.PaymentStatus
	AmountTotal int64
	Currency    string
}

// PaymentProvider is the external payment gateway
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
}

// PurchaseQuote is a priced, eligibility-checked order that has not been stored yet
type PurchaseQuote struct {
	Order       *entities.Order
	Competition *entities.Competition
	User        *entities.User
}

// ConfirmationResult reports the outcome of observing a payment status
type ConfirmationResult struct {
	Order            *entities.Order        `json:"order"`
	Tickets          []*entities.Ticket     `json:"tickets"`
	PaymentStatus    entities.PaymentStatus `json:"payment_status"`
	AlreadyProcessed bool                   `json:"already_processed"` // a previous confirmation already settled the order
}

// OrderService maps payments to exactly one issuance per order
type OrderService interface {
	// QuoteOrder checks eligibility and prices the order against the user's balance
	QuoteOrder(ctx context.Context, identity entities.Identity, competitionID string, ticketCount int) (*PurchaseQuote, error)

	// CompleteBalanceOrder stores an order the balance fully covers and issues its tickets
	CompleteBalanceOrder(ctx context.Context, order *entities.Order) (*ConfirmationResult, error)

	// RecordPendingOrder stores an order awaiting the given checkout session
	RecordPendingOrder(ctx context.Context, order *entities.Order, session *CheckoutSession, currency string) (*entities.PaymentTransaction, error)

	// ConfirmPayment applies a provider status to the session's order. Idempotent.
	ConfirmPayment(ctx context.Context, sessionID string, status entities.PaymentStatus) (*ConfirmationResult, error)

	// RefundOrder moves a pending order to refunded and credits the external amount to the balance
	RefundOrder(ctx context.Context, sessionID, reason string) (*entities.Order, error)
}

// WinnerDrawService draws grand-prize winners
type WinnerDrawService interface {
	// DrawWinner picks one ticket uniformly at random; at most once per competition
	DrawWinner(ctx context.Context, competitionID string) (*entities.Winner, error)
}

// PrizeInput describes an instant-win prize on creation or update
type PrizeInput struct {
	Name     string `json:"name"`
	Value    int64  `json:"value"`
	Quantity int    `json:"quantity"`
}

// CompetitionInput holds the fields needed to create a competition
type CompetitionInput struct {
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	PrizeType         string       `json:"prize_type"`
	PrizeValue        int64        `json:"prize_value"`
	PrizeImageURL     string       `json:"prize_image_url"`
	TicketPrice       int64        `json:"ticket_price"`
	TotalTickets      int          `json:"total_tickets"`
	MaxTicketsPerUser int          `json:"max_tickets_per_user"`
	EndDate           time.Time    `json:"end_date"`
	IsInstantWin      bool         `json:"is_instant_win"`
	InstantWinPrizes  []PrizeInput `json:"instant_win_prizes"`
	LiveStreamURL     string       `json:"live_stream_url"`
}

// CompetitionPatch holds optional updates; nil fields are left alone
type CompetitionPatch struct {
	Title             *string                     `json:"title"`
	Description       *string                     `json:"description"`
	PrizeType         *string                     `json:"prize_type"`
	PrizeValue        *int64                      `json:"prize_value"`
	PrizeImageURL     *string                     `json:"prize_image_url"`
	TicketPrice       *int64                      `json:"ticket_price"`
	TotalTickets      *int                        `json:"total_tickets"`
	MaxTicketsPerUser *int                        `json:"max_tickets_per_user"`
	EndDate           *time.Time                  `json:"end_date"`
	Status            *entities.CompetitionStatus `json:"status"`
	IsInstantWin      *bool                       `json:"is_instant_win"`
	InstantWinPrizes  []PrizeInput                `json:"instant_win_prizes"`
	LiveStreamURL     *string                     `json:"live_stream_url"`
}

// CompetitionService manages the competition catalogue
type CompetitionService interface {
	Create(ctx context.Context, input CompetitionInput) (*entities.Competition, error)
	Update(ctx context.Context, id string, patch CompetitionPatch) (*entities.Competition, error)
	// Delete removes an unsold competition, otherwise cancels it; reports whether it was removed
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*entities.Competition, error)
	List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error)
	Featured(ctx context.Context) ([]*entities.Competition, error)
	CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error)
	Entrants(ctx context.Context, id string) ([]*entities.Entrant, error)
}

// UserWins groups grand-prize and instant wins
type UserWins struct {
	Winners     []*entities.Winner `json:"winners"`
	InstantWins []*entities.Ticket `json:"instant_wins"`
}

// AccountService exposes user-facing account data and admin balance changes
type AccountService interface {
	EnsureUser(ctx context.Context, identity entities.Identity) (*entities.User, error)
	AddBalance(ctx context.Context, userID string, amount int64) (*entities.User, error)
	GetEntries(ctx context.Context, userID string) ([]*entities.UserEntry, error)
	GetTickets(ctx context.Context, userID string) ([]*entities.Ticket, error)
	GetWins(ctx context.Context, userID string) (*UserWins, error)
	GetOrders(ctx context.Context, userID string) ([]*entities.Order, error)
	GetBalanceHistory(ctx context.Context, userID string) ([]*entities.BalanceHistory, error)
	ListWinners(ctx context.Context, limit int) ([]*entities.Winner, error)
	ListUsers(ctx context.Context) ([]*entities.User, error)
	ListOrders(ctx context.Context) ([]*entities.Order, error)
	Analytics(ctx context.Context) (*entities.Analytics, error)
}
