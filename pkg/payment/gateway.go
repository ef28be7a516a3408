package payment

import (
	"context"

	"hotel_management/pkg/models"
)

// State is the gateway-side condition of a transaction.
type State string

const (
	StatePending State = "pending"
	StateSettled State = "settled"
	StateFailed  State = "failed"
	StateExpired State = "expired"
)

// CodeExpired is the gateway status code for an expired transaction.
const CodeExpired = "407"

type Customer struct {
	ID    string
	Name  string
	Email string
}

type Transaction struct {
	OrderID     string
	Token       string
	RedirectURL string
	Raw         []byte
}

type TransactionStatus struct {
	OrderID string
	Code    string
	State   State
	Raw     []byte
}

// Gateway is the outbound payment provider. Implementations return errors
// wrapping apperr.ErrGatewayRejected or apperr.ErrGatewayTimeout.
type Gateway interface {
	CreateTransaction(ctx context.Context, orderID string, amount int64, customer Customer) (*Transaction, error)
	TransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error)
}

// Reported maps a gateway state to the payment status it settles to.
// Pending and expired transactions settle to nothing yet.
func Reported(state State) (models.PaymentStatus, bool) {
	switch state {
	case StateSettled:
		return models.PaymentComplete, true
	case StateFailed:
		return models.PaymentCancel, true
	}
	return "", false
}
