package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"hotel_management/pkg/payment"
)

// Notification is the body Midtrans posts to the payment notification URL.
type Notification struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// Signature is sha512(order_id + status_code + gross_amount + server_key) in hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func (n Notification) Verify(serverKey string) bool {
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	given := strings.ToLower(n.SignatureKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func (n Notification) State() payment.State {
	if n.StatusCode == payment.CodeExpired {
		return payment.StateExpired
	}
	return MapTransactionStatus(n.TransactionStatus, n.FraudStatus)
}

// MapTransactionStatus folds Midtrans transaction_status values into a gateway state.
func MapTransactionStatus(transactionStatus, fraudStatus string) payment.State {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "", "accept":
			return payment.StateSettled
		case "deny":
			return payment.StateFailed
		}
		return payment.StatePending
	case "settlement":
		return payment.StateSettled
	case "deny", "cancel", "failure", "refund", "partial_refund":
		return payment.StateFailed
	case "expire":
		return payment.StateExpired
	}
	return payment.StatePending
}
