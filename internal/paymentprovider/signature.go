package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign возвращает hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнивает подпись за постоянное время.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifySignature проверяет подпись секретом клиента.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}
