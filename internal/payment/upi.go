// Package payment builds UPI payment deep links and their QR renderings.
package payment

import (
	"fmt"
	"net/url"
)

// LinkBuilder interpolates UPI deep links for a configured payee.
type LinkBuilder struct {
	payeeVPA  string
	payeeName string
}

// NewLinkBuilder configures the payee encoded into every link.
func NewLinkBuilder(payeeVPA, payeeName string) *LinkBuilder {
	return &LinkBuilder{
		payeeVPA:  payeeVPA,
		payeeName: payeeName,
	}
}

// BillLink returns the UPI deep link collecting the given amount in INR.
func (b *LinkBuilder) BillLink(amount int64) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%d&cu=INR",
		b.payeeVPA, url.QueryEscape(b.payeeName), amount)
}
