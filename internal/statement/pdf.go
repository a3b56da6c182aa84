// Package statement renders the credit-card statement PDF offered by the
// assistant's "download statement" reply.
package statement

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/onecard-labs/cardassist/internal/account"
)

// PDF renders an A4 statement for the account and returns the document bytes.
func PDF(acct *account.Account) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "Credit Card Statement")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Name: %s", acct.Name))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Card Number: **** **** **** %s", acct.CardLast4))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Phone: %s", acct.Phone))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Billing Month: %s", acct.Bill.Month))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Transactions")
	pdf.Ln(9)

	const (
		colDate     = 45.0
		colMerchant = 75.0
		colAmount   = 60.0
	)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(colDate, 7, "Date", "", 0, "L", false, 0, "")
	pdf.CellFormat(colMerchant, 7, "Merchant", "", 0, "L", false, 0, "")
	pdf.CellFormat(colAmount, 7, "Amount (INR)", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, t := range acct.Transactions {
		pdf.CellFormat(colDate, 6, t.Date, "", 0, "L", false, 0, "")
		pdf.CellFormat(colMerchant, 6, t.Merchant, "", 0, "L", false, 0, "")
		pdf.CellFormat(colAmount, 6, fmt.Sprintf("%d", t.Amount), "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "This document is system-generated and does not require a signature.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement pdf: %w", err)
	}

	return buf.Bytes(), nil
}
