package statement

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecard-labs/cardassist/internal/account"
)

func TestPDF(t *testing.T) {
	acct := account.DemoSnapshot("Asha Rao", "9876543210", "asha@example.com", "1122")

	data, err := PDF(acct)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.True(t, bytes.Contains(data, []byte("%%EOF")))
}

func TestPDF_EmptyTransactions(t *testing.T) {
	acct := account.DemoSnapshot("Asha Rao", "9876543210", "asha@example.com", "1122")
	acct.Transactions = nil

	data, err := PDF(acct)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
