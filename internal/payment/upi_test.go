package payment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillLink(t *testing.T) {
	b := NewLinkBuilder("demo@upi", "OneCard")

	assert.Equal(t, "upi://pay?pa=demo@upi&pn=OneCard&am=12500&cu=INR", b.BillLink(12500))
	assert.Equal(t, "upi://pay?pa=demo@upi&pn=OneCard&am=0&cu=INR", b.BillLink(0))
}

func TestBillLink_EscapesPayeeName(t *testing.T) {
	b := NewLinkBuilder("demo@upi", "One Card Ltd")

	assert.Equal(t, "upi://pay?pa=demo@upi&pn=One+Card+Ltd&am=100&cu=INR", b.BillLink(100))
}

func TestQRPNG(t *testing.T) {
	data, err := QRPNG("upi://pay?pa=demo@upi&pn=OneCard&am=12500&cu=INR", 180)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}))
}
