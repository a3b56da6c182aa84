package payment

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const defaultQRSize = 256

// QRPNG renders the payload as a QR code PNG of size x size pixels.
func QRPNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}

	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}

	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}

	return buf.Bytes(), nil
}
