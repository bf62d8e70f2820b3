// Package qr generates QR-Codes for the URLs the server listens on.
package qr

import (
	"errors"
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrQRNotGenerated = errors.New("QR-Code not generated")

// QRCode represents a QR-Code.
type QRCode struct {
	QR   *qrcode.QRCode
	From string
}

// New creates a new QR-Code.
func New(s string) *QRCode {
	return &QRCode{From: s}
}

// Generate generates a QR-Code from a given string.
func (q *QRCode) Generate() error {
	var err error

	q.QR, err = qrcode.New(q.From, qrcode.High)
	if err != nil {
		return fmt.Errorf("generating qr-code: %w", err)
	}

	return nil
}

// Render writes the QR-Code as block characters to w.
func (q *QRCode) Render(w io.Writer) error {
	if q.QR == nil {
		return ErrQRNotGenerated
	}

	_, err := fmt.Fprint(w, q.QR.ToSmallString(false))

	return err
}

func (q *QRCode) String() string {
	if q.QR == nil {
		return ""
	}

	return q.QR.ToSmallString(false)
}
