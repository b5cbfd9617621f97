// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the edge length in pixels of enrollment QR codes.
const qrSize = 256

// Enrollment is a freshly generated authenticator secret.
type Enrollment struct {
	Secret string
	URL    string
	// QRCode is a PNG encoding of URL.
	QRCode []byte
}

// NewEnrollment generates an authenticator secret for account.
func NewEnrollment(issuer, account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode totp qr code: %w", err)
	}

	return &Enrollment{Secret: key.Secret(), URL: key.URL(), QRCode: png}, nil
}

// ValidateTOTP checks an authenticator code against secret.
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}
