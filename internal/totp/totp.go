package totp

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

const (
	Issuer = "TopTunez"
	period = 30
	qrSize = 264
)

var validateOpts = pqtotp.ValidateOpts{
	Period:    period,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Generate creates a fresh base32 secret for the given account label.
func Generate(account string) (string, error) {
	key, err := pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: account,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// Validate accepts codes from the current step and one step either side.
func Validate(code, secret string) bool {
	ok, err := pqtotp.ValidateCustom(code, secret, time.Now().UTC(), validateOpts)
	return err == nil && ok
}

func Code(secret string, at time.Time) (string, error) {
	return pqtotp.GenerateCodeCustom(secret, at, validateOpts)
}

// Key rebuilds the otpauth key for a stored base32 secret.
func Key(secret, account string) (*otp.Key, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return nil, fmt.Errorf("otp secret: %w", err)
	}
	return pqtotp.Generate(pqtotp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: account,
		Period:      period,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// QRDataURI renders the otpauth key as a PNG data URI.
func QRDataURI(secret, account string) (string, error) {
	key, err := Key(secret, account)
	if err != nil {
		return "", err
	}
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("qr image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
