package payment

import (
	"strings"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
)

// mtnPrefixes are the approved carrier prefixes for MTN Mobile Money
// subscriber numbers (Cameroon, 9-digit local numbers).
var mtnPrefixes = map[string]bool{
	"67": true,
	"65": true,
	"68": true,
}

const (
	mtnCountryCode   = "237"
	mtnLocalDigits   = 9
	cvvLengthDefault = 3
	cvvLengthAmex    = 4
)

func validateStripe(data domain.PaymentData) error {
	number := strings.ReplaceAll(strings.ReplaceAll(data.CardNumber, " ", ""), "-", "")
	if !luhnValid(number) {
		return domain.ErrInvalidCardNumber
	}

	if strings.TrimSpace(data.CardholderName) == "" {
		return domain.ErrInvalidCardHolder
	}

	if data.ExpiryMonth < 1 || data.ExpiryMonth > 12 {
		return domain.ErrCardExpired
	}
	now := time.Now()
	// Month granularity: a card expiring this month is still valid.
	if data.ExpiryYear < now.Year() ||
		(data.ExpiryYear == now.Year() && data.ExpiryMonth < int(now.Month())) {
		return domain.ErrCardExpired
	}

	expected := cvvLengthDefault
	if strings.HasPrefix(number, "34") || strings.HasPrefix(number, "37") {
		expected = cvvLengthAmex
	}
	if len(data.CVV) != expected || !allDigits(data.CVV) {
		return domain.ErrInvalidCVV
	}

	return nil
}

func validateMTN(data domain.PaymentData) error {
	number := strings.TrimPrefix(data.PhoneNumber, "+")
	number = strings.TrimPrefix(number, mtnCountryCode)

	// No separators after normalization: any non-digit rejects.
	if number == "" || !allDigits(number) {
		return domain.ErrInvalidPhone
	}
	if len(number) != mtnLocalDigits {
		return domain.ErrInvalidPhone
	}
	if !mtnPrefixes[number[:2]] {
		return domain.ErrInvalidPhone
	}

	return nil
}

func luhnValid(number string) bool {
	if len(number) < 2 || !allDigits(number) {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
