package sms

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"aidgate/pkg/derrors"
)

// NormalizePhone converts a local mobile number ("05XXXXXXXX") to the
// configured country-coded form. Numbers already in international form are
// passed through after a digit check. Anything else is a validation error.
func NormalizePhone(raw, countryCode string) (string, error) {
	n := strings.TrimSpace(raw)
	n = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(n)

	if strings.HasPrefix(n, "+") {
		if !govalidator.IsNumeric(n[1:]) || len(n) < 8 || len(n) > 16 {
			return "", derrors.New(derrors.CodeValidation, "invalid international phone number")
		}
		return n, nil
	}

	if strings.HasPrefix(n, "00") {
		n = "+" + n[2:]
		if !govalidator.IsNumeric(n[1:]) || len(n) < 8 || len(n) > 16 {
			return "", derrors.New(derrors.CodeValidation, "invalid international phone number")
		}
		return n, nil
	}

	// Local form: 05XXXXXXXX becomes <country code>5XXXXXXXX.
	if len(n) == 10 && strings.HasPrefix(n, "05") && govalidator.IsNumeric(n) {
		return countryCode + n[1:], nil
	}

	return "", derrors.New(derrors.CodeValidation, "unrecognized phone number format")
}
