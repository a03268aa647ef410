package service

import (
	"fmt"

	"aidgate/internal/otp/models"
)

// messageFor renders the SMS text for a purpose. The switch is exhaustive
// over the purpose enum; ParsePurpose rejects anything else upstream.
func messageFor(purpose models.Purpose, code string, minutes int) string {
	switch purpose {
	case models.PurposeRegistration:
		return fmt.Sprintf("Your registration code is %s. It expires in %d minutes.", code, minutes)
	case models.PurposeLogin:
		return fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, minutes)
	case models.PurposePasswordReset:
		return fmt.Sprintf("Your password reset code is %s. It expires in %d minutes. If you did not request this, ignore this message.", code, minutes)
	case models.PurposePhoneChange:
		return fmt.Sprintf("Your phone change code is %s. It expires in %d minutes.", code, minutes)
	case models.PurposeDataUpdate:
		return fmt.Sprintf("Your data update code is %s. It expires in %d minutes.", code, minutes)
	default:
		return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	}
}
