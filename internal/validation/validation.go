package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation error with field details
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is a collection of validation errors
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Add appends a field error
func (e *Errors) Add(field, code, message string) {
	*e = append(*e, FieldError{Field: field, Code: code, Message: message})
}

// Err returns nil when no errors were collected, so callers can return it directly.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Indian tax and banking identifier patterns
var (
	gstinPattern   = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	upiPattern     = regexp.MustCompile(`^[a-z0-9._-]+@[a-z]+$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	emailPattern   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

	phoneStripper = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")
)

// Error codes
const (
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID_FORMAT"
	CodeMismatch = "MISMATCH"
	CodeTooLong  = "TOO_LONG"
	CodeTooShort = "TOO_SHORT"
	CodeNegative = "NEGATIVE"
)

// ValidateGSTIN checks a 15 character GST identification number.
func ValidateGSTIN(gstin string) bool {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	return len(gstin) == 15 && gstinPattern.MatchString(gstin)
}

// ValidatePAN checks a permanent account number, e.g. ABCDE1234F.
func ValidatePAN(pan string) bool {
	return panPattern.MatchString(strings.ToUpper(strings.TrimSpace(pan)))
}

// ValidateIFSC checks a bank branch IFSC code, e.g. SBIN0001234.
func ValidateIFSC(ifsc string) bool {
	return ifscPattern.MatchString(strings.ToUpper(strings.TrimSpace(ifsc)))
}

// ValidateUPI checks a UPI virtual payment address, e.g. shop@okaxis.
func ValidateUPI(upi string) bool {
	return upiPattern.MatchString(strings.ToLower(strings.TrimSpace(upi)))
}

// ValidatePincode checks a six digit postal code.
func ValidatePincode(pincode string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(pincode))
}

// ValidateEmail performs a shape check only.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// NormalizePhone strips formatting and the +91/91 country prefix and reports
// whether what remains is a valid Indian mobile number.
func NormalizePhone(phone string) (string, bool) {
	cleaned := phoneStripper.Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(cleaned, "+91"):
		cleaned = cleaned[3:]
	case strings.HasPrefix(cleaned, "91") && len(cleaned) == 12:
		cleaned = cleaned[2:]
	}
	if !mobilePattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

// ValidatePhone reports whether phone normalises to a valid mobile number.
func ValidatePhone(phone string) bool {
	_, ok := NormalizePhone(phone)
	return ok
}

// StateCodeFromGSTIN returns the two digit state code a GSTIN was issued in.
func StateCodeFromGSTIN(gstin string) (string, bool) {
	if !ValidateGSTIN(gstin) {
		return "", false
	}
	return strings.TrimSpace(gstin)[:2], true
}

// NormalizeGSTIN upper-cases and trims a GSTIN for storage.
func NormalizeGSTIN(gstin string) string {
	return strings.ToUpper(strings.TrimSpace(gstin))
}
