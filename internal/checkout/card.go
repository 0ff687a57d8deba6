package checkout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationError is a payment form problem, worded for the visitor.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrNameRequired   ValidationError = "Please enter your first and last name"
	ErrCardRequired   ValidationError = "Please enter your credit card number"
	ErrCardInvalid    ValidationError = "Please enter a valid credit card number"
	ErrExpiryRequired ValidationError = "Please enter expiry date"
	ErrExpiryFormat   ValidationError = "Please enter expiry date in MM/YY format"
	ErrCardExpired    ValidationError = "Credit card has expired"
)

var expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)

// Form is the submitted payment form.
type Form struct {
	FirstName  string `form:"firstName"`
	LastName   string `form:"lastName"`
	CardNumber string `form:"cardNumber"`
	Expiry     string `form:"expiryDate"`
}

// Validate checks the form as of now.  A card is valid through the end of
// its expiry month.
func (f Form) Validate(now time.Time) error {
	if strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.LastName) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(f.CardNumber) == "" {
		return ErrCardRequired
	}
	n := len(stripSpaces(f.CardNumber))
	if n < 13 || n > 19 {
		return ErrCardInvalid
	}
	if strings.TrimSpace(f.Expiry) == "" {
		return ErrExpiryRequired
	}
	m := expiryRe.FindStringSubmatch(f.Expiry)
	if m == nil {
		return ErrExpiryFormat
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return ErrCardExpired
	}
	return nil
}

// Brand is a card network.
type Brand string

const (
	BrandUnknown    Brand = ""
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiners     Brand = "diners"
	BrandDiscover   Brand = "discover"
	BrandJCB        Brand = "jcb"
)

// DetectBrand guesses the network from the number's prefix.
func DetectBrand(number string) Brand {
	n := stripSpaces(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case strings.HasPrefix(n, "5"), strings.HasPrefix(n, "2"):
		return BrandMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	case strings.HasPrefix(n, "35"):
		return BrandJCB
	case strings.HasPrefix(n, "30"), strings.HasPrefix(n, "36"), strings.HasPrefix(n, "38"):
		return BrandDiners
	case strings.HasPrefix(n, "6"):
		return BrandDiscover
	}
	return BrandUnknown
}

// FormatCardNumber keeps the digits and groups them by four.
func FormatCardNumber(s string) string {
	d := onlyDigits(s)
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry keeps the digits and renders them as MM/YY once a month is
// complete.
func FormatExpiry(s string) string {
	d := onlyDigits(s)
	if len(d) < 2 {
		return d
	}
	return d[:2] + "/" + d[2:min(len(d), 4)]
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
