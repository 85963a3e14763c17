package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"kfolx-backend-go/internal/models"
)

const (
	titleMin          = 5
	titleMaxCreate    = 150
	titleMaxEdit      = 200
	locationMax       = 100
	descriptionMin    = 20
	descriptionMax    = 5000
	phoneMinDigits    = 10
	phoneMaxDigits    = 15
	maxPrice          = 999999999999
	nameMin           = 3
	passwordMin       = 6
	addressMax        = 255
	maxPriceInputSize = 32
)

var (
	nonDigits       = regexp.MustCompile(`[^0-9]`)
	plainDigits     = regexp.MustCompile(`^[0-9]+$`)
	whatsappPattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

// AdInput is the post-ad / edit-ad form. Price is kept raw because create and
// edit normalize it differently.
type AdInput struct {
	Title       string
	CategoryID  int64
	Price       string
	Location    string
	Description string
	Phone       string
	Status      string
}

type adFields struct {
	Title       string
	CategoryID  int64
	Price       float64
	Location    string
	Description string
	Phone       *string
}

// validateAdFields checks everything except category existence and images.
func validateAdFields(input AdInput, edit bool) (adFields, map[string]string) {
	errs := map[string]string{}
	out := adFields{
		Title:       strings.TrimSpace(input.Title),
		CategoryID:  input.CategoryID,
		Location:    strings.TrimSpace(input.Location),
		Description: strings.TrimSpace(input.Description),
	}

	titleMax := titleMaxCreate
	if edit {
		titleMax = titleMaxEdit
	}
	switch n := utf8.RuneCountInString(out.Title); {
	case n == 0:
		errs["title"] = "Judul iklan harus diisi"
	case n < titleMin:
		errs["title"] = fmt.Sprintf("Judul minimal %d karakter", titleMin)
	case n > titleMax:
		errs["title"] = fmt.Sprintf("Judul maksimal %d karakter", titleMax)
	}

	if out.CategoryID <= 0 {
		errs["category_id"] = "Kategori harus dipilih"
	}

	price, ok := parsePrice(input.Price, edit)
	switch {
	case !ok || price <= 0:
		errs["price"] = "Harga harus lebih dari 0"
	case price > maxPrice:
		errs["price"] = "Harga terlalu besar"
	}
	out.Price = price

	switch n := utf8.RuneCountInString(out.Location); {
	case n == 0:
		errs["location"] = "Lokasi harus diisi"
	case n > locationMax:
		errs["location"] = fmt.Sprintf("Lokasi maksimal %d karakter", locationMax)
	}

	switch n := utf8.RuneCountInString(out.Description); {
	case n == 0:
		errs["description"] = "Deskripsi harus diisi"
	case n < descriptionMin:
		errs["description"] = fmt.Sprintf("Deskripsi minimal %d karakter", descriptionMin)
	case n > descriptionMax:
		errs["description"] = fmt.Sprintf("Deskripsi maksimal %d karakter", descriptionMax)
	}

	phone, msg := normalizePhone(input.Phone)
	if msg != "" {
		errs["phone"] = msg
	}
	out.Phone = phone
	return out, errs
}

// parsePrice strips formatting from a price field. Create accepts any
// decoration ("Rp 1.500.000"); edit only drops thousands separators and
// rejects anything left that is not plain digits.
func parsePrice(raw string, edit bool) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxPriceInputSize {
		return maxPrice + 1, true
	}
	var cleaned string
	if edit {
		cleaned = strings.NewReplacer(".", "", ",", "").Replace(raw)
	} else {
		cleaned = nonDigits.ReplaceAllString(raw, "")
	}
	if !plainDigits.MatchString(cleaned) {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// normalizePhone keeps digits only; an empty result means no phone.
func normalizePhone(raw string) (*string, string) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return nil, ""
	}
	if len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return nil, fmt.Sprintf("Nomor telepon harus %d-%d digit", phoneMinDigits, phoneMaxDigits)
	}
	return &digits, ""
}

// resolveEditStatus keeps the current status when none is given and falls
// back to active for unknown values.
func resolveEditStatus(requested, current string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		if models.ValidStatus(current) {
			return current
		}
		return models.StatusActive
	}
	if models.ValidStatus(requested) {
		return requested
	}
	return models.StatusActive
}

type RegisterInput struct {
	Name            string
	Email           string
	Whatsapp        string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

func validateRegister(input RegisterInput) map[string]string {
	errs := map[string]string{}
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		errs["name"] = "Nama lengkap harus diisi"
	case utf8.RuneCountInString(name) < nameMin:
		errs["name"] = fmt.Sprintf("Nama minimal %d karakter", nameMin)
	}

	email := strings.TrimSpace(input.Email)
	switch {
	case email == "":
		errs["email"] = "Email harus diisi"
	case !validEmail(email):
		errs["email"] = "Format email tidak valid"
	}

	whatsapp := strings.TrimSpace(input.Whatsapp)
	switch {
	case whatsapp == "":
		errs["whatsapp"] = "Nomor WhatsApp harus diisi"
	case !whatsappPattern.MatchString(whatsapp):
		errs["whatsapp"] = "Format nomor WhatsApp tidak valid (10-15 digit)"
	}

	switch {
	case input.Password == "":
		errs["password"] = "Password harus diisi"
	case len(input.Password) < passwordMin:
		errs["password"] = fmt.Sprintf("Password minimal %d karakter", passwordMin)
	}
	switch {
	case input.ConfirmPassword == "":
		errs["confirm_password"] = "Konfirmasi password harus diisi"
	case input.Password != input.ConfirmPassword:
		errs["confirm_password"] = "Password tidak cocok"
	}

	if !input.AcceptTerms {
		errs["terms"] = "Anda harus menyetujui syarat dan ketentuan"
	}
	return errs
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
