package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type iconRule struct {
	keyword string
	icon    string
}

// First match wins, so more specific keywords come first.
var categoryIcons = []iconRule{
	{"mobil", "fa-car"},
	{"motor", "fa-motorcycle"},
	{"properti", "fa-home"},
	{"handphone", "fa-mobile-alt"},
	{"tablet", "fa-tablet-alt"},
	{"elektronik", "fa-tv"},
	{"fashion", "fa-tshirt"},
	{"hobi", "fa-gamepad"},
	{"olahraga", "fa-futbol"},
	{"rumah tangga", "fa-couch"},
	{"jasa", "fa-tools"},
	{"lowongan kerja", "fa-briefcase"},
	{"hewan", "fa-paw"},
	{"makanan", "fa-utensils"},
}

const defaultCategoryIcon = "fa-tag"

func CategoryIcon(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryIcons {
		if strings.Contains(lower, rule.keyword) {
			return rule.icon
		}
	}
	return defaultCategoryIcon
}

// FormatPrice renders "Rp 1,5 jt", "Rp 250 rb" or "Rp 750".
func FormatPrice(price float64) string {
	switch {
	case price >= 1_000_000:
		return "Rp " + oneDecimal(price/1_000_000) + " jt"
	case price >= 1_000:
		return "Rp " + oneDecimal(price/1_000) + " rb"
	}
	return "Rp " + groupThousands(int64(price+0.5))
}

// oneDecimal uses a comma separator and drops a trailing ",0".
func oneDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := groupThousands(n)
	if frac != "0" && frac != "" {
		out += "," + frac
	}
	return out
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

var timeUnits = []struct {
	seconds int64
	label   string
}{
	{31536000, "tahun"},
	{2592000, "bulan"},
	{604800, "minggu"},
	{86400, "hari"},
	{3600, "jam"},
	{60, "menit"},
	{1, "detik"},
}

// TimeAgo renders t relative to now in Indonesian.
func TimeAgo(t, now time.Time) string {
	diff := int64(now.Sub(t) / time.Second)
	for _, unit := range timeUnits {
		if n := diff / unit.seconds; n >= 1 {
			return fmt.Sprintf("%d %s lalu", n, unit.label)
		}
	}
	return "baru saja"
}
