package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"

	"kfolx-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

const (
	maxFormMemory = 32 << 20
	maxJSONBody   = 1 << 20
	maxQueryLen   = 100
)

// proxySet holds the peers whose X-Forwarded-For header is believed.
type proxySet []*net.IPNet

// parseProxies accepts bare IPs and CIDRs. Bad entries are logged and skipped.
func parseProxies(entries []string) proxySet {
	var set proxySet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if ip := net.ParseIP(entry); ip != nil {
			bits := 128
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			set = append(set, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			log.Printf("trusted proxy %q ignored: %v", entry, err)
			continue
		}
		set = append(set, network)
	}
	return set
}

func (p proxySet) trusts(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// resolveClientIP returns the socket peer unless that peer is a trusted
// proxy. Behind one, X-Forwarded-For is walked from the right and the first
// hop that is not a trusted proxy wins.
func resolveClientIP(r *http.Request, proxies proxySet) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !proxies.trusts(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			break
		}
		client = hop
		if !proxies.trusts(hop) {
			break
		}
	}
	return client
}

func trimString(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if len([]rune(trimmed)) > maxLen {
		return string([]rune(trimmed)[:maxLen])
	}
	return trimmed
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 1 {
		return 0
	}
	return value
}

// parseAmount reads a price filter; anything unparsable or negative is unset.
func parseAmount(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func adIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := parseInt64(chi.URLParam(r, "adId"))
	if id == 0 {
		WriteError(w, http.StatusNotFound, "Iklan tidak ditemukan")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Data yang dikirim tidak valid")
		return false
	}
	return true
}

// parseForm accepts multipart or urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if err == http.ErrNotMultipart {
		return r.ParseForm()
	}
	return err
}

func formFiles(r *http.Request, keys ...string) []services.UploadedFile {
	if r.MultipartForm == nil {
		return nil
	}
	files := []services.UploadedFile{}
	for _, key := range keys {
		for _, header := range r.MultipartForm.File[key] {
			files = append(files, uploadedFile(header))
		}
	}
	return files
}

func uploadedFile(header *multipart.FileHeader) services.UploadedFile {
	return services.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func formIDs(r *http.Request, keys ...string) []int64 {
	ids := []int64{}
	for _, key := range keys {
		for _, raw := range r.Form[key] {
			if id := parseInt64(raw); id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
