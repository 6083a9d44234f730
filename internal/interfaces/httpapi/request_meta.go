package httpapi

import (
	"net"
	"net/http"
	"strings"
)

// requestMeta is filled as a request moves through the middleware chain and
// logged once the response is written.
type requestMeta struct {
	ClientIP string
	Country  string
	UserID   string
}

var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

var countryHeaders = []string{"Fly-Client-Country", "CF-IPCountry", "CloudFront-Viewer-Country"}

func newRequestMeta(r *http.Request) *requestMeta {
	meta := &requestMeta{Country: "ZZ"}
	for _, header := range clientIPHeaders {
		if ip := firstIP(r.Header.Get(header)); ip != "" {
			meta.ClientIP = ip
			break
		}
	}
	if meta.ClientIP == "" {
		meta.ClientIP = firstIP(r.RemoteAddr)
	}
	for _, header := range countryHeaders {
		if code := countryCode(r.Header.Get(header)); code != "" {
			meta.Country = code
			break
		}
	}
	return meta
}

func (m *requestMeta) logArgs() []any {
	args := []any{"client_ip", m.ClientIP, "country", m.Country}
	if m.UserID != "" {
		args = append(args, "user_id", m.UserID)
	}
	return args
}

func firstIP(raw string) string {
	value, _, _ := strings.Cut(raw, ",")
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	if ip := net.ParseIP(value); ip != nil {
		return ip.String()
	}
	return ""
}

func countryCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return code
}
