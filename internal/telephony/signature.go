package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"net/url"
	"sort"
	"strings"
)

// HeaderSignature carries the provider's request signature.
const HeaderSignature = "X-Twilio-Signature"

// ComputeSignature returns base64(HMAC-SHA1(authToken, callbackURL + k1 + v1 + k2 + v2 ...))
// with parameters ordered by key.
func ComputeSignature(authToken, callbackURL string, params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(callbackURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature was produced for callbackURL and
// params with authToken. An empty token, an empty signature or a callback URL
// that is not absolute never validates. The URL is also tried with its default
// port added and removed, since the provider may sign either form.
func ValidateSignature(authToken, signature, callbackURL string, params Params) bool {
	if authToken == "" || signature == "" {
		return false
	}
	for _, candidate := range urlVariants(callbackURL) {
		expected := ComputeSignature(authToken, candidate, params)
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return true
		}
	}
	return false
}

func urlVariants(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	out := []string{raw}

	defaultPort := ""
	switch u.Scheme {
	case "https":
		defaultPort = "443"
	case "http":
		defaultPort = "80"
	default:
		return out
	}

	alt := *u
	if u.Port() == "" {
		alt.Host = net.JoinHostPort(u.Hostname(), defaultPort)
	} else if u.Port() == defaultPort {
		alt.Host = u.Hostname()
	} else {
		return out
	}
	if s := alt.String(); s != raw {
		out = append(out, s)
	}
	return out
}
