package telephony

import "strings"

// Params is the top-level form parameter set of a webhook request.
type Params map[string]string

// ParseParams decodes an application/x-www-form-urlencoded body. Duplicate
// keys keep the last value. Malformed pairs and bad percent escapes are
// tolerated rather than rejected, matching what the provider signs.
func ParseParams(raw []byte) Params {
	out := Params{}
	for _, pair := range strings.Split(string(raw), "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		out[formUnescape(k)] = formUnescape(v)
	}
	return out
}

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

func formUnescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b = append(b, ' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b = append(b, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
