package weapons

import (
	"net/url"
	"strings"
)

// ParseQRPayload extracts a normalized weapon code from a decoded QR
// payload. Accepted shapes:
//
//	https://t.me/<bot>?start=weapon-XXXX
//	tg://resolve?domain=<bot>&start=weapon-XXXX
//	weapon-XXXX
//	weapon:XXXX
//
// The second return is false when the payload carries no weapon code.
func ParseQRPayload(data string) (string, bool) {
	txt := strings.TrimSpace(data)
	if txt == "" {
		return "", false
	}

	if strings.HasPrefix(txt, "http://") || strings.HasPrefix(txt, "https://") || strings.HasPrefix(txt, "tg://") {
		u, err := url.Parse(txt)
		if err != nil {
			return "", false
		}
		start := u.Query().Get("start")
		if !strings.HasPrefix(strings.ToLower(start), "weapon-") {
			return "", false
		}
		code := start[strings.Index(start, "-")+1:]
		return ExtractCode(code)
	}

	low := strings.ToLower(txt)
	switch {
	case strings.HasPrefix(low, "weapon-"):
		return ExtractCode(txt[strings.Index(txt, "-")+1:])
	case strings.HasPrefix(low, "weapon:"):
		return ExtractCode(txt[strings.Index(txt, ":")+1:])
	}
	return "", false
}
