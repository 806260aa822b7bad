package rag

import (
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

// DetectLanguage returns the ISO 639-1 code of s, or "und" when detection is
// not reliable. Case narratives are mostly English or Hindi.
func DetectLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "und"
	}
	info := wl.Detect(s)
	if !info.IsReliable() {
		return "und"
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "und"
	}
	return code
}
