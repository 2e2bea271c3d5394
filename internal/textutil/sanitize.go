package textutil

import "strings"

// unsafeFileNameRunes lists the characters rejected by common filesystems.
const unsafeFileNameRunes = `<>:"/\|?*`

// SanitizeFileName replaces every filesystem-unsafe character with a single
// underscore. All other runes, including whitespace and non-ASCII letters, are
// preserved. Empty input yields empty output.
func SanitizeFileName(name string) string {
	if !strings.ContainsAny(name, unsafeFileNameRunes) {
		return name
	}
	// Every unsafe character is ASCII, so bytes can be replaced in place
	// without decoding; invalid UTF-8 sequences pass through untouched.
	b := []byte(name)
	for i, c := range b {
		if strings.IndexByte(unsafeFileNameRunes, c) >= 0 {
			b[i] = '_'
		}
	}
	return string(b)
}

// IsSafeFileName reports whether name is already free of unsafe characters.
func IsSafeFileName(name string) bool {
	return !strings.ContainsAny(name, unsafeFileNameRunes)
}
