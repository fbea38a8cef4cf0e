package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Common utilities used across the chat-files-api

// MimeTopLevel returns the top-level type of a MIME string ("image/png" -> "image").
func MimeTopLevel(mime string) string {
	if i := strings.Index(mime, "/"); i > 0 {
		return mime[:i]
	}
	return mime
}

// SanitizeFilename strips characters that would break a Content-Disposition
// header: double quotes, backslashes, CR and LF.
func SanitizeFilename(name string) string {
	r := strings.NewReplacer("\"", "", "\\", "", "\r", "", "\n", "")
	return r.Replace(name)
}

// ContentDisposition builds an attachment disposition with both a sanitized
// plain filename and a UTF-8 percent-encoded filename* fallback (RFC 5987 /
// RFC 6266), so intermediaries that cannot parse the encoded form still get
// a safe name.
func ContentDisposition(filename string) string {
	safe := SanitizeFilename(filename)
	encoded := url.PathEscape(safe)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, safe, encoded)
}

// ParseSizeString converts human-readable size strings to bytes
func ParseSizeString(sizeStr string) (int64, error) {
	sizeStr = strings.TrimSpace(sizeStr)

	units := []struct {
		suffix string
		factor float64
	}{
		{"TB", 1 << 40},
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
	}

	for _, u := range units {
		if strings.HasSuffix(sizeStr, u.suffix) {
			v := strings.TrimSuffix(sizeStr, u.suffix)
			if size, err := strconv.ParseFloat(v, 64); err == nil {
				return int64(size * u.factor), nil
			}
			return 0, fmt.Errorf("invalid size format: %s", sizeStr)
		}
	}

	if strings.HasSuffix(sizeStr, "B") {
		sizeStr = strings.TrimSuffix(sizeStr, "B")
	}
	if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil {
		return size, nil
	}

	return 0, fmt.Errorf("invalid size format: %s", sizeStr)
}

// FormatBytes renders a byte count in a human-readable unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
