package services

import (
	"regexp"
	"strconv"
)

// byteRange is a resolved, clamped byte range request.
type byteRange struct {
	Start  int64
	End    int64 // inclusive
	Length int64
}

// Only the first single range of a Range header is honored; multi-range
// requests and unrecognized values fall back to full-body delivery.
var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)`)

// resolveRange interprets a Range header against a resource of the given
// size. Returns (nil, false) for full-body delivery, (r, false) for a
// satisfiable partial range, and (nil, true) when the request is
// syntactically valid but unsatisfiable (HTTP 416).
func resolveRange(header string, size int64) (*byteRange, bool) {
	if header == "" {
		return nil, false
	}
	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		// Unrecognized range syntax: serve the full body rather than error.
		return nil, false
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, false
	}

	end := size - 1
	if m[2] != "" {
		end, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, false
		}
	}

	if start >= size || start > end {
		return nil, true
	}
	// An end past EOF is truncated, not rejected (RFC 7233 §2.1).
	if end > size-1 {
		end = size - 1
	}
	return &byteRange{Start: start, End: end, Length: end - start + 1}, false
}
