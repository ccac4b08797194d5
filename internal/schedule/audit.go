package schedule

import (
	"errors"
	"strings"
	"time"
)

// Audit log wire format: one token per line, pipe-separated:
//
//	2025-09-14 18:03:22|Comment|old value|new value
//
// Timestamps are local server time at second resolution; no timezone is
// embedded. Values are stored sanitized (newlines and pipes replaced)
// so a single field can never span tokens. Tokens are independently
// decodable: a malformed line is skipped, never fatal to the read.
const entryTimeLayout = "2006-01-02 15:04:05"

var errMalformedEntry = errors.New("malformed audit entry")

var entrySanitizer = strings.NewReplacer("\n", " ", "\r", " ", "|", "/")

func encodeEntry(field, oldVal, newVal string, ts time.Time) string {
	return ts.Format(entryTimeLayout) + "|" +
		entrySanitizer.Replace(field) + "|" +
		entrySanitizer.Replace(oldVal) + "|" +
		entrySanitizer.Replace(newVal)
}

func decodeEntry(token string) (AuditEntry, error) {
	parts := strings.SplitN(token, "|", 4)
	if len(parts) != 4 {
		return AuditEntry{}, errMalformedEntry
	}
	ts, err := time.ParseInLocation(entryTimeLayout, parts[0], time.Local)
	if err != nil {
		return AuditEntry{}, errMalformedEntry
	}
	if parts[1] == "" {
		return AuditEntry{}, errMalformedEntry
	}
	return AuditEntry{Timestamp: ts, Field: parts[1], Old: parts[2], New: parts[3]}, nil
}

// decodeLog parses a stored audit blob into entries in append order,
// skipping undecodable tokens.
func decodeLog(raw string) []AuditEntry {
	if raw == "" {
		return nil
	}
	var out []AuditEntry
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := decodeEntry(line)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// appendLog appends tokens to an existing blob, preserving everything
// already there. The log is append-only: nothing is rewritten.
func appendLog(raw string, tokens []string) string {
	joined := strings.Join(tokens, "\n")
	if raw == "" {
		return joined
	}
	return raw + "\n" + joined
}
