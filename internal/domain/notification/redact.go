package notification

import "strings"

// RedactEmail masks the local part of an address for logging: "jane@example.com"
// becomes "j***@example.com".
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
