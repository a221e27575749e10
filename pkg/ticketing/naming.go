package ticketing

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Jacobbrewer1/yupil/pkg/entities"
)

// maxNameLength keeps room for a collision suffix under the platform limit of 100.
const maxNameLength = 90

// Normalize lowercases the name and folds every run of characters that are not letters or digits
// into a single hyphen.
func Normalize(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > maxNameLength {
		out = strings.TrimRight(out[:maxNameLength], "-")
	}
	if out == "" {
		return "member"
	}
	return out
}

// ChannelName builds the channel name for a ticket. Tickets opened by a restriction are named
// "ticket-<name>", every other origin is named "<YYYYMMDD>-<name>".
func ChannelName(origin entities.TicketOrigin, displayName string, at time.Time) string {
	name := Normalize(displayName)
	if origin == entities.TicketOriginRestriction {
		return "ticket-" + name
	}
	return at.UTC().Format("20060102") + "-" + name
}

// uniqueName appends -2, -3 and so on until the name is not taken.
func uniqueName(base string, taken map[string]struct{}) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
