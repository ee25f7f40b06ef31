// Package errtext turns raw upstream error text into the short message an
// admin actually sees.
//
// Mapping is keyword sniffing over the lowered error string, first match
// wins. Anything unrecognized passes through unchanged so real detail is
// never hidden behind a generic message.
package errtext

import "strings"

type rule struct {
	keywords []string
	message  string
}

// Order matters: earlier rules win. "unauthorized" must be checked before
// the generic "500" family because some gateways mix both into one body.
var rules = []rule{
	{[]string{"failed to fetch", "network", "cors", "connection refused", "no such host", "dial tcp"},
		"Couldn't connect to the service. Check the URL and your network."},
	{[]string{"401", "unauthorized", "invalid username", "invalid password", "token required"},
		"Access denied. Check the username and password for this service."},
	{[]string{"403", "forbidden"},
		"You don't have permission to access this service."},
	{[]string{"404", "not found"},
		"The service could not be found. Check the URL."},
	{[]string{"500", "internal server error"},
		"The service reported a server error. Try again later."},
	{[]string{"timeout", "timed out", "deadline exceeded"},
		"The request timed out. The service may be slow or unavailable."},
}

// Friendly maps raw error text to a plain-English message, or returns the
// text unchanged when no rule matches. Empty input stays empty.
func Friendly(raw string) string {
	lowered := strings.ToLower(raw)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.message
			}
		}
	}
	return raw
}

// FriendlyErr is Friendly for error values; nil yields "".
func FriendlyErr(err error) string {
	if err == nil {
		return ""
	}
	return Friendly(err.Error())
}
