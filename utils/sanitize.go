package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips user-submitted markup down to the UGC whitelist before it
// is stored or echoed back.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
