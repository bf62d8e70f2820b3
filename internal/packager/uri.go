// Package packager turns a selector script into a bookmarklet.
package packager

const scheme = "javascript:"

// ToURI prefixes script with the javascript: scheme. The script is not
// escaped, callers that need a percent-encoded link must do it themselves.
func ToURI(script string) string {
	return scheme + script
}
