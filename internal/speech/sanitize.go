// Package speech proxies speech-to-text requests and prepares reply text
// for speech synthesis.
package speech

import "regexp"

// pictographs covers the emoji and symbol ranges the synthesizer would
// otherwise read out loud, plus the bullet used in list replies.
var pictographs = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}•]`)

// Sanitize strips emoji and pictographic characters so a reply can be fed
// to a speech synthesizer.
func Sanitize(text string) string {
	return pictographs.ReplaceAllString(text, "")
}
