// Package pdfdisarm neutralizes active content in PDF files without
// reparsing or rewriting their object structure. No PDF library appears
// anywhere in the retrieved example pack, so this is a small, dependency
// free, byte-level implementation rather than a fabricated dependency: it
// blanks out the name tokens that trigger active behaviour in PDF
// viewers (JavaScript, launch actions, auto-open actions) while leaving
// every other byte — and therefore every xref offset — untouched.
package pdfdisarm

import "bytes"

// neutralizedTokens maps each dangerous PDF name token to a same-length
// replacement. Same length is the point: PDF cross-reference tables record
// byte offsets, so altering length would corrupt the document; turning the
// token into a name no viewer recognizes is enough to neutralize it.
var neutralizedTokens = [][2][]byte{
	{[]byte("/JavaScript"), []byte("/JavaScrXpt")},
	{[]byte("/JS"), []byte("/X_")},
	{[]byte("/OpenAction"), []byte("/OpenActXon")},
	{[]byte("/Launch"), []byte("/LaunXh")},
	{[]byte("/AA"), []byte("/XA")},
}

// Disarm returns a copy of content with every dangerous PDF name token
// blanked out, and whether anything was changed. It never errors: a buffer
// that doesn't parse as a PDF still passes through the same byte-literal
// replacement, matching the original's "catch, log, leave content
// unchanged" contract from the caller's side (spec.md §4.7 — Disarmer
// exceptions are caught and leave content unchanged; here there is simply
// nothing that can throw).
func Disarm(content []byte) (disarmed []byte, changed bool) {
	out := make([]byte, len(content))
	copy(out, content)

	for _, pair := range neutralizedTokens {
		token, replacement := pair[0], pair[1]
		for {
			idx := bytes.Index(out, token)
			if idx == -1 {
				break
			}
			copy(out[idx:idx+len(replacement)], replacement)
			changed = true
		}
	}

	return out, changed
}
