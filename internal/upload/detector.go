package upload

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detect derives filename splits, the primary extension, and the
// signature MIME type (spec.md §4.2). It never blocks — oversize and
// whitelist handling belong to the strict validator.
func Detect(file *UploadedFile) {
	file.Detection.FilenameSplits = filenameSplits(file.CurrentName)
	last := file.Detection.FilenameSplits[len(file.Detection.FilenameSplits)-1]
	file.Detection.Extensions = []string{last}

	file.Detection.SignatureMime = signatureMime(file.Content)
}

// signatureMime plays the role libmagic plays in the original: derive a
// MIME type purely from the content's magic bytes, in pure Go via
// gabriel-vasile/mimetype rather than a cgo libmagic binding. On any
// failure to classify, the contract requires treating the signature as
// empty so every whitelist and cross-check subsequently fails closed
// (spec.md §7's one deliberate fail-closed asymmetry).
func signatureMime(content []byte) (mime string) {
	defer func() {
		if recover() != nil {
			mime = ""
		}
	}()

	detected := mimetype.Detect(content)
	if detected == nil {
		return ""
	}
	// mimetype.String() can carry parameters ("text/plain; charset=utf-8");
	// the similarity table and whitelists compare bare type/subtype.
	return strings.TrimSpace(strings.SplitN(detected.String(), ";", 2)[0])
}
