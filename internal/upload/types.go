// Package upload implements the file inspection pipeline: ingest, type
// detection, strict and advisory validation, MIME guessing, block-decision
// evaluation, and sanitization of uploaded files.
package upload

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"strings"
)

// Declared holds the metadata the HTTP framework reported for a part,
// captured verbatim at ingest and never altered afterwards.
type Declared struct {
	ContentType       string
	Charset           string
	ContentTypeExtra  map[string]string
	Size              int64
}

// YaraMatch records one matched rule.
type YaraMatch struct {
	Rule string
}

// Detection holds the independent type signals the Detector and MIME
// Guesser derive from a file.
type Detection struct {
	FilenameSplits []string
	Extensions     []string
	SignatureMime  string
	GuessedMime    string
	YaraMatches    []YaraMatch
}

// Validation is the record of boolean outcomes plus detail strings that the
// strict and advisory validators populate.
type Validation struct {
	FileSizeOK                          bool
	FilenameLengthOK                    bool
	ExtensionsWhitelistOK                bool
	RequestWhitelistOK                   bool
	SignatureWhitelistOK                 bool
	MatchingExtensionSignatureRequestOK bool

	YaraRulesOK bool

	QuicksandResultOK     bool
	QuicksandResultDetail string

	ClamAVResultOK     bool
	ClamAVResultDetail string

	FileIntegrityOK      bool
	FileIntegrityCheckDone bool

	Malicious bool

	GuessingScores     map[string]int
	TotalPointsOverall int
}

// Attacks records the two attack classes the strict validator detects.
type Attacks struct {
	MimeManipulation  bool
	NullByteInjection bool
}

// Sanitization records what the sanitizer did to the file.
type Sanitization struct {
	CreatedRandomFilenameWithGuessedExtension bool
	DisarmedPDF                                bool
}

// UploadedFile is the inspection subject. It is constructed once per file by
// NewUploadedFile and mutated in place by each pipeline stage. Blocked only
// ever goes from false to true. The strict checks set Blocked without a
// reason and the Evaluator appends the reasons, so the invariant
// `Blocked == (len(BlockReasons) > 0)` holds once Evaluate has run; reasons
// are always appended through Block, never by writing BlockReasons directly.
type UploadedFile struct {
	OriginalName string
	CurrentName  string
	Content      []byte

	Declared Declared

	SHA256    string
	AllHashes map[string]string // md5, sha1, sha256, sha512 — logging only

	Detection    Detection
	Validation   Validation
	Attacks      Attacks
	Sanitization Sanitization

	Blocked      bool
	BlockReasons []string

	// Warnings carries non-blocking advisory notices — suspicious archive
	// extensions, inline script-like patterns in text content — distinct
	// from BlockReasons: nothing here ever sets Blocked.
	Warnings []string
}

// Block appends a reason tag and sets Blocked. It is the only way a reason
// is recorded; apart from it, only the strict checks set Blocked.
func (f *UploadedFile) Block(reason string) {
	f.BlockReasons = append(f.BlockReasons, reason)
	f.Blocked = true
}

// NewUploadedFile ingests raw content plus the metadata the framework
// reported for the part, computing hashes and seeding the MIME guesser's
// score table with a zero entry for every known type (invariant: the map
// has exactly one entry per known type from construction onward).
func NewUploadedFile(name string, content []byte, declared Declared) *UploadedFile {
	f := &UploadedFile{
		OriginalName: name,
		CurrentName:  name,
		Content:      content,
		Declared:     declared,
	}

	md5h := md5.New()
	sha1h := sha1.New()
	sha256h := sha256.New()
	sha512h := sha512.New()
	w := io.MultiWriter(md5h, sha1h, sha256h, sha512h)
	w.Write(content)

	f.SHA256 = hex.EncodeToString(sha256h.Sum(nil))
	f.AllHashes = map[string]string{
		"md5":    hexSum(md5h),
		"sha1":   hexSum(sha1h),
		"sha256": f.SHA256,
		"sha512": hexSum(sha512h),
	}

	f.Validation.GuessingScores = make(map[string]int, len(KnownMimeTypes()))
	for _, mime := range KnownMimeTypes() {
		f.Validation.GuessingScores[mime] = 0
	}

	return f
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// filenameSplits lowercases name and splits on '.', mirroring the detector's
// contract exactly (order preserved, no filtering of empty tokens removed).
func filenameSplits(name string) []string {
	return strings.Split(strings.ToLower(name), ".")
}
