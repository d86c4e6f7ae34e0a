package upload

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// QuicksandTimeout is the bounded timeout spec.md §4.4 and §5 require for
// the Quicksand advisory check; it is the only cancellable stage.
const QuicksandTimeout = 18 * time.Second

// YaraScanner compiles and matches YARA rules against file content. A site
// without a licensed YARA binding either leaves this unset (the YARA check
// is then skipped with an info log) or wires NoopYaraScanner, which matches
// nothing; either way YaraRulesOK stays true.
type YaraScanner interface {
	Match(rulesDir string, content []byte) ([]YaraMatch, error)
}

// NoopYaraScanner mirrors the original's `try: import yara except
// ImportError: yara = None`.
type NoopYaraScanner struct{}

func (NoopYaraScanner) Match(string, []byte) ([]YaraMatch, error) { return nil, nil }

// QuicksandResult is the outcome of a Quicksand scan.
type QuicksandResult struct {
	Rating float64
	Risk   string
}

// QuicksandScanner runs the Quicksand macro/exploit analyzer. A site
// without the library leaves this unset; NoopQuicksandScanner mirrors the
// original's optional-import degradation.
type QuicksandScanner interface {
	Scan(ctx context.Context, content []byte) (QuicksandResult, error)
}

// NoopQuicksandScanner never flags anything: Scan returns a zero rating, so
// when config.Quicksand is enabled with this scanner wired in,
// QuicksandResultOK stays true.
type NoopQuicksandScanner struct{}

func (NoopQuicksandScanner) Scan(context.Context, []byte) (QuicksandResult, error) {
	return QuicksandResult{}, nil
}

// ClamAVClient streams content to a ClamAV daemon and reports whether it
// found a signature. Implemented by internal/upload/clamav.Client against
// the real INSTREAM wire protocol.
type ClamAVClient interface {
	Scan(ctx context.Context, content []byte) (found bool, signature string, err error)
}

// AdvisoryDeps bundles the optional engines the advisory validator calls
// out to. A zero-value AdvisoryDeps (all nil) is valid — every check is
// skipped exactly as if the corresponding engine were not installed.
type AdvisoryDeps struct {
	Yara      YaraScanner
	Quicksand QuicksandScanner
	ClamAV    ClamAVClient
	Log       *logrus.Entry
}

func (d AdvisoryDeps) logger() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// ValidateYara runs only if the strict stages left Blocked false (the
// caller is responsible for that gate, per spec.md invariant 5).
func ValidateYara(file *UploadedFile, cfg UploadConfig, deps AdvisoryDeps) {
	if deps.Yara == nil {
		deps.logger().Info("upload: skipping YARA validation, no scanner configured")
		file.Validation.YaraRulesOK = true
		return
	}

	matches, err := deps.Yara.Match(cfg.YaraFileLocation, file.Content)
	if err != nil {
		deps.logger().WithError(err).Error("upload: YARA match failed")
		file.Validation.YaraRulesOK = true
		return
	}

	file.Detection.YaraMatches = matches
	file.Validation.YaraRulesOK = len(matches) == 0
}

// ValidateImageIntegrity performs the two independent passes spec.md §4.4
// describes: open+verify, then open+transpose horizontally. Either failing
// sets FileIntegrityOK false. Only runs when GuessedMime starts with
// "image/", so it must run after the MIME guesser.
func ValidateImageIntegrity(file *UploadedFile, deps AdvisoryDeps) {
	if !strings.HasPrefix(file.Detection.GuessedMime, "image/") {
		return
	}

	file.Validation.FileIntegrityCheckDone = true
	file.Validation.FileIntegrityOK = checkImageIntegrity(file.Content, deps)
}

func checkImageIntegrity(content []byte, deps AdvisoryDeps) bool {
	if _, err := imaging.Decode(bytes.NewReader(content)); err != nil {
		deps.logger().WithError(err).Error("upload: image integrity check (1) failed")
		return false
	}

	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		deps.logger().WithError(err).Error("upload: image integrity check (2) failed")
		return false
	}
	imaging.FlipH(img)

	return true
}

// suspiciousArchiveExtensions are container formats that can smuggle
// arbitrary content past extension/signature checks without themselves
// being a blockable type.
var suspiciousArchiveExtensions = []string{".zip", ".rar", ".7z", ".tar", ".gz", ".tgz"}

// suspiciousScriptPatterns are substrings that, found in a file guessed as
// text, suggest embedded script content riding along in an otherwise
// innocuous upload.
var suspiciousScriptPatterns = []string{"<script", "javascript:", "onerror=", "onload=", "eval("}

// ValidateAdvisoryWarnings records non-blocking notices: a suspicious
// archive extension, or script-like patterns inside a file guessed as
// text. Neither ever sets file.Blocked — these are operator-facing
// signals, not a detection engine.
func ValidateAdvisoryWarnings(file *UploadedFile) {
	lowerName := strings.ToLower(file.CurrentName)
	for _, ext := range suspiciousArchiveExtensions {
		if strings.HasSuffix(lowerName, ext) {
			file.Warnings = append(file.Warnings, "archive extension: "+ext)
			break
		}
	}

	if strings.HasPrefix(file.Detection.GuessedMime, "text/") {
		lowerContent := strings.ToLower(string(file.Content))
		for _, pattern := range suspiciousScriptPatterns {
			if strings.Contains(lowerContent, pattern) {
				file.Warnings = append(file.Warnings, "script-like content: "+pattern)
			}
		}
	}
}

// ValidateQuicksand runs only when config.Quicksand is true.
func ValidateQuicksand(ctx context.Context, file *UploadedFile, cfg UploadConfig, deps AdvisoryDeps) {
	if !cfg.Quicksand {
		file.Validation.QuicksandResultOK = true
		return
	}
	if deps.Quicksand == nil {
		deps.logger().Info("upload: skipping Quicksand analysis, no scanner configured")
		file.Validation.QuicksandResultOK = true
		return
	}

	scanCtx, cancel := context.WithTimeout(ctx, QuicksandTimeout)
	defer cancel()

	result, err := deps.Quicksand.Scan(scanCtx, file.Content)
	if err != nil {
		deps.logger().WithError(err).Error("upload: Quicksand scan failed")
		file.Validation.QuicksandResultOK = true
		return
	}

	file.Validation.QuicksandResultOK = result.Rating <= 1
	if !file.Validation.QuicksandResultOK {
		file.Validation.QuicksandResultDetail = result.Risk
	}
}

// ValidateClamAV runs only when config.ClamAV is true. Daemon connection
// errors are logged but leave ClamAVResultOK true — a down daemon must not
// block uploads (spec.md §7).
func ValidateClamAV(ctx context.Context, file *UploadedFile, cfg UploadConfig, deps AdvisoryDeps) {
	if !cfg.ClamAV {
		file.Validation.ClamAVResultOK = true
		return
	}
	if deps.ClamAV == nil {
		deps.logger().Info("upload: skipping ClamAV scan, no client configured")
		file.Validation.ClamAVResultOK = true
		return
	}

	found, signature, err := deps.ClamAV.Scan(ctx, file.Content)
	if err != nil {
		deps.logger().WithError(err).Error("upload: cannot connect to clamAV service")
		file.Validation.ClamAVResultOK = true
		return
	}

	file.Validation.ClamAVResultOK = !found
	if found {
		file.Validation.ClamAVResultDetail = signature
	}
}
