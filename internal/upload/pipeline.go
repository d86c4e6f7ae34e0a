package upload

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/metrics"
)

// Deps bundles everything the pipeline needs beyond the file and config:
// the optional advisory engines and a logger.
type Deps struct {
	Advisory AdvisoryDeps
	Log      *logrus.Entry
}

func (d Deps) logger() *logrus.Entry {
	if d.Log != nil {
		return d.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Inspect runs one UploadedFile through the full pipeline: Detector,
// strict Validator, YARA, MIME Guesser, the remaining advisory checks,
// Evaluator, and (if not blocked) Sanitizer. Control flow and gating match
// spec.md §2 and §4: advisory checks and the sanitizer never run on an
// already-blocked file.
//
// The MIME guesser runs between YARA and the image-integrity check rather
// than after every advisory check, because image integrity is gated on
// GuessedMime — see DESIGN.md for why this reorders spec.md's stage table
// without changing any stage's semantics.
func Inspect(ctx context.Context, file *UploadedFile, cfg UploadConfig, insCtx *InspectionContext, deps Deps) {
	log := deps.logger()
	metrics.UploadFilesInspectedTotal.Inc()

	timeStage := func(stage string, fn func()) {
		start := time.Now()
		fn()
		metrics.UploadPipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}

	timeStage("detect", func() { Detect(file) })
	log.WithField("file", file.OriginalName).Debug("upload: detection complete")

	timeStage("validate_strict", func() { ValidateStrict(file, cfg) })

	if !file.Blocked {
		timeStage("yara", func() { ValidateYara(file, cfg, deps.Advisory) })
	} else {
		file.Validation.YaraRulesOK = true
	}

	if !file.Blocked {
		timeStage("guess_mime", func() { Guess(file) })
	}

	if !file.Blocked {
		timeStage("advisory_warnings", func() { ValidateAdvisoryWarnings(file) })
	}

	if !file.Blocked {
		timeStage("image_integrity", func() { ValidateImageIntegrity(file, deps.Advisory) })
	}

	if !file.Blocked {
		timeStage("quicksand", func() { ValidateQuicksand(ctx, file, cfg, deps.Advisory) })
	} else {
		file.Validation.QuicksandResultOK = true
	}

	if !file.Blocked {
		timeStage("clamav", func() { ValidateClamAV(ctx, file, cfg, deps.Advisory) })
	} else {
		file.Validation.ClamAVResultOK = true
	}

	timeStage("evaluate", func() { Evaluate(file, insCtx, log) })

	if !file.Blocked && cfg.Sanitization {
		timeStage("sanitize", func() { Sanitize(file, cfg) })
	}

	if file.Blocked {
		for _, reason := range file.BlockReasons {
			metrics.UploadFilesBlockedTotal.WithLabelValues(reason).Inc()
		}
	}

	log.WithFields(logrus.Fields{
		"file":    file.OriginalName,
		"blocked": file.Blocked,
		"reasons": file.BlockReasons,
	}).Debug("upload: inspection complete")
}
