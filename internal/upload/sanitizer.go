package upload

import (
	"github.com/google/uuid"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload/pdfdisarm"
)

// Sanitize runs only when the caller has already confirmed Blocked is
// false (spec.md invariant 4). It randomizes the filename unless the
// config asks to keep the original, then dispatches PDF disarming.
func Sanitize(file *UploadedFile, cfg UploadConfig) {
	if !cfg.KeepOriginalFilename {
		ext := guessExtensionForMime(file.Detection.GuessedMime)
		file.CurrentName = uuid.NewString() + "." + ext
		file.Sanitization.CreatedRandomFilenameWithGuessedExtension = true
	}

	if file.Detection.GuessedMime == "application/pdf" {
		disarmed, changed := pdfdisarm.Disarm(file.Content)
		file.Content = disarmed
		file.Sanitization.DisarmedPDF = changed
	}
}
