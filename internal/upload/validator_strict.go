package upload

import "strings"

// ValidateStrict runs the seven strict checks of spec.md §4.3. Each check
// writes its boolean into Validation; on failure it sets Blocked but does
// not append a reason — the Evaluator aggregates reasons once, after every
// strict check has run, so a file can report every concurrent failure.
func ValidateStrict(file *UploadedFile, cfg UploadConfig) {
	checkFileSize(file, cfg)
	checkRequestWhitelist(file, cfg)
	checkSignatureWhitelist(file, cfg)
	checkExtensionSignatureRequestMatch(file)
	checkFilenameLength(file, cfg)
	checkExtensionsWhitelist(file, cfg)
	checkNullByteInjection(file)
}

func checkFileSize(file *UploadedFile, cfg UploadConfig) {
	ok := true
	if cfg.FileSizeLimitKB != nil {
		ok = file.Declared.Size/1000 <= int64(*cfg.FileSizeLimitKB)
	}
	file.Validation.FileSizeOK = ok
	if !ok {
		file.Blocked = true
	}
}

func checkRequestWhitelist(file *UploadedFile, cfg UploadConfig) {
	ok := whitelisted(cfg, file.Declared.ContentType)
	file.Validation.RequestWhitelistOK = ok
	if !ok {
		file.Blocked = true
	}
}

func checkSignatureWhitelist(file *UploadedFile, cfg UploadConfig) {
	ok := whitelisted(cfg, file.Detection.SignatureMime)
	file.Validation.SignatureWhitelistOK = ok
	if !ok {
		file.Blocked = true
	}
}

// checkExtensionSignatureRequestMatch is the MIME manipulation detector —
// spec.md §4.3 check 4 and the similarity table in mimetable.go.
func checkExtensionSignatureRequestMatch(file *UploadedFile) {
	allMatch := true
	for _, ext := range file.Detection.Extensions {
		extMime := guessExtensionMime(ext)
		class := similarityClassOf(extMime)

		matches := contains(class, file.Declared.ContentType) && contains(class, file.Detection.SignatureMime)
		if !matches {
			allMatch = false
		}
	}

	file.Validation.MatchingExtensionSignatureRequestOK = allMatch
	file.Attacks.MimeManipulation = !allMatch
	if !allMatch {
		file.Blocked = true
	}
}

func checkFilenameLength(file *UploadedFile, cfg UploadConfig) {
	ok := true
	if cfg.FilenameLengthLimit != nil {
		ok = len(file.CurrentName) <= *cfg.FilenameLengthLimit
	}
	file.Validation.FilenameLengthOK = ok
	if !ok {
		file.Blocked = true
	}
}

func checkExtensionsWhitelist(file *UploadedFile, cfg UploadConfig) {
	ok := true
	for _, ext := range file.Detection.Extensions {
		if !whitelisted(cfg, guessExtensionMime(ext)) {
			ok = false
		}
	}
	file.Validation.ExtensionsWhitelistOK = ok
	if !ok {
		file.Blocked = true
	}
}

func checkNullByteInjection(file *UploadedFile) {
	found := false
	for _, split := range file.Detection.FilenameSplits {
		if strings.Contains(split, "0x00") || strings.Contains(split, "%00") || strings.Contains(split, "\x00") {
			found = true
			break
		}
	}
	file.Attacks.NullByteInjection = found
	if found {
		file.Blocked = true
	}
}
