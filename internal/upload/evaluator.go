package upload

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Evaluate applies the block policy over a single file's validator outputs
// and folds the result into the request-wide InspectionContext (spec.md
// §4.6). The four policies are cumulative: one file may contribute several
// reasons. It never throws — only the aggregate decision is emitted.
func Evaluate(file *UploadedFile, ctx *InspectionContext, log *logrus.Entry) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	strictOK := file.Validation.FileSizeOK &&
		file.Validation.MatchingExtensionSignatureRequestOK &&
		file.Validation.FilenameLengthOK &&
		file.Validation.ExtensionsWhitelistOK &&
		file.Validation.RequestWhitelistOK &&
		file.Validation.SignatureWhitelistOK

	noAttacks := !file.Attacks.MimeManipulation && !file.Attacks.NullByteInjection

	if !(strictOK && noAttacks) {
		file.Validation.Malicious = true
		file.Block("strict_eval_failed")

		msg := fmt.Sprintf(" File: [%s] ERROR: ", file.OriginalName)
		if !file.Validation.FileSizeOK {
			msg += "File size not match;"
		}
		if !file.Validation.MatchingExtensionSignatureRequestOK {
			msg += "File extension and signature not match;"
		}
		if !file.Validation.FilenameLengthOK {
			msg += "Filename length not match;"
		}
		if !file.Validation.ExtensionsWhitelistOK {
			msg += "File extensions whitelist not match;"
		}
		if !file.Validation.RequestWhitelistOK {
			msg += "Request whitelist not match;"
		}
		if !file.Validation.SignatureWhitelistOK {
			msg += "Signature whitelist not match;"
		}
		if file.Attacks.MimeManipulation {
			msg += "File with mime_manipulation;"
		}
		if file.Attacks.NullByteInjection {
			msg += "File with null_byte_injection;"
		}

		ctx.Append(msg)
		log.Warn("upload: blocking, strict evaluation failed")
	} else {
		log.Debug("upload: strict evaluation passed")
	}

	if !file.Validation.YaraRulesOK {
		file.Validation.Malicious = true
		file.Block("yara_eval_failed")
		ctx.Append(fmt.Sprintf(" File: [%s]: YARA evaluation FAILED;", file.OriginalName))
		log.Warn("upload: blocking, YARA evaluation failed")
	}

	if !file.Validation.QuicksandResultOK {
		file.Validation.Malicious = true
		file.Block("QS_detection")
		ctx.Append(fmt.Sprintf(" File: [%s]: Quicksand evaluation FAILED: %s;", file.OriginalName, file.Validation.QuicksandResultDetail))
		log.Warn("upload: blocking, Quicksand evaluation failed")
	}

	if !file.Validation.ClamAVResultOK {
		file.Validation.Malicious = true
		file.Block("clamav")
		ctx.Append(fmt.Sprintf(" File: [%s]: clamAV evaluation FAILED: %s;", file.OriginalName, file.Validation.ClamAVResultDetail))
		log.Warn("upload: blocking, clamAV evaluation failed")
	}
}
