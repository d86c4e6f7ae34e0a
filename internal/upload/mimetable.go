package upload

import "sort"

// extensionMimeTable is a fixed extension -> MIME lookup, the Go
// equivalent of Python's mimetypes.types_map used throughout the original
// implementation for extension-guessed MIME and for the ALL whitelist. It
// is intentionally a closed, documented table rather than mime.TypeByExtension
// (which is seeded from the host's /etc/mime.types and varies by machine) —
// the guesser and whitelist resolution both need a table with stable,
// reproducible contents across environments.
var extensionMimeTable = map[string]string{
	"txt":  "text/plain",
	"csv":  "text/csv",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"xml":  "text/xml",
	"rtf":  "application/rtf",

	"js":   "application/javascript",
	"json": "application/json",
	"pdf":  "application/pdf",

	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	"zip": "application/zip",
	"gz":  "application/gzip",
	"tar": "application/x-tar",
	"7z":  "application/x-7z-compressed",

	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jfif": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/vnd.microsoft.icon",

	"mp3": "audio/mpeg",
	"wav": "audio/x-wav",
	"ogg": "audio/ogg",

	"mp4":  "video/mp4",
	"mpeg": "video/mpeg",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"wmv":  "video/x-ms-wmv",

	"exe": "application/x-msdownload",
	"sh":  "application/x-sh",
	"py":  "text/x-python",
	"php": "application/x-httpd-php",
}

// guessExtensionMime returns the extension-guessed MIME type for an
// extension (without the leading dot), or "" if unknown. Extensions are
// already lowercased by the detector.
func guessExtensionMime(ext string) string {
	return extensionMimeTable[ext]
}

// guessExtensionForMime is the reverse lookup the sanitizer uses to pick an
// extension for the randomized filename, grounded on Python's
// mimetypes.guess_extension. Ties (several extensions map to the same MIME,
// e.g. jpg/jpeg) are broken lexicographically for determinism.
func guessExtensionForMime(mime string) string {
	var candidates []string
	for ext, m := range extensionMimeTable {
		if m == mime {
			candidates = append(candidates, ext)
		}
	}
	if len(candidates) == 0 {
		return "bin"
	}
	sort.Strings(candidates)
	return candidates[0]
}

// knownMimeTypesSorted caches the distinct MIME values of extensionMimeTable in
// sorted order. Sorted order is what makes the MIME guesser's arg-max
// tie-break deterministic (see guesser.go).
var knownMimeTypesSorted = func() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range extensionMimeTable {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}()

// KnownMimeTypes returns every MIME type the guesser and whitelist resolver
// know about, sorted lexicographically.
func KnownMimeTypes() []string {
	return knownMimeTypesSorted
}

// similarityClasses is the authoritative MIME equivalence table from the
// spec: Word, Excel, PowerPoint, PDF, Raster image, Video, Audio. MIMEs
// outside every class form their own singleton class.
var similarityClasses = [][]string{
	{ // Word
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-word",
		"application/rtf",
		"text/rtf",
	},
	{ // Excel
		"application/msexcel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
	},
	{ // PowerPoint
		"application/mspowerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.ms-powerpoint",
	},
	{ // PDF
		"application/pdf",
		"application/x-pdf",
		"application/acrobat",
		"applications/vnd.pdf",
		"text/pdf",
		"text/x-pdf",
	},
	{ // Raster image
		"image/jpeg",
		"image/pjpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/bmp",
		"image/x-windows-bmp",
		"image/x-bitmap",
		"image/x-xbitmap",
		"image/x-win-bitmap",
		"image/x-ms-bmp",
		"image/x-bmp",
	},
	{ // Video
		"video/mp4",
		"video/mpeg",
		"video/quicktime",
		"video/x-msvideo",
		"video/x-ms-wmv",
		"video/x-ms-wm",
		"video/avi",
		"video/msvideo",
		"video/x-ms-asf",
		"video/x-ms-asf-plugin",
	},
	{ // Audio
		"audio/mpeg",
		"audio/mp3",
		"audio/x-mpeg",
		"audio/x-mp3",
		"audio/x-mpeg3",
		"audio/mpeg3",
		"audio/mpg",
		"audio/x-mpg",
		"audio/x-mpegaudio",
		"audio/x-mp3-playlist",
	},
}

// similarityClassOf returns every MIME string belonging to the same
// equivalence class as mime, including mime itself. A MIME not listed in
// any class is its own singleton class.
func similarityClassOf(mime string) []string {
	for _, class := range similarityClasses {
		for _, m := range class {
			if m == mime {
				return class
			}
		}
	}
	return []string{mime}
}

func contains(set []string, needle string) bool {
	for _, s := range set {
		if s == needle {
			return true
		}
	}
	return false
}

// Named whitelist construction — spec.md §4.8.

var restrictiveWhitelist = []string{
	"audio/mpeg",
	"application/pdf",
	"image/gif", "image/jpeg", "image/png", "image/tiff",
	"text/plain",
	"video/mp4", "video/mpeg", "video/quicktime",
}

func categoryAll(prefix string) []string {
	var out []string
	for _, m := range KnownMimeTypes() {
		if hasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func categoryRestrictive(prefix string) []string {
	var out []string
	for _, m := range restrictiveWhitelist {
		if hasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ResolveNamedWhitelist returns the MIME set for every whitelist_name other
// than CUSTOM, per spec.md §4.8. CUSTOM is handled by the caller (the
// configured whitelist passes through unchanged).
func ResolveNamedWhitelist(name string) []string {
	switch name {
	case "ALL":
		return KnownMimeTypes()
	case "RESTRICTIVE":
		return restrictiveWhitelist
	case "AUDIO_ALL":
		return categoryAll("audio/")
	case "APPLICATION_ALL":
		return categoryAll("application/")
	case "IMAGE_ALL":
		return categoryAll("image/")
	case "TEXT_ALL":
		return categoryAll("text/")
	case "VIDEO_ALL":
		return categoryAll("video/")
	case "AUDIO_RESTRICTIVE":
		return categoryRestrictive("audio/")
	case "APPLICATION_RESTRICTIVE":
		return categoryRestrictive("application/")
	case "IMAGE_RESTRICTIVE":
		return categoryRestrictive("image/")
	case "TEXT_RESTRICTIVE":
		return categoryRestrictive("text/")
	case "VIDEO_RESTRICTIVE":
		return categoryRestrictive("video/")
	default:
		return nil
	}
}
