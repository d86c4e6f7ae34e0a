package upload

// Guess fuses the three independent MIME signals into one best guess
// (spec.md §4.5). It runs only when the file is not yet blocked. A point is
// awarded for each of signature MIME, primary-extension MIME, and declared
// MIME, but only when that MIME is a known type; GuessingScores already has
// a zero entry for every known type from NewUploadedFile.
func Guess(file *UploadedFile) {
	v := &file.Validation

	award := func(mime string) {
		v.TotalPointsOverall++
		if _, known := v.GuessingScores[mime]; known {
			v.GuessingScores[mime]++
		}
	}

	award(file.Detection.SignatureMime)
	award(guessExtensionMime(file.Detection.Extensions[0]))
	award(file.Declared.ContentType)

	file.Detection.GuessedMime = argMax(v.GuessingScores)
}

// argMax picks the highest-scoring MIME type. Ties are broken
// lexicographically on the MIME string, which the spec's open question
// requires implementations to document explicitly rather than depend on
// map/array iteration order.
func argMax(scores map[string]int) string {
	best := ""
	bestScore := -1
	for _, mime := range KnownMimeTypes() {
		score := scores[mime]
		if score > bestScore {
			best = mime
			bestScore = score
		}
	}
	return best
}
