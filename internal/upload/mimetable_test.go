package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveNamedWhitelist_RestrictiveIsFixed(t *testing.T) {
	got := ResolveNamedWhitelist("RESTRICTIVE")
	assert.ElementsMatch(t, []string{
		"audio/mpeg",
		"application/pdf",
		"image/gif", "image/jpeg", "image/png", "image/tiff",
		"text/plain",
		"video/mp4", "video/mpeg", "video/quicktime",
	}, got)
}

func TestResolve_NonCustomIgnoresSuppliedWhitelist(t *testing.T) {
	supplied := map[string]struct{}{"application/zip": {}}
	cfg := Resolve(UploadConfig{WhitelistName: "RESTRICTIVE", Whitelist: supplied}, nil)

	_, hasZip := cfg.Whitelist["application/zip"]
	assert.False(t, hasZip)
	_, hasPDF := cfg.Whitelist["application/pdf"]
	assert.True(t, hasPDF)
}

func TestSimilarityClassOf_UnknownMimeIsSingleton(t *testing.T) {
	class := similarityClassOf("application/x-totally-made-up")
	assert.Equal(t, []string{"application/x-totally-made-up"}, class)
}

func TestSimilarityClassOf_PDFGroup(t *testing.T) {
	class := similarityClassOf("application/pdf")
	assert.Contains(t, class, "text/x-pdf")
	assert.Contains(t, class, "application/acrobat")
}
