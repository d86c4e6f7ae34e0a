package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allWhitelistConfig() UploadConfig {
	return Resolve(UploadConfig{WhitelistName: "ALL", Sanitization: true}, nil)
}

func intPtr(i int) *int { return &i }

func TestInspect_ControlFileAllowedAndRenamed(t *testing.T) {
	content := []byte("hello world!")
	file := NewUploadedFile("control.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	var insCtx InspectionContext
	Inspect(context.Background(), file, allWhitelistConfig(), &insCtx, Deps{})

	require.False(t, file.Blocked)
	require.Empty(t, file.BlockReasons)
	assert.Regexp(t, `^[0-9a-f-]{36}\.txt$`, file.CurrentName)
}

func TestInspect_OverlyLargeFileBlocked(t *testing.T) {
	content := make([]byte, 100)
	file := NewUploadedFile("overly_large_file.jpg", content, Declared{ContentType: "image/jpeg", Size: 1_000_000})

	cfg := Resolve(UploadConfig{WhitelistName: "ALL"}, nil)
	cfg.FileSizeLimitKB = intPtr(200)

	var insCtx InspectionContext
	Inspect(context.Background(), file, cfg, &insCtx, Deps{})

	require.True(t, file.Blocked)
	assert.Contains(t, file.BlockReasons, "strict_eval_failed")
	assert.Contains(t, insCtx.UploadErrMsg, "File size not match")
}

func TestInspect_CustomWhitelistBlocksEverything(t *testing.T) {
	content := []byte("%PDF-1.4\n")
	file := NewUploadedFile("legit_pdf_file.pdf", content, Declared{ContentType: "application/pdf", Size: int64(len(content))})

	custom := map[string]struct{}{"text/plain": {}}
	cfg := Resolve(UploadConfig{WhitelistName: "CUSTOM", Whitelist: custom}, nil)

	var insCtx InspectionContext
	Inspect(context.Background(), file, cfg, &insCtx, Deps{})

	require.True(t, file.Blocked)
	assert.False(t, file.Validation.SignatureWhitelistOK)
	assert.False(t, file.Validation.RequestWhitelistOK)
	assert.False(t, file.Validation.ExtensionsWhitelistOK)
}

func TestInspect_ExtensionChangedTriggersMimeManipulation(t *testing.T) {
	content := []byte("%PDF-1.4\n%mock pdf body")
	file := NewUploadedFile("pdf_file_with_extension_changed.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	var insCtx InspectionContext
	Inspect(context.Background(), file, allWhitelistConfig(), &insCtx, Deps{})

	require.True(t, file.Blocked)
	assert.True(t, file.Attacks.MimeManipulation)
}

func TestInspect_NullByteInjectionInFilename(t *testing.T) {
	content := []byte("x")
	file := NewUploadedFile("..%00.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	var insCtx InspectionContext
	Inspect(context.Background(), file, allWhitelistConfig(), &insCtx, Deps{})

	require.True(t, file.Blocked)
	assert.True(t, file.Attacks.NullByteInjection)
}

type foundClamAV struct{ signature string }

func (f foundClamAV) Scan(context.Context, []byte) (bool, string, error) {
	return true, f.signature, nil
}

func TestInspect_ClamAVBlocksWhenEnabled(t *testing.T) {
	content := []byte("X5O!P%@AP[4\\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*")
	file := NewUploadedFile("malicious_file_eicar.com.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	cfg := allWhitelistConfig()
	cfg.ClamAV = true

	var insCtx InspectionContext
	Inspect(context.Background(), file, cfg, &insCtx, Deps{Advisory: AdvisoryDeps{ClamAV: foundClamAV{signature: "Eicar-Test-Signature"}}})

	require.True(t, file.Blocked)
	assert.Contains(t, file.BlockReasons, "clamav")
	assert.Equal(t, "Eicar-Test-Signature", file.Validation.ClamAVResultDetail)
}

func TestInspect_ClamAVDisabledAllowsFile(t *testing.T) {
	content := []byte("just text")
	file := NewUploadedFile("malicious_file_eicar.com.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	var insCtx InspectionContext
	Inspect(context.Background(), file, allWhitelistConfig(), &insCtx, Deps{})

	require.False(t, file.Blocked)
}

func TestInspect_ScriptLikeTextWarnsWithoutBlocking(t *testing.T) {
	content := []byte(`meeting notes: <script>alert(1)</script>`)
	file := NewUploadedFile("notes.txt", content, Declared{ContentType: "text/plain", Size: int64(len(content))})

	var insCtx InspectionContext
	Inspect(context.Background(), file, allWhitelistConfig(), &insCtx, Deps{})

	require.False(t, file.Blocked)
	assert.Contains(t, file.Warnings, "script-like content: <script")
}

func TestInspect_ArchiveExtensionWarns(t *testing.T) {
	content := []byte("PK\x03\x04")
	file := NewUploadedFile("bundle.zip", content, Declared{ContentType: "application/zip", Size: int64(len(content))})

	cfg := allWhitelistConfig()
	var insCtx InspectionContext
	Inspect(context.Background(), file, cfg, &insCtx, Deps{})

	assert.Contains(t, file.Warnings, "archive extension: .zip")
}

func TestBlockInvariant(t *testing.T) {
	f := NewUploadedFile("a.txt", []byte("a"), Declared{})
	require.False(t, f.Blocked)
	f.Block("strict_eval_failed")
	require.True(t, f.Blocked)
	require.NotEmpty(t, f.BlockReasons)
}
