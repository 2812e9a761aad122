package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMimeTypeAcceptsText(t *testing.T) {
	mime, err := ValidateMimeType(bytes.NewReader([]byte("plain study notes")), AllowedUploadMimeTypes)
	require.NoError(t, err)
	assert.Contains(t, mime, "text/plain")
}

func TestValidateMimeTypeAcceptsOfficeContainers(t *testing.T) {
	// docx/pptx 以 PK zip 魔数开头
	zipMagic := []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00, 0x06, 0x00}
	mime, err := ValidateMimeType(bytes.NewReader(zipMagic), AllowedUploadMimeTypes)
	require.NoError(t, err)
	assert.Equal(t, "application/zip", mime)
}

func TestValidateMimeTypeRejectsUnknown(t *testing.T) {
	// Ogg 容器不在白名单内
	oggMagic := []byte("OggS\x00\x02\x00\x00")
	_, err := ValidateMimeType(bytes.NewReader(oggMagic), AllowedUploadMimeTypes)
	assert.Error(t, err)
}

func TestIsAllowedExtension(t *testing.T) {
	assert.True(t, IsAllowedExtension("notes.TXT"))
	assert.True(t, IsAllowedExtension("slides.pptx"))
	assert.False(t, IsAllowedExtension("song.mp3"))
	assert.False(t, IsAllowedExtension("noextension"))
}
