package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"pdf", FormatPDF, true},
		{".PDF", FormatPDF, true},
		{"Epub", FormatEPUB, true},
		{".azw3", FormatAZW3, true},
		{" .epub ", FormatEPUB, true},
		{".mobi", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFormat(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("/library/Moby Dick.EPUB")
	assert.True(t, ok)
	assert.Equal(t, FormatEPUB, f)

	_, ok = FormatFromPath("/library/notes.txt")
	assert.False(t, ok)

	_, ok = FormatFromPath("/library/README")
	assert.False(t, ok)
}

func TestFormat_MIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.MIMEType())
	assert.Equal(t, "application/epub+zip", FormatEPUB.MIMEType())
	assert.Equal(t, "application/x-mobi8-ebook", FormatAZW3.MIMEType())
	assert.Equal(t, "application/octet-stream", Format("mobi").MIMEType())
}

func TestAllFormats(t *testing.T) {
	formats := AllFormats()
	assert.Equal(t, []Format{FormatPDF, FormatEPUB, FormatAZW3}, formats)
	for _, f := range formats {
		assert.True(t, f.IsValid())
	}
}
