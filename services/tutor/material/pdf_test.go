// Copyright (C) 2025 Mentora Labs (oss@mentora.ai)
// Tests for PDF text extraction

package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPages_RejectsNonPDF(t *testing.T) {
	_, err := ExtractPages([]byte("plain text, not a pdf"), "notes.pdf")
	assert.Error(t, err)
}

func TestExtractText_RejectsNonPDF(t *testing.T) {
	_, err := ExtractText([]byte{0x00, 0x01, 0x02}, "answers.pdf")
	assert.Error(t, err)
}
