package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextVerbatimForTextFiles(t *testing.T) {
	content := []byte("# Study Notes\n\nThe mitochondria is the powerhouse of the cell.")

	assert.Equal(t, string(content), extractText(content, "text/plain", "notes.txt"))
	assert.Equal(t, string(content), extractText(content, "text/markdown", "notes.md"))
	assert.Equal(t, string(content), extractText(content, "application/octet-stream", "data.csv"))
}

func TestExtractTextPlaceholdersForBinaryFormats(t *testing.T) {
	content := []byte{0x25, 0x50, 0x44, 0x46}

	pdf := extractText(content, "application/pdf", "lecture.pdf")
	assert.Contains(t, pdf, "lecture.pdf")
	assert.Contains(t, pdf, "not yet supported")

	doc := extractText(content, "application/msword", "essay.docx")
	assert.Contains(t, doc, "Word")

	ppt := extractText(content, "application/vnd.ms-powerpoint", "slides.pptx")
	assert.Contains(t, ppt, "Presentation")

	img := extractText(content, "image/png", "diagram.png")
	assert.Contains(t, img, "Image")
}

func TestHeuristicAnalysisDetectsSubject(t *testing.T) {
	mathText := "Solve the equation 2x + 3 = 9. Algebra practice problems."
	analysis := heuristicAnalysis("homework.txt", mathText)
	assert.Contains(t, analysis, "mathematics")
	assert.Contains(t, analysis, "formulas or calculations")

	scienceText := "Chemistry lab report on acid-base reactions."
	assert.Contains(t, heuristicAnalysis("lab.txt", scienceText), "science")

	historyText := "The 19th century saw the rise of industrialization after the war."
	assert.Contains(t, heuristicAnalysis("essay.txt", historyText), "history")

	plainText := "Just some plain reading material."
	assert.Contains(t, heuristicAnalysis("reading.txt", plainText), "general studies")
}

func TestHeuristicAnalysisCountsContent(t *testing.T) {
	text := "one two three\nfour five"
	analysis := heuristicAnalysis("notes.txt", text)
	assert.Contains(t, analysis, "5 words")
	assert.Contains(t, analysis, "2 lines")
}

func TestHeuristicAnalysisDetectsLists(t *testing.T) {
	text := "Topics:\n- fractions\n- decimals"
	assert.Contains(t, heuristicAnalysis("outline.txt", text), "lists or enumerated points")
}

func TestDeriveSummaryTruncates(t *testing.T) {
	short := "Brief analysis."
	assert.Equal(t, short, deriveSummary(short))

	long := strings.Repeat("x", 250)
	summary := deriveSummary(long)
	assert.Len(t, summary, analysisSummaryLimit+3)
	assert.True(t, strings.HasSuffix(summary, "..."))
}
