package pdfrender

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapLineShortIsUnchanged(t *testing.T) {
	out := wrapLine("short line")
	assert.Equal(t, []string{"short line"}, out)
}

func TestWrapLineBreaksAtSpaces(t *testing.T) {
	long := strings.Repeat("word ", 40)
	out := wrapLine(strings.TrimSpace(long))

	assert.Greater(t, len(out), 1)
	for _, line := range out {
		assert.LessOrEqual(t, len([]rune(line)), maxLineRunes)
		assert.False(t, strings.HasPrefix(line, " "))
	}
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(out, " ")))
}

func TestWrapLineUnbreakableRun(t *testing.T) {
	long := strings.Repeat("x", maxLineRunes*2+10)
	out := wrapLine(long)

	var total int
	for _, line := range out {
		assert.LessOrEqual(t, len([]rune(line)), maxLineRunes)
		total += len(line)
	}
	assert.Equal(t, len(long), total)
}

func TestLayoutLinesIncludesTitleAndBody(t *testing.T) {
	lines := layoutLines("Session Note", "line one\n\nline two")

	assert.Equal(t, "Session Note", lines[0])
	assert.Contains(t, lines, "line one")
	assert.Contains(t, lines, "line two")
}
