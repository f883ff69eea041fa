// Package pdfrender turns generated document text into archival PDFs using
// pdfcpu's create-from-JSON facility, and merges per-perspective review
// PDFs into bundles.
package pdfrender

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	pageWidth    = 595.0 // A4 points
	pageHeight   = 842.0
	marginLeft   = 56.0
	marginTop    = 56.0
	lineHeight   = 13.0
	maxLineRunes = 92
	linesPerPage = 54
)

// --- create-from-JSON payload (subset of pdfcpu's page description) ---

type createDoc struct {
	Pages map[string]createPage `json:"pages"`
}

type createPage struct {
	Content createContent `json:"content"`
}

type createContent struct {
	Text []textBox `json:"text"`
}

type textBox struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"position"`
	Font     fontSpec   `json:"font"`
}

type fontSpec struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// Render writes the document text as a paginated PDF at outPath, creating
// parent directories as needed.
func Render(title, body, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	lines := layoutLines(title, body)
	doc := createDoc{Pages: map[string]createPage{}}

	pageNum := 1
	for start := 0; start < len(lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}

		boxes := make([]textBox, 0, end-start)
		y := pageHeight - marginTop
		for _, line := range lines[start:end] {
			if line != "" {
				boxes = append(boxes, textBox{
					Value:    line,
					Position: [2]float64{marginLeft, y},
					Font:     fontSpec{Name: "Courier", Size: 10},
				})
			}
			y -= lineHeight
		}
		doc.Pages[fmt.Sprintf("%d", pageNum)] = createPage{Content: createContent{Text: boxes}}
		pageNum++
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal page description: %w", err)
	}

	tmp, err := os.CreateTemp("", "scribe-pdf-*.json")
	if err != nil {
		return fmt.Errorf("create temp description: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp description: %w", err)
	}
	tmp.Close()

	if err := api.CreateFile("", tmp.Name(), outPath, nil); err != nil {
		return fmt.Errorf("pdfcpu create: %w", err)
	}
	return nil
}

// MergeBundle merges the given PDFs, in order, into a single bundle file.
func MergeBundle(inPaths []string, outPath string) error {
	if len(inPaths) == 0 {
		return fmt.Errorf("merge bundle: no input files")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := api.MergeCreateFile(inPaths, outPath, false, nil); err != nil {
		return fmt.Errorf("pdfcpu merge: %w", err)
	}
	return nil
}

// layoutLines flattens title+body into wrapped page lines. Markdown is not
// interpreted; the archival copy preserves the generated text verbatim.
func layoutLines(title, body string) []string {
	lines := []string{title, strings.Repeat("=", min(len(title), maxLineRunes)), ""}
	for _, raw := range strings.Split(body, "\n") {
		lines = append(lines, wrapLine(raw)...)
	}
	return lines
}

func wrapLine(s string) []string {
	runes := []rune(s)
	if len(runes) <= maxLineRunes {
		return []string{s}
	}

	var out []string
	for len(runes) > maxLineRunes {
		cut := maxLineRunes
		// Prefer breaking at a space near the limit.
		for i := maxLineRunes; i > maxLineRunes/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
