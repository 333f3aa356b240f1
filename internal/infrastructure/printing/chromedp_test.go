package printing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintParams_A4Portrait(t *testing.T) {
	params := buildPrintParams(&RenderRequest{HTML: "<p>x</p>", Margins: DefaultMargins()})

	// A4 is 210mm x 297mm
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(14), params.marginLeft, 0.01)
	assert.False(t, params.landscape)
}

func TestBuildPrintParams_Letter(t *testing.T) {
	params := buildPrintParams(&RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSizeLetter, Landscape: true})

	assert.InDelta(t, 8.5, params.paperWidth, 0.01)
	assert.InDelta(t, 11.0, params.paperHeight, 0.01)
	assert.True(t, params.landscape)
}

func TestBuildPrintParams_FooterMargin(t *testing.T) {
	params := buildPrintParams(&RenderRequest{HTML: "<p>x</p>", FooterHTML: "<div>1</div>"})
	assert.InDelta(t, mmToInches(12), params.marginBottom, 0.01)
	assert.Equal(t, "<div>1</div>", params.footer)
	assert.NotNil(t, params.action())
}

func TestCompleteDocument(t *testing.T) {
	wrapped := completeDocument(&RenderRequest{HTML: "<p>hola</p>", Title: "A & B"})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>hola</p></body>")

	full := "<!doctype html><html><body>x</body></html>"
	assert.Equal(t, full, completeDocument(&RenderRequest{HTML: full}))
}

func TestChromedpRenderer_ValidatesRequest(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	cases := map[string]*RenderRequest{
		"nil request": nil,
		"empty html":  {HTML: "   "},
		"bad paper":   {HTML: "<p>x</p>", PaperSize: "A9"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Render(context.Background(), req)
			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
		})
	}
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount(nil))
	pdf := []byte("/Type /Pages /Type /Page /Type /Page")
	assert.Equal(t, 2, estimatePageCount(pdf))
}
