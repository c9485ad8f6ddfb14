package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decksmith/deck-backend/internal/exports/layout"
	"github.com/decksmith/deck-backend/internal/projects/domain"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		img.Set(x, 1, color.RGBA{R: 30, G: 30, B: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func buildDoc(t *testing.T, ratio string, pages int) *layout.Document {
	t.Helper()
	p, err := domain.NewProject("idea", "pdf test deck", ratio)
	require.NoError(t, err)
	for i := 0; i < pages; i++ {
		p.AddPage(nil)
	}
	doc, err := layout.Build(p)
	require.NoError(t, err)
	return doc
}

func TestRender_PageDimsMatchRatio(t *testing.T) {
	doc := buildDoc(t, "4:3", 2)

	out, err := NewRenderer().Render(doc, nil)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-1.")))

	dims, err := api.PageDims(bytes.NewReader(out), nil)
	require.NoError(t, err)
	require.Len(t, dims, 2)

	for _, d := range dims {
		got := d.Width / d.Height
		assert.InDelta(t, 4.0/3.0, got, 0.1)
		assert.Greater(t, math.Abs(got-16.0/9.0), 0.1, "4:3 export must not pass as 16:9")
	}
}

func TestRender_AllRatiosValidate(t *testing.T) {
	for _, r := range domain.AspectRatios() {
		t.Run(string(r), func(t *testing.T) {
			doc := buildDoc(t, string(r), 1)
			out, err := NewRenderer().Render(doc, nil)
			require.NoError(t, err)

			require.NoError(t, api.Validate(bytes.NewReader(out), nil))

			dims, err := api.PageDims(bytes.NewReader(out), nil)
			require.NoError(t, err)
			require.Len(t, dims, 1)
			assert.InDelta(t, r.Value(), dims[0].Width/dims[0].Height, 0.1)
		})
	}
}

func TestRender_EmbedsImageSlide(t *testing.T) {
	p, err := domain.NewProject("idea", "image deck", "16:9")
	require.NoError(t, err)
	pg := p.AddPage(nil)
	require.NoError(t, p.RecordGeneratedImage(pg.PageID, p.ProjectID+"/pages/a.png"))
	doc, err := layout.Build(p)
	require.NoError(t, err)

	assets := map[string][]byte{p.ProjectID + "/pages/a.png": tinyPNG(t)}
	out, err := NewRenderer().Render(doc, assets)
	require.NoError(t, err)

	require.NoError(t, api.Validate(bytes.NewReader(out), nil))
	assert.Contains(t, string(out), "/XObject", "image slide must carry an image xobject")
}

func TestRender_MissingAssetFallsBackToPlaceholder(t *testing.T) {
	p, err := domain.NewProject("idea", "missing asset", "1:1")
	require.NoError(t, err)
	pg := p.AddPage(nil)
	require.NoError(t, p.SetPageContent(pg.PageID, &domain.OutlineContent{Title: "Agenda", Points: []string{"kickoff"}}, nil))
	require.NoError(t, p.RecordGeneratedImage(pg.PageID, "gone/pages/missing.png"))
	doc, err := layout.Build(p)
	require.NoError(t, err)

	// No assets supplied; the slide renders as a text placeholder rather
	// than failing the whole export.
	out, err := NewRenderer().Render(doc, map[string][]byte{})
	require.NoError(t, err)
	require.NoError(t, api.Validate(bytes.NewReader(out), nil))
	assert.NotContains(t, string(out), "/XObject")
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `\(1\) intro`, escapeText("(1) intro"))
	assert.Equal(t, `caf\351`, escapeText("café"), "latin-1 runes stay as WinAnsi octal escapes")
	assert.Equal(t, `r\351sum\351`, escapeText("résumé"))
	assert.Equal(t, "??", escapeText("图表"), "glyphs outside WinAnsi degrade to ?")
	assert.Equal(t, `a\\b`, escapeText(`a\b`))
}

func TestCenterX_CountsGlyphsNotBytes(t *testing.T) {
	// "café" is five bytes but four glyphs; both titles must center alike.
	assert.Equal(t, centerX(720, "cafe", 50), centerX(720, "café", 50))
	assert.Equal(t, 0.0, centerX(10, "a very long title that overflows the page", 50))
}

func TestRender_Latin1PlaceholderValidates(t *testing.T) {
	p, err := domain.NewProject("idea", "accent deck", "16:9")
	require.NoError(t, err)
	pg := p.AddPage(nil)
	require.NoError(t, p.SetPageContent(pg.PageID,
		&domain.OutlineContent{Title: "Résumé für Café", Points: []string{"naïve point"}}, nil))
	doc, err := layout.Build(p)
	require.NoError(t, err)

	out, err := NewRenderer().Render(doc, nil)
	require.NoError(t, err)
	require.NoError(t, api.Validate(bytes.NewReader(out), nil))
}

func TestRender_Deterministic(t *testing.T) {
	doc := buildDoc(t, "3:2", 3)
	r := NewRenderer()

	a, err := r.Render(doc, nil)
	require.NoError(t, err)
	b, err := r.Render(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
