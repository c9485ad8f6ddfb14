package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decksmith/deck-backend/internal/exports/layout"
	"github.com/decksmith/deck-backend/internal/projects/domain"
)

var sldSzRe = regexp.MustCompile(`<p:sldSz cx="(\d+)" cy="(\d+)"/>`)

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 180, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func buildDoc(t *testing.T, ratio string, pages int) *layout.Document {
	t.Helper()
	p, err := domain.NewProject("idea", "pptx test deck", ratio)
	require.NoError(t, err)
	for i := 0; i < pages; i++ {
		p.AddPage(nil)
	}
	doc, err := layout.Build(p)
	require.NoError(t, err)
	return doc
}

func unzipParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		parts[f.Name] = b
	}
	return parts
}

func TestRender_SlideSizeDeclaredOncePerRatio(t *testing.T) {
	want := map[domain.AspectRatio][2]string{
		domain.Ratio16x9: {"9144000", "5143500"},
		domain.Ratio4x3:  {"9144000", "6858000"},
		domain.Ratio1x1:  {"9144000", "9144000"},
		domain.Ratio9x16: {"5143500", "9144000"},
		domain.Ratio3x2:  {"9144000", "6096000"},
	}

	for r, dims := range want {
		t.Run(string(r), func(t *testing.T) {
			doc := buildDoc(t, string(r), 3)
			out, err := NewRenderer().Render(doc, nil)
			require.NoError(t, err)

			parts := unzipParts(t, out)
			pres := string(parts["ppt/presentation.xml"])

			matches := sldSzRe.FindAllStringSubmatch(pres, -1)
			require.Len(t, matches, 1, "exactly one slide size per deck")
			assert.Equal(t, dims[0], matches[0][1])
			assert.Equal(t, dims[1], matches[0][2])
		})
	}
}

func TestRender_PackageStructure(t *testing.T) {
	doc := buildDoc(t, "16:9", 2)
	out, err := NewRenderer().Render(doc, nil)
	require.NoError(t, err)

	parts := unzipParts(t, out)
	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/slides/_rels/slide2.xml.rels",
	} {
		assert.Contains(t, parts, name)
	}

	ct := string(parts["[Content_Types].xml"])
	assert.Contains(t, ct, `PartName="/ppt/slides/slide1.xml"`)
	assert.Contains(t, ct, `PartName="/ppt/slides/slide2.xml"`)

	rels := string(parts["ppt/_rels/presentation.xml.rels"])
	assert.Contains(t, rels, `Target="slides/slide1.xml"`)
	assert.Contains(t, rels, `Target="slides/slide2.xml"`)
}

func TestRender_ImageSlideCarriesMediaAndCrop(t *testing.T) {
	p, err := domain.NewProject("idea", "media deck", "16:9")
	require.NoError(t, err)
	pg := p.AddPage(nil)
	// A square image on a 16:9 slide must be cropped top and bottom.
	require.NoError(t, p.RecordGeneratedImage(pg.PageID, p.ProjectID+"/pages/sq.png"))
	doc, err := layout.Build(p)
	require.NoError(t, err)

	assets := map[string][]byte{p.ProjectID + "/pages/sq.png": tinyPNG(t, 8, 8)}
	out, err := NewRenderer().Render(doc, assets)
	require.NoError(t, err)

	parts := unzipParts(t, out)
	require.Contains(t, parts, "ppt/media/image1.png")

	slide := string(parts["ppt/slides/slide1.xml"])
	assert.Contains(t, slide, "<p:pic>")
	assert.Contains(t, slide, `<a:srcRect t="`)
	assert.Contains(t, slide, fmt.Sprintf(`<a:ext cx="%d" cy="%d"/>`, doc.CX, doc.CY))

	slideRels := string(parts["ppt/slides/_rels/slide1.xml.rels"])
	assert.Contains(t, slideRels, `Target="../media/image1.png"`)
}

func TestRender_PlaceholderSlideEscapesText(t *testing.T) {
	p, err := domain.NewProject("idea", "escape deck", "4:3")
	require.NoError(t, err)
	pg := p.AddPage(nil)
	require.NoError(t, p.SetPageContent(pg.PageID,
		&domain.OutlineContent{Title: "Q&A <session>", Points: []string{`"quotes"`}}, nil))
	doc, err := layout.Build(p)
	require.NoError(t, err)

	out, err := NewRenderer().Render(doc, nil)
	require.NoError(t, err)

	parts := unzipParts(t, out)
	slide := string(parts["ppt/slides/slide1.xml"])
	assert.Contains(t, slide, "<p:sp>")
	assert.NotContains(t, slide, "<p:pic>")
	assert.Contains(t, slide, "Q&amp;A &lt;session&gt;")
	assert.Contains(t, slide, "&quot;quotes&quot;")
}

func TestRender_Deterministic(t *testing.T) {
	doc := buildDoc(t, "9:16", 2)
	r := NewRenderer()

	a, err := r.Render(doc, nil)
	require.NoError(t, err)
	b, err := r.Render(doc, nil)
	require.NoError(t, err)

	assert.Equal(t, unzipParts(t, a), unzipParts(t, b))
}
