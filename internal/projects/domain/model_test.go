package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject("idea", "quarterly review deck", "16:9")
	require.NoError(t, err)
	return p
}

func TestNewProject(t *testing.T) {
	p := newTestProject(t)

	_, err := uuid.Parse(p.ProjectID)
	assert.NoError(t, err, "project id must be a plain uuid")
	assert.Equal(t, ProjectStatusCreated, p.Status)
	assert.Equal(t, Ratio16x9, p.ImageAspectRatio)
	assert.False(t, p.Locked())
	assert.Empty(t, p.Pages)

	_, err = NewProject("idea", "x", "21:9")
	assert.ErrorIs(t, err, ErrInvalidAspectRatio)
}

func TestAddPage_AppendAndInsert(t *testing.T) {
	p := newTestProject(t)

	first := p.AddPage(nil)
	second := p.AddPage(nil)
	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, 1, second.OrderIndex)

	// Insert between the two existing pages.
	mid := 1
	inserted := p.AddPage(&mid)
	require.Len(t, p.Pages, 3)
	assert.Equal(t, inserted.PageID, p.Pages[1].PageID)

	for i, pg := range p.Pages {
		assert.Equal(t, i, pg.OrderIndex, "order_index must stay contiguous")
		assert.Equal(t, PageStatusDraft, pg.Status)
	}
}

func TestAddPage_ClampsOrderIndex(t *testing.T) {
	p := newTestProject(t)
	p.AddPage(nil)

	neg := -5
	pg := p.AddPage(&neg)
	assert.Equal(t, 0, pg.OrderIndex)

	huge := 99
	pg = p.AddPage(&huge)
	assert.Equal(t, len(p.Pages)-1, pg.OrderIndex)
}

func TestRemovePage_Renumbers(t *testing.T) {
	p := newTestProject(t)
	a := p.AddPage(nil)
	b := p.AddPage(nil)
	c := p.AddPage(nil)

	require.NoError(t, p.RemovePage(b.PageID))
	require.Len(t, p.Pages, 2)
	assert.Equal(t, a.PageID, p.Pages[0].PageID)
	assert.Equal(t, c.PageID, p.Pages[1].PageID)
	assert.Equal(t, 0, p.Pages[0].OrderIndex)
	assert.Equal(t, 1, p.Pages[1].OrderIndex)

	assert.ErrorIs(t, p.RemovePage(b.PageID), ErrPageNotFound)
}

func TestUpdateAspectRatio(t *testing.T) {
	p := newTestProject(t)
	p.AddPage(nil)

	require.NoError(t, p.UpdateAspectRatio("9:16"))
	assert.Equal(t, Ratio9x16, p.ImageAspectRatio)

	assert.ErrorIs(t, p.UpdateAspectRatio("5:4"), ErrInvalidAspectRatio)
	assert.Equal(t, Ratio9x16, p.ImageAspectRatio, "failed update must not change the ratio")
}

func TestRatioLock_OnRecordedImage(t *testing.T) {
	p := newTestProject(t)
	pg := p.AddPage(nil)

	require.NoError(t, p.RecordGeneratedImage(pg.PageID, p.ProjectID+"/pages/"+pg.PageID+".png"))
	assert.True(t, p.Locked())
	assert.Equal(t, ProjectStatusImage, p.Status)
	assert.Equal(t, PageStatusImage, p.PageByID(pg.PageID).Status)

	err := p.UpdateAspectRatio("4:3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAspectRatioLocked)
	assert.Equal(t, Ratio16x9, p.ImageAspectRatio)

	// Same value is still rejected once locked.
	assert.ErrorIs(t, p.UpdateAspectRatio("16:9"), ErrAspectRatioLocked)
}

func TestRatioLock_SurvivesPageRemoval(t *testing.T) {
	p := newTestProject(t)
	pg := p.AddPage(nil)
	require.NoError(t, p.RecordGeneratedImage(pg.PageID, "x/pages/y.png"))

	require.NoError(t, p.RemovePage(pg.PageID))
	assert.Empty(t, p.Pages)
	assert.True(t, p.Locked(), "lock is monotonic")
	assert.ErrorIs(t, p.UpdateAspectRatio("1:1"), ErrAspectRatioLocked)
}

func TestRecordGeneratedImage_UnknownPage(t *testing.T) {
	p := newTestProject(t)
	err := p.RecordGeneratedImage(uuid.New().String(), "a/pages/b.png")
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.False(t, p.Locked(), "failed record must not lock the ratio")
}

func TestSetPageContent_AdvancesStatus(t *testing.T) {
	p := newTestProject(t)
	pg := p.AddPage(nil)

	require.NoError(t, p.SetPageContent(pg.PageID, &OutlineContent{Title: "Intro", Points: []string{"a", "b"}}, nil))
	assert.Equal(t, PageStatusOutline, p.PageByID(pg.PageID).Status)

	require.NoError(t, p.SetPageContent(pg.PageID, nil, &DescriptionContent{Text: "detail"}))
	got := p.PageByID(pg.PageID)
	assert.Equal(t, PageStatusDescription, got.Status)
	assert.Equal(t, "Intro", got.OutlineContent.Title)
	assert.Equal(t, "detail", got.DescriptionContent.Text)

	// Writing an outline after the image stage must not regress the status.
	require.NoError(t, p.RecordGeneratedImage(pg.PageID, "a/pages/b.png"))
	require.NoError(t, p.SetPageContent(pg.PageID, &OutlineContent{Title: "Revised"}, nil))
	assert.Equal(t, PageStatusImage, p.PageByID(pg.PageID).Status)
	assert.Equal(t, "Revised", p.PageByID(pg.PageID).OutlineContent.Title)
}

func TestPageTitle_Placeholder(t *testing.T) {
	pg := &Page{OrderIndex: 2}
	assert.Equal(t, "Page 3", pg.Title())

	pg.OutlineContent = &OutlineContent{Title: "  "}
	assert.Equal(t, "Page 3", pg.Title(), "blank title falls back to placeholder")

	pg.OutlineContent.Title = "Roadmap"
	assert.Equal(t, "Roadmap", pg.Title())
}

func TestGeneratedImageURL(t *testing.T) {
	pg := &Page{}
	assert.Empty(t, pg.GeneratedImageURL())

	pg.GeneratedImagePath = "pid/pages/img.png"
	assert.Equal(t, "/files/pid/pages/img.png", pg.GeneratedImageURL())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	p := newTestProject(t)
	pg := p.AddPage(nil)
	require.NoError(t, p.SetPageContent(pg.PageID, &OutlineContent{Title: "T", Points: []string{"p1"}}, &DescriptionContent{Text: "d"}))

	snap := p.Snapshot()
	snap.Pages[0].OutlineContent.Title = "mutated"
	snap.Pages[0].OutlineContent.Points[0] = "mutated"
	snap.Pages[0].DescriptionContent.Text = "mutated"
	snap.Pages = append(snap.Pages, Page{})

	assert.Equal(t, "T", p.Pages[0].OutlineContent.Title)
	assert.Equal(t, "p1", p.Pages[0].OutlineContent.Points[0])
	assert.Equal(t, "d", p.Pages[0].DescriptionContent.Text)
	assert.Len(t, p.Pages, 1)
}
