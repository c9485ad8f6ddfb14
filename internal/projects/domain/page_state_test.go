package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionPage(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		ok   bool
	}{
		{"forward one stage", PageStatusDraft, PageStatusOutline, true},
		{"forward skip", PageStatusDraft, PageStatusImage, true},
		{"same stage retry", PageStatusOutline, PageStatusOutline, true},
		{"backward", PageStatusImage, PageStatusOutline, false},
		{"backward to draft", PageStatusCompleted, PageStatusDraft, false},
		{"fail from draft", PageStatusDraft, PageStatusFailed, true},
		{"fail from image", PageStatusImage, PageStatusFailed, true},
		{"fail from completed", PageStatusCompleted, PageStatusFailed, false},
		{"fail from failed", PageStatusFailed, PageStatusFailed, false},
		{"retry after failure", PageStatusFailed, PageStatusOutline, true},
		{"retry after failure into image", PageStatusFailed, PageStatusImage, true},
		{"unknown from", "BOGUS", PageStatusOutline, false},
		{"unknown to", PageStatusDraft, "BOGUS", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransitionPage(tc.from, tc.to))
		})
	}
}

func TestTransitionPage(t *testing.T) {
	p := &Page{Status: PageStatusDraft}

	require.NoError(t, p.TransitionPage(PageStatusDescription))
	assert.Equal(t, PageStatusDescription, p.Status)

	err := p.TransitionPage(PageStatusDraft)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPageStatus)
	assert.Equal(t, PageStatusDescription, p.Status, "status must not change on rejected transition")
}

func TestValidPageStatus(t *testing.T) {
	for _, s := range []string{PageStatusDraft, PageStatusOutline, PageStatusDescription, PageStatusImage, PageStatusCompleted, PageStatusFailed} {
		assert.True(t, ValidPageStatus(s), s)
	}
	assert.False(t, ValidPageStatus(""))
	assert.False(t, ValidPageStatus("draft"))
}
