package domain

import "errors"

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrPageNotFound       = errors.New("page not found")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrAspectRatioLocked  = errors.New("aspect ratio is locked: project already has generated images")
	ErrInvalidPageStatus  = errors.New("invalid page status transition")
	ErrEmptyProject       = errors.New("project has no pages")
)
