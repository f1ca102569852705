package document

import "errors"

var (
	// ErrNotSupportedFormat is returned for page files whose content is
	// not an image format the renderer can decode.
	ErrNotSupportedFormat = errors.New("document: not supported format")
	// ErrNoPages is returned by Open when no page image was found.
	ErrNoPages = errors.New("document: no pages")
	// ErrInvalidSelection is returned by ParsePages for malformed input.
	ErrInvalidSelection = errors.New("document: invalid page selection")
	// ErrPageOutOfRange is returned by ParsePages for pages the document
	// does not have.
	ErrPageOutOfRange = errors.New("document: page out of range")
)
