package main

import "github.com/anastasop/pageview/internal/document"

// Marks is the set of marked pages, keyed by path so that marks survive
// a reload of the document and are shared by all views.
type Marks map[string]bool

type pageList interface {
	PageCount() int
	Page(i int) document.Page
}

// Toggle marks or unmarks path.
func (m Marks) Toggle(path string) {
	if m[path] {
		delete(m, path)
	} else {
		m[path] = true
	}
}

// MarkAll marks every page of doc.
func (m Marks) MarkAll(doc pageList) {
	for i := range doc.PageCount() {
		m[doc.Page(i).Path] = true
	}
}

// UnmarkAll unmarks every page of doc. Marks of pages outside doc stay.
func (m Marks) UnmarkAll(doc pageList) {
	for i := range doc.PageCount() {
		delete(m, doc.Page(i).Path)
	}
}

// MarkSelection marks the pages of doc named by a selection like "1-3,5".
// It returns the number of pages selected. Nothing is marked if the
// selection is invalid.
func (m Marks) MarkSelection(doc pageList, selection string) (int, error) {
	pages, err := document.ParsePages(selection, doc.PageCount())
	if err != nil {
		return 0, err
	}
	for _, i := range pages {
		m[doc.Page(i).Path] = true
	}
	return len(pages), nil
}
