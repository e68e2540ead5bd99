package core

import (
	"fmt"
	"time"
)

// Warnings are the archive's six mutually-independent content warning flags.
type Warnings struct {
	NoneGiven bool
	NoneApply bool
	Violence  bool
	Rape      bool
	Death     bool
	Underage  bool
}

// Categories are the archive's six mutually-independent relationship
// category flags.
type Categories struct {
	FF    bool
	FM    bool
	MM    bool
	Gen   bool
	Multi bool
	Other bool
}

// Work is a single fan-authored creative work with its metadata and
// multi-valued author/tag/crossover references.
//
// A nil Language means English, a nil Rating means not rated. An empty
// Authors list is a valid unattributed state; the engine links such works to
// the Anonymous author. A zero LastChecked defaults to ingestion time when
// the work is persisted.
type Work struct {
	Title       string
	Chapters    int
	Words       int
	Language    *string
	Rating      *string
	Warnings    Warnings
	Categories  Categories
	Completed   bool
	LastUpdated time.Time
	LastChecked time.Time
	Link        string
	Authors     []Author
	Tags        []Tag
	Crossovers  []Fandom
}

// NewWork validates the required fields of a work. Optional fields may be set
// on the returned value before handing it to the store, which validates the
// whole record again.
func NewWork(title string, chapters, words int, lastUpdated time.Time, link string) (Work, error) {
	w := Work{
		Title:       title,
		Chapters:    chapters,
		Words:       words,
		LastUpdated: lastUpdated,
		Link:        link,
	}
	if err := w.Validate(); err != nil {
		return Work{}, err
	}
	return w, nil
}

func (w Work) Validate() error {
	if w.Title == "" {
		return fmt.Errorf("work title is required")
	}
	if w.Link == "" {
		return fmt.Errorf("work %q link is required", w.Title)
	}
	if w.Chapters <= 0 {
		return fmt.Errorf("work %q chapter count must be positive", w.Title)
	}
	if w.Words <= 0 {
		return fmt.Errorf("work %q word count must be positive", w.Title)
	}
	if w.LastUpdated.IsZero() {
		return fmt.Errorf("work %q has no last-updated timestamp", w.Title)
	}
	for _, a := range w.Authors {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for _, t := range w.Tags {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, f := range w.Crossovers {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sentinel reports whether w is the end-of-stream marker.
func (w Work) Sentinel() bool {
	return w.Title == "" && w.Link == ""
}
