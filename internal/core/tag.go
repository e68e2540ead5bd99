package core

import "fmt"

// Tag is a descriptive label attached to works: a character, a relationship,
// or a freeform tag. A tag may name a fandom it belongs to; the fandom does
// not need to exist yet, the engine auto-creates it.
type Tag struct {
	Name         string
	Description  *string
	Character    bool
	Relationship bool
	Fandom       *string
	Link         *string
}

func NewTag(name string, description *string, character, relationship bool, fandom, link *string) (Tag, error) {
	t := Tag{
		Name:         name,
		Description:  description,
		Character:    character,
		Relationship: relationship,
		Fandom:       fandom,
		Link:         link,
	}
	if err := t.Validate(); err != nil {
		return Tag{}, err
	}
	return t, nil
}

func (t Tag) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	if t.Character && t.Relationship {
		return fmt.Errorf("tag %q cannot represent a character and a relationship at the same time", t.Name)
	}
	return nil
}

// Sentinel reports whether t is the end-of-stream marker.
func (t Tag) Sentinel() bool {
	return t.Name == ""
}
