package core

import "fmt"

// Fandom is a fictional universe a work or tag belongs to. Fandoms are
// auto-vivified: the first reference from any other entity creates the row.
type Fandom struct {
	Name string
	Link *string
}

func NewFandom(name string, link *string) (Fandom, error) {
	f := Fandom{Name: name, Link: link}
	if err := f.Validate(); err != nil {
		return Fandom{}, err
	}
	return f, nil
}

func (f Fandom) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("fandom name is required")
	}
	return nil
}

// Sentinel reports whether f is the end-of-stream marker.
func (f Fandom) Sentinel() bool {
	return f.Name == ""
}
