package core

import "fmt"

// AnonymousAuthor is the reserved name of the pre-seeded placeholder author
// that unattributed works are linked to. It is always row 1 of the author
// table.
const AnonymousAuthor = "Anonymous"

// Author is a writer of works. Links is an ordered set of profile URLs;
// NewAuthor collapses duplicates while preserving first-seen order.
type Author struct {
	Name  string
	Links []string
}

func NewAuthor(name string, links []string) (Author, error) {
	seen := make(map[string]struct{}, len(links))
	deduped := make([]string, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		deduped = append(deduped, link)
	}
	a := Author{Name: name, Links: deduped}
	if err := a.Validate(); err != nil {
		return Author{}, err
	}
	return a, nil
}

func (a Author) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("author name is required")
	}
	return nil
}

// Sentinel reports whether a is the end-of-stream marker.
func (a Author) Sentinel() bool {
	return a.Name == ""
}
