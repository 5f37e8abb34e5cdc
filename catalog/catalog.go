// Package catalog holds the fixed set of public-domain classics the demo
// can auto-index, plus presence checks against a local samples directory.
package catalog

import (
	"os"
	"path/filepath"
)

// Descriptor describes one known local document and the metadata attached
// to it when imported into a store.
type Descriptor struct {
	Path   string
	Title  string
	Author string
	Year   int
}

// Samples is the hard-coded document catalog. Descriptors whose files are
// absent from the samples directory are skipped at build time, not errors.
var Samples = []Descriptor{
	{Path: "Pride_and_Prejudice.txt", Title: "Pride and Prejudice", Author: "Jane Austen", Year: 1813},
	{Path: "Adventures_of_Sherlock_Holmes.txt", Title: "The Adventures of Sherlock Holmes", Author: "Arthur Conan Doyle", Year: 1892},
	{Path: "Alices_Adventures_in_Wonderland.txt", Title: "Alice's Adventures in Wonderland", Author: "Lewis Carroll", Year: 1865},
	{Path: "Moby_Dick.txt", Title: "Moby-Dick", Author: "Herman Melville", Year: 1851},
}

// Resolve returns the descriptor's absolute location under dir.
func (d Descriptor) Resolve(dir string) string {
	return filepath.Join(dir, d.Path)
}

// Exists reports whether the descriptor is present and non-empty under dir.
func (d Descriptor) Exists(dir string) bool {
	info, err := os.Stat(d.Resolve(dir))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Present filters the catalog to descriptors found non-empty under dir.
func Present(dir string) []Descriptor {
	var found []Descriptor
	for _, d := range Samples {
		if d.Exists(dir) {
			found = append(found, d)
		}
	}
	return found
}
