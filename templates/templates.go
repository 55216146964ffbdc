// Package templates serves the HTML style examples embedded in order and
// declaration prompts. A YAML manifest lists, per category, which template
// indices exist and whether each carries an attachment.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/spetersoncode/phantommail"
)

//go:embed manifest.yaml html/*.html
var embedded embed.FS

// Slot selects the email body or the attachment of a template.
type Slot string

const (
	SlotEmail      Slot = "email"
	SlotAttachment Slot = "attachment"
)

// ErrNotFound is returned for an unknown category, index or empty slot.
var ErrNotFound = errors.New("template not found")

// Entry describes one numbered template of a category.
type Entry struct {
	Index      int    `yaml:"index"`
	Email      string `yaml:"email"`
	Attachment string `yaml:"attachment,omitempty"`

	// SignatureOnly marks templates whose prompt carries only the client's
	// signature details, not the full transport data.
	SignatureOnly bool `yaml:"signature_only,omitempty"`
}

// HasAttachment reports whether the template produces an attachment.
func (e Entry) HasAttachment() bool { return e.Attachment != "" }

type manifest struct {
	Order       []Entry `yaml:"order"`
	Declaration []Entry `yaml:"declaration"`
}

// Store reads templates from a file system laid out as manifest.yaml plus
// an html/ directory.
type Store struct {
	fsys    fs.FS
	entries map[phantommail.Category][]Entry
}

// New returns a Store over the embedded templates.
func New() (*Store, error) {
	return NewFromFS(embedded)
}

// NewFromFS returns a Store over fsys. Every file the manifest names must
// exist.
func NewFromFS(fsys fs.FS) (*Store, error) {
	data, err := fs.ReadFile(fsys, "manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	s := &Store{
		fsys: fsys,
		entries: map[phantommail.Category][]Entry{
			phantommail.Order:       m.Order,
			phantommail.Declaration: m.Declaration,
		},
	}
	for c, entries := range s.entries {
		for _, e := range entries {
			if e.Email == "" {
				return nil, fmt.Errorf("%s template %d: no email file", c, e.Index)
			}
			for _, name := range []string{e.Email, e.Attachment} {
				if name == "" {
					continue
				}
				if _, err := fs.Stat(fsys, path.Join("html", name)); err != nil {
					return nil, fmt.Errorf("%s template %d: %w", c, e.Index, err)
				}
			}
		}
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew() *Store {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// Entry returns the manifest entry for a category and index.
func (s *Store) Entry(c phantommail.Category, index int) (Entry, error) {
	for _, e := range s.entries[c] {
		if e.Index == index {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s template %d", ErrNotFound, c, index)
}

// Indices returns the template indices of a category in ascending order.
func (s *Store) Indices(c phantommail.Category) []int {
	out := make([]int, 0, len(s.entries[c]))
	for _, e := range s.entries[c] {
		out = append(out, e.Index)
	}
	slices.Sort(out)
	return out
}

// HasAttachment reports whether a category's template produces an
// attachment.
func (s *Store) HasAttachment(c phantommail.Category, index int) bool {
	e, err := s.Entry(c, index)
	return err == nil && e.HasAttachment()
}

// Read returns the HTML text of one template slot.
func (s *Store) Read(c phantommail.Category, slot Slot, index int) (string, error) {
	e, err := s.Entry(c, index)
	if err != nil {
		return "", err
	}
	name := e.Email
	if slot == SlotAttachment {
		name = e.Attachment
	}
	if name == "" {
		return "", fmt.Errorf("%w: %s template %d has no %s", ErrNotFound, c, index, slot)
	}
	data, err := fs.ReadFile(s.fsys, path.Join("html", name))
	if err != nil {
		return "", fmt.Errorf("read %s template %d %s: %w", c, index, slot, err)
	}
	return string(data), nil
}
