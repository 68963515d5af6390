package attachment

import (
	"sort"
	"strings"

	"recordapi/internal/model"
)

// Store maps attachment names to attachments for a single record.
// It remembers which persisted names were removed so their bytes can be purged after a save.
type Store struct {
	items   map[string]*Attachment
	removed map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		items:   make(map[string]*Attachment),
		removed: make(map[string]struct{}),
	}
}

// LoadStore rebuilds a store from persisted metadata. Loaded attachments carry no bytes.
func LoadStore(metas []model.AttachmentMeta) *Store {
	s := NewStore()
	for _, m := range metas {
		s.items[m.Name] = &Attachment{
			Name:        m.Name,
			ContentType: m.ContentType,
			Size:        m.Size,
			Digest:      m.Digest,
			ParentKey:   m.ParentKey,
		}
	}
	return s
}

// Put adds or replaces a by name. A name of the form "<existing>_<suffix>" is linked to
// <existing> as its parent when no parent was given.
func (s *Store) Put(a *Attachment) {
	if a.ParentKey == "" {
		if i := strings.LastIndex(a.Name, "_"); i > 0 {
			if _, ok := s.items[a.Name[:i]]; ok {
				a.ParentKey = a.Name[:i]
			}
		}
	}
	s.items[a.Name] = a
	delete(s.removed, a.Name)
}

// PutDerivative stores data as "<parent>_<suffix>" linked to parent.
func (s *Store) PutDerivative(parent, suffix, contentType string, data []byte) *Attachment {
	a := New(DerivativeName(parent, suffix), contentType, data)
	a.ParentKey = parent
	s.Put(a)
	return a
}

// Get returns the attachment or nil.
func (s *Store) Get(name string) *Attachment {
	return s.items[name]
}

// Has reports whether name is stored.
func (s *Store) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Remove deletes name and reports whether it existed.
func (s *Store) Remove(name string) bool {
	a, ok := s.items[name]
	if !ok {
		return false
	}
	delete(s.items, name)
	if !a.Pending {
		s.removed[name] = struct{}{}
	}
	return true
}

// RemoveWithDerivatives deletes name and every attachment derived from it.
// It returns the removed names in sorted order.
func (s *Store) RemoveWithDerivatives(name string) []string {
	var out []string
	queue := []string{name}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range s.Derivatives(n) {
			queue = append(queue, d.Name)
		}
		if s.Remove(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// RemoveMatching deletes every attachment whose name starts with prefix.
func (s *Store) RemoveMatching(prefix string) []string {
	var out []string
	for _, n := range s.Keys() {
		if strings.HasPrefix(n, prefix) && s.Remove(n) {
			out = append(out, n)
		}
	}
	return out
}

// Derivatives returns the attachments whose parent is name, sorted by name.
func (s *Store) Derivatives(name string) []*Attachment {
	var out []*Attachment
	for _, a := range s.items {
		if a.ParentKey == name {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Keys returns all names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of stored attachments.
func (s *Store) Len() int { return len(s.items) }

// Pending returns attachments whose bytes still need to be written.
func (s *Store) Pending() []*Attachment {
	var out []*Attachment
	for _, k := range s.Keys() {
		if a := s.items[k]; a.Pending {
			out = append(out, a)
		}
	}
	return out
}

// Removed returns persisted names deleted since the last MarkPersisted.
func (s *Store) Removed() []string {
	out := make([]string, 0, len(s.removed))
	for k := range s.removed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarkPersisted records that every pending attachment has been written and removals purged.
func (s *Store) MarkPersisted() {
	for _, a := range s.items {
		a.Pending = false
	}
	s.removed = make(map[string]struct{})
}

// Meta returns the persisted form of the store, sorted by name.
func (s *Store) Meta() []model.AttachmentMeta {
	out := make([]model.AttachmentMeta, 0, len(s.items))
	for _, k := range s.Keys() {
		a := s.items[k]
		out = append(out, model.AttachmentMeta{
			Name:        a.Name,
			ContentType: a.ContentType,
			Size:        a.Size,
			Digest:      a.Digest,
			ParentKey:   a.ParentKey,
		})
	}
	return out
}
