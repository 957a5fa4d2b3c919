package table

import "github.com/ESloman/cslo/pkg/value"

// FindString scans the table for an already-interned string with the
// given content and precomputed hash, returning nil if none exists. This
// mirrors clox's tableFindString: it compares raw bytes rather than
// relying on Go's map equality so the VM can intern-or-reuse before a
// *value.StringObj even exists.
func (t *Table) FindString(chars string, hash uint32) *value.StringObj {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := len(t.entries)
	idx := int(hash) % capacity
	for {
		e := &t.entries[idx]
		if !e.present {
			return nil
		}
		if e.key.Type == value.Obj {
			if s, ok := e.key.AsObj().(*value.StringObj); ok {
				if s.Hash == hash && s.Chars == chars {
					return s
				}
			}
		}
		idx = (idx + 1) % capacity
	}
}
