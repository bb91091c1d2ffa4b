// Package codebook maps IR fingerprints to named actions and teaches new
// ones from a live receiver.
package codebook

import (
	"sort"
	"sync"

	"github.com/sweeney/screen-remote/internal/logic"
)

// ActionPower is the remote's power button. The remaining buttons are the
// digits "0" to "9".
const ActionPower = "power"

// DefaultActions lists the buttons offered for learning, in prompt order.
var DefaultActions = []string{ActionPower, "0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Book is a bidirectional action/fingerprint map. A fingerprint names at
// most one action and an action holds at most one fingerprint; the most
// recent Assign wins. Safe for concurrent use.
type Book struct {
	mu       sync.RWMutex
	byAction map[string]logic.Fingerprint
	byFP     map[logic.Fingerprint]string
}

// New creates an empty Book.
func New() *Book {
	return &Book{
		byAction: make(map[string]logic.Fingerprint),
		byFP:     make(map[logic.Fingerprint]string),
	}
}

// FromCodes builds a Book from a persisted code table. Nil entries are
// actions that have not been learned.
func FromCodes(codes map[string]*uint32) *Book {
	b := New()
	// Sorted so that duplicate fingerprints resolve the same way every load.
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fp := codes[name]; fp != nil {
			b.Assign(name, logic.Fingerprint(*fp))
		}
	}
	return b
}

// Lookup returns the action for fp.
func (b *Book) Lookup(fp logic.Fingerprint) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	action, ok := b.byFP[fp]
	return action, ok
}

// Fingerprint returns the fingerprint learned for action.
func (b *Book) Fingerprint(action string) (logic.Fingerprint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fp, ok := b.byAction[action]
	return fp, ok
}

// Assign binds fp to action, unbinding any previous owner of fp and any
// previous fingerprint of action.
func (b *Book) Assign(action string, fp logic.Fingerprint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.byAction[action]; ok {
		delete(b.byFP, old)
	}
	if prev, ok := b.byFP[fp]; ok {
		delete(b.byAction, prev)
	}
	b.byAction[action] = fp
	b.byFP[fp] = action
}

// Forget removes any fingerprint bound to action.
func (b *Book) Forget(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fp, ok := b.byAction[action]; ok {
		delete(b.byFP, fp)
		delete(b.byAction, action)
	}
}

// Len returns the number of learned actions.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byAction)
}

// Codes returns the table in persisted form. Every name in actions is
// present, with nil for unlearned entries.
func (b *Book) Codes(actions ...string) map[string]*uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]*uint32, len(b.byAction)+len(actions))
	for _, a := range actions {
		out[a] = nil
	}
	for a, fp := range b.byAction {
		v := uint32(fp)
		out[a] = &v
	}
	return out
}
