package jsonlex

import "strings"

// PathTracker maintains the current JSON path as a stack of frames, one per
// open container, and derives the canonical string form used for filter
// matching. A frame is either a bare container mark ("{" or "[") for an
// array element / the document root, or a container mark with the owning
// object key appended ("{a", "[t", ...) when the container is the value of
// an object member.
//
// PathTracker never builds a DOM; it only tracks nesting.
type PathTracker struct {
	frames     []string
	pendingKey []byte
	path       string
	dirty      bool
}

// NewPathTracker returns an empty tracker positioned before the first
// token.
func NewPathTracker() *PathTracker {
	return &PathTracker{}
}

// Depth returns the number of currently open containers.
func (p *PathTracker) Depth() int {
	return len(p.frames)
}

// SetKey records the key that the next value belongs to. It must be called
// right after a Key token is scanned while the top frame is an object.
func (p *PathTracker) SetKey(key []byte) {
	p.pendingKey = append(p.pendingKey[:0], key...)
}

// ClearPendingKey drops any recorded key without consuming it, used when a
// comma is seen inside an object: the pending key on the top frame no
// longer applies to whatever member comes next.
func (p *PathTracker) ClearPendingKey() {
	p.pendingKey = p.pendingKey[:0]
}

// PendingKey reports the key currently awaiting a value, if any.
func (p *PathTracker) PendingKey() []byte {
	return p.pendingKey
}

// MemberPath returns the path as it would read for the scalar value
// currently bound to the pending key, without mutating the stack. It is
// used to match filters registered against a specific object member, e.g.
// "{[a{a" for the action-code field inside an actionpacket object.
func (p *PathTracker) MemberPath() string {
	if len(p.pendingKey) == 0 {
		return p.String()
	}
	return p.String() + string(p.pendingKey)
}

// PushObject opens an object container, consuming any pending key.
func (p *PathTracker) PushObject() {
	p.push("{")
}

// PushArray opens an array container, consuming any pending key.
func (p *PathTracker) PushArray() {
	p.push("[")
}

func (p *PathTracker) push(mark string) {
	frame := mark
	if len(p.pendingKey) > 0 {
		frame = mark + string(p.pendingKey)
		p.pendingKey = p.pendingKey[:0]
	}
	p.frames = append(p.frames, frame)
	p.dirty = true
}

// Pop closes the innermost container.
func (p *PathTracker) Pop() {
	if len(p.frames) == 0 {
		return
	}
	p.frames = p.frames[:len(p.frames)-1]
	p.pendingKey = p.pendingKey[:0]
	p.dirty = true
}

// String returns the canonical path form for the current container nesting
// (not including any pending, not-yet-opened member). The root, before any
// container has opened, renders as the empty string; callers that need the
// "<" / ">" sentinels apply those themselves at start/end of the document.
func (p *PathTracker) String() string {
	if !p.dirty {
		return p.path
	}
	var b strings.Builder
	for _, f := range p.frames {
		b.WriteString(f)
	}
	p.path = b.String()
	p.dirty = false
	return p.path
}

// Reset returns the tracker to its initial empty state.
func (p *PathTracker) Reset() {
	p.frames = p.frames[:0]
	p.pendingKey = p.pendingKey[:0]
	p.path = ""
	p.dirty = false
}
