// Package source tracks the stack of source buffers a translation unit is
// reading from: the root file, any #include-d files, and the byte ranges
// re-scanned during macro expansion and macro-argument substitution.
package source

import "fmt"

// MaxDepth bounds how many frames may be nested at once, catching runaway
// #include or macro-expansion recursion before it exhausts memory.
const MaxDepth = 100

// Buffer is a named, fully-read chunk of source text. Buffers are never
// mutated once registered; frames reference byte ranges within them.
type Buffer struct {
	ID   int
	Name string
	Body []byte
}

// Pos identifies a single byte position within a registered buffer, for
// diagnostics and for anchoring a token's start.
type Pos struct {
	SrcID       int
	Line, Col   int
}

// Frame is one entry on the source Stack: a cursor over some Buffer's byte
// range, plus the position last snapshotted by SnapshotPos.
type Frame struct {
	Buf        *Buffer
	Start, End int
	Pos        int
	Line, Col  int
	PrevPos    int
	PrevLine   int
	PrevCol    int
}

// Stack implements the nested file/macro-expansion source reader described
// by the file stack component: a LIFO of Frames, each reading some byte
// range of a registered Buffer.
type Stack struct {
	buffers []*Buffer
	frames  []Frame
}

// NewStack returns an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Enter registers a new buffer and pushes a frame reading its entire body.
func (s *Stack) Enter(name string, body []byte) (int, error) {
	if len(s.frames) >= MaxDepth {
		return 0, fmt.Errorf("source: max include/expansion depth %d exceeded entering %q", MaxDepth, name)
	}
	buf := &Buffer{ID: len(s.buffers), Name: name, Body: body}
	s.buffers = append(s.buffers, buf)
	s.frames = append(s.frames, Frame{Buf: buf, Start: 0, End: len(body), Line: 1, Col: 1})
	return buf.ID, nil
}

// EnterSlice pushes a frame re-reading an existing buffer's [start,end)
// range. This is how macro bodies and macro-argument text are rescanned.
func (s *Stack) EnterSlice(srcID, start, end int) error {
	if len(s.frames) >= MaxDepth {
		return fmt.Errorf("source: max include/expansion depth %d exceeded", MaxDepth)
	}
	if srcID < 0 || srcID >= len(s.buffers) {
		return fmt.Errorf("source: invalid buffer id %d", srcID)
	}
	buf := s.buffers[srcID]
	if start < 0 || end > len(buf.Body) || start > end {
		return fmt.Errorf("source: invalid slice [%d,%d) of buffer %q", start, end, buf.Name)
	}
	s.frames = append(s.frames, Frame{Buf: buf, Start: start, End: end, Pos: start, Line: 1, Col: 1})
	return nil
}

// Exit pops the top frame.
func (s *Stack) Exit() error {
	if len(s.frames) == 0 {
		return fmt.Errorf("source: exit with no frame entered")
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Depth reports how many frames are currently pushed.
func (s *Stack) Depth() int { return len(s.frames) }

// Current returns the top frame, or nil if the stack is empty.
func (s *Stack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// Byte returns the byte at the top frame's cursor, or -1 at its end.
func (s *Stack) Byte() int {
	f := s.Current()
	if f == nil || f.Pos >= f.End {
		return -1
	}
	return int(f.Buf.Body[f.Pos])
}

// Next advances the top frame's cursor by one byte, tracking line/column.
// Reports whether a byte remained to advance over.
func (s *Stack) Next() bool {
	f := s.Current()
	if f == nil || f.Pos >= f.End {
		return false
	}
	b := f.Buf.Body[f.Pos]
	f.Pos++
	if b == '\n' {
		f.Line++
		f.Col = 1
	} else {
		f.Col++
	}
	return true
}

// SnapshotPos copies the top frame's current position into its Prev* fields,
// establishing the anchor for the next token's diagnostic position.
func (s *Stack) SnapshotPos() {
	if f := s.Current(); f != nil {
		f.PrevPos, f.PrevLine, f.PrevCol = f.Pos, f.Line, f.Col
	}
}

// PrevPos returns the position last recorded by SnapshotPos on the top frame.
func (s *Stack) PrevPos() Pos {
	f := s.Current()
	if f == nil {
		return Pos{}
	}
	return Pos{SrcID: f.Buf.ID, Line: f.PrevLine, Col: f.PrevCol}
}

// BufferByID looks up a previously registered buffer, even after the frame
// that was reading it has been popped, so stale diagnostics stay resolvable.
func (s *Stack) BufferByID(id int) (*Buffer, bool) {
	if id < 0 || id >= len(s.buffers) {
		return nil, false
	}
	return s.buffers[id], true
}

// ReadRune implements io.RuneReader over the top frame, treating the
// accepted source subset as ASCII so byte-at-a-time decoding suffices.
func (s *Stack) ReadRune() (rune, int, error) {
	b := s.Byte()
	if b < 0 {
		return 0, 0, errEOF
	}
	s.Next()
	return rune(b), 1, nil
}

var errEOF = fmt.Errorf("source: EOF")

func (p Pos) String() string { return fmt.Sprintf("#%d:%d:%d", p.SrcID, p.Line, p.Col) }

// PosString renders a Pos as "name:line:col" using this Stack's registered
// buffer names, falling back to Pos.String for an unknown id.
func (s *Stack) PosString(p Pos) string {
	if buf, ok := s.BufferByID(p.SrcID); ok {
		return fmt.Sprintf("%s:%d:%d", buf.Name, p.Line, p.Col)
	}
	return p.String()
}
