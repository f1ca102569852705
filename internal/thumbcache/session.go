package thumbcache

import "sync/atomic"

// Token identifies one document load. Tokens increase monotonically and
// exactly one of them is current at a time. The zero Token is never current.
type Token uint64

// Sessions hands out tokens and is the single authority on staleness.
// It is safe for concurrent use: workers consult it before rendering
// queued jobs, the control goroutine before publishing results.
type Sessions struct {
	gen  atomic.Uint64
	open atomic.Bool
}

// Begin starts a new session and invalidates the previous token.
func (s *Sessions) Begin() Token {
	t := Token(s.gen.Add(1))
	s.open.Store(true)
	return t
}

// End invalidates the current token without starting a new session.
func (s *Sessions) End() {
	s.open.Store(false)
	s.gen.Add(1)
}

// Current returns the current token and whether a session is open.
func (s *Sessions) Current() (Token, bool) {
	return Token(s.gen.Load()), s.open.Load()
}

// IsCurrent reports whether t belongs to the open session.
func (s *Sessions) IsCurrent(t Token) bool {
	return t != 0 && s.open.Load() && Token(s.gen.Load()) == t
}
