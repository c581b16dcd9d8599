package invoke

import "fmt"

// Sink is the opt-in diagnostic buffer of one invocation. It accumulates
// formatted, prefixed fragments and only grows; it is reset when the next
// invocation begins and detached when the invocation ends.
//
// A Sink belongs to a single invocation at a time and is not safe for
// concurrent use.
type Sink struct {
	buf []byte
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// String returns the accumulated diagnostics.
func (s *Sink) String() string { return string(s.buf) }

// Len returns the accumulated diagnostics length in bytes.
func (s *Sink) Len() int { return len(s.buf) }

// append grows the buffer to the exact new total length and adds the
// fragment. Prior content is never moved out, truncated or compacted.
func (s *Sink) append(fragment string) {
	next := make([]byte, 0, len(s.buf)+len(fragment))
	next = append(next, s.buf...)
	next = append(next, fragment...)
	s.buf = next
}

func (s *Sink) reset() { s.buf = nil }

func (s *Sink) detach() string {
	out := string(s.buf)
	s.buf = nil
	return out
}

// Capturef appends a formatted message to the invocation sink, prefixed with
// the program name and, when module is not empty, a bracketed module tag:
//
//	prog: message
//	prog: [module] message
//
// No separator is added beyond what the message itself includes. When the
// invocation has no sink the call does nothing and allocates nothing.
func (i *Invocation) Capturef(module, format string, args ...interface{}) {
	if i.sink == nil {
		return
	}

	var fragment string
	if module != "" {
		fragment = fmt.Sprintf("%s: [%s] %s", i.progName, module, fmt.Sprintf(format, args...))
	} else {
		fragment = fmt.Sprintf("%s: %s", i.progName, fmt.Sprintf(format, args...))
	}

	i.sink.append(fragment)
}
