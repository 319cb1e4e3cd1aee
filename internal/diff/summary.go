package diff

// Action is what the reconciler did, or would have done in report mode, for
// one object.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Summary is the reportable unit for one compared object.
type Summary struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Action  Action  `json:"action"`
	Entries []Entry `json:"diffs"`
	Count   int     `json:"count"`
	Message string  `json:"message,omitempty"`
	Notify  bool    `json:"notify"`
}

// Option adjusts a Summary built by Summarize.
type Option func(*Summary)

// WithMessage attaches a free-text message.
func WithMessage(msg string) Option {
	return func(s *Summary) { s.Message = msg }
}

// Silent marks the summary as log-only. Its entries are replaced by opaque
// entries carrying the summary message, so raw values never reach a report.
func Silent() Option {
	return func(s *Summary) { s.Notify = false }
}

// WithAction records the action taken for the object.
func WithAction(a Action) Option {
	return func(s *Summary) { s.Action = a }
}

// Summarize builds a Summary from differ output.
func Summarize(name, typ string, entries []Entry, opts ...Option) Summary {
	s := Summary{
		Name:   name,
		Type:   typ,
		Action: ActionNone,
		Notify: true,
	}
	for _, o := range opts {
		o(&s)
	}

	s.Entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !s.Notify {
			e = Entry{Path: e.Path, Kind: e.Kind, Message: s.Message}
		}
		e.Notify = s.Notify
		s.Entries = append(s.Entries, e)
	}
	s.Count = len(s.Entries)
	return s
}

// Merge folds other into s: entries are concatenated and counts summed. The
// name, type and notify flag of s are kept.
func (s *Summary) Merge(other Summary) {
	s.Entries = append(s.Entries, other.Entries...)
	s.Count += other.Count
}

// Notifying returns the entries that should surface to end users.
func (s Summary) Notifying() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Notify {
			out = append(out, e)
		}
	}
	return out
}
