// Package render turns watch events into their command-line output form.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/pkg/watch"
)

// Format selects the output encoding.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Renderer writes events as they arrive. Safe for concurrent use; the
// adapters for different watch paths share one renderer.
type Renderer struct {
	mu          sync.Mutex
	w           io.Writer
	format      string
	session     string
	withSession bool
	now         func() time.Time
}

// Options configures a Renderer.
type Options struct {
	// Format is FormatText or FormatJSON. Empty means text.
	Format string
	// Session is the id printed with each event when WithSession is set.
	Session string
	// WithSession enables the session prefix.
	WithSession bool
	// Now overrides the event timestamp source. Nil means time.Now.
	Now func() time.Time
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Renderer{
		w:           w,
		format:      strings.ToLower(format),
		session:     opts.Session,
		withSession: opts.WithSession,
		now:         now,
	}
}

// jsonEvent is the wire form of one event.
type jsonEvent struct {
	Time    string `json:"time"`
	Session string `json:"session,omitempty"`
	Effect  string `json:"effect"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
}

// Sink returns a watch.Sink that renders every delivered event. Events
// arriving in one call stay adjacent in the output.
func (r *Renderer) Sink() watch.Sink {
	return func(evs ...watch.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		ts := r.now().Format(time.RFC3339Nano)
		for _, ev := range evs {
			r.writeOne(ts, ev)
		}
	}
}

func (r *Renderer) writeOne(ts string, ev watch.Event) {
	if r.format == FormatJSON {
		rec := jsonEvent{
			Time:   ts,
			Effect: ev.Effect.String(),
			Kind:   ev.PathKind.String(),
			Path:   ev.Path,
		}
		if r.withSession {
			rec.Session = r.session
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return
		}
		fmt.Fprintf(r.w, "%s\n", line)
		return
	}

	if r.withSession {
		fmt.Fprintf(r.w, "%s %s %s\n", r.session, ts, ev)
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", ts, ev)
}
