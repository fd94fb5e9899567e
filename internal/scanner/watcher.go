package scanner

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/shared"
)

// WatcherOpts configures a [Watcher].
type WatcherOpts struct {
	Window   time.Duration            // Quiescence window (default: [DefaultQuiescence])
	Action   Action                   // Installed on every attachment
	OnAttach func(added []*Attachment) // Called after a pass that attached anything
	Logger   *log.Logger
}

// Watcher keeps a [Document] scanned: every change schedules a debounced pass that attaches new candidates.
type Watcher struct {
	doc      *Document
	tracker  *Tracker
	sched    *Scheduler
	onAttach func([]*Attachment)
	logger   *log.Logger
}

// NewWatcher creates a [Watcher] over doc.
func NewWatcher(doc *Document, opts WatcherOpts) *Watcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	w := &Watcher{
		doc:      doc,
		tracker:  NewTracker(opts.Action),
		onAttach: opts.OnAttach,
		logger:   opts.Logger.WithPrefix("watcher"),
	}
	w.sched = NewScheduler(opts.Window, func() { w.Pass() }, opts.Logger)
	return w
}

// Tracker returns the watcher's attachment tracker.
func (w *Watcher) Tracker() *Tracker {
	return w.tracker
}

// Pass scans the document once and attaches every new candidate.
func (w *Watcher) Pass() []*Attachment {
	var added []*Attachment
	w.doc.Update(func(root Node) {
		added = w.tracker.Attach(Scan(root))
	})

	w.logger.Debug("scan pass", "attached", len(added))
	if len(added) > 0 && w.onAttach != nil {
		w.onAttach(added)
	}
	return added
}

// Run scans immediately and then after every quiet period following a document change, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	cancel := w.doc.Observe(w.sched.Notify)
	defer cancel()

	return w.sched.Run(ctx)
}
