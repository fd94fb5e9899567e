package scanner

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/tracklift/internal/models"
)

// Action is what an attachment does when triggered; in practice an ADD_TRACK bus call.
type Action func(ctx context.Context, track models.Track) (*models.AddResult, error)

var errNoAction = errors.New("no action installed")

// Attachment is the user-triggerable action installed on one container.
type Attachment struct {
	// Index is 1-based and stable for the lifetime of the [Tracker].
	Index int
	Track models.Track

	container Node
	action    Action
}

// Trigger runs the attachment's action.
//
// It does not touch the tree, so it is safe to call while a scan pass runs.
func (a *Attachment) Trigger(ctx context.Context) (*models.AddResult, error) {
	if a.action == nil {
		return nil, errNoAction
	}
	return a.action(ctx, a.Track)
}

// Element returns the tag name of the container the action is installed on.
func (a *Attachment) Element() string {
	if a.container == nil {
		return ""
	}
	return a.container.Tag()
}

// Tracker marks containers and hands out attachments.
type Tracker struct {
	mu          sync.Mutex
	action      Action
	attachments []*Attachment
}

// NewTracker creates a [Tracker] whose attachments run action.
func NewTracker(action Action) *Tracker {
	return &Tracker{action: action}
}

// Attach installs the action on every candidate not already seen in this call and not already marked.
//
// Containers are marked with [AttachedAttr], tagged with [RowClass] and given an action
// button. The caller must hold write access to the tree.
func (t *Tracker) Attach(candidates []Candidate) []*Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{}, len(candidates))
	var added []*Attachment
	for _, c := range candidates {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if c.Attached() {
			continue
		}

		c.Container.SetAttr(AttachedAttr, "true")
		c.Container.AddClass(RowClass)
		c.Container.AppendElement("button", map[string]string{"class": ButtonClass, "type": "button"}, ButtonLabel)

		a := &Attachment{
			Index:     len(t.attachments) + 1,
			Track:     c.Track,
			container: c.Container,
			action:    t.action,
		}
		t.attachments = append(t.attachments, a)
		added = append(added, a)
	}
	return added
}

// Attachments returns every attachment so far, in index order.
func (t *Tracker) Attachments() []*Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Attachment(nil), t.attachments...)
}

// Get returns the attachment with the given 1-based index.
func (t *Tracker) Get(index int) (*Attachment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 1 || index > len(t.attachments) {
		return nil, false
	}
	return t.attachments[index-1], true
}
