package scanner

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document is a live HTML view tree.
//
// Mutations made through [Document.Replace] and [Document.Mutate] notify observers.
// Writes made through [Document.Update] do not, so a scan pass's own attachments never
// schedule another pass.
type Document struct {
	mu   sync.RWMutex
	root *html.Node

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root, observers: map[int]func(){}}, nil
}

// ParseString is [Parse] over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Observe registers fn to be called after every notifying mutation and returns a function that removes it.
//
// fn runs on the mutating goroutine and must not block.
func (d *Document) Observe(fn func()) (cancel func()) {
	d.obsMu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.obsMu.Unlock()

	return func() {
		d.obsMu.Lock()
		delete(d.observers, id)
		d.obsMu.Unlock()
	}
}

func (d *Document) notify() {
	d.obsMu.Lock()
	fns := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Replace swaps the whole tree for a freshly parsed one, as a page reload would.
func (d *Document) Replace(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	d.mu.Lock()
	d.root = root
	d.mu.Unlock()

	d.notify()
	return nil
}

// Mutate runs fn with write access to the tree, then notifies observers.
func (d *Document) Mutate(fn func(root Node) error) error {
	d.mu.Lock()
	err := fn(wrap(d.root))
	d.mu.Unlock()

	d.notify()
	return err
}

// Update runs fn with write access to the tree without notifying observers.
func (d *Document) Update(fn func(root Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(wrap(d.root))
}

// View runs fn with read access to the tree.
func (d *Document) View(fn func(root Node)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(wrap(d.root))
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document, for logs and tests.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
