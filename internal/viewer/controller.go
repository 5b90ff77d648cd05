// Package viewer implements the collection controller: selection, loading
// and re-rendering of trajectories, independent of the UI surface showing
// them. Adapters (terminal UI, console output) implement View.
package viewer

import (
	"sync"

	"github.com/arsalan924/trajlens/internal/trajectory"
)

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Source supplies trajectory listings and documents. Both the directory
// store and the HTTP client satisfy it.
type Source interface {
	List() ([]string, error)
	Label() string
	Load(name string) (*trajectory.Document, error)
}

// View receives display updates from the controller. Calls arrive from the
// goroutine that triggered the operation; a completed load that has been
// superseded by a newer selection never reaches the view.
type View interface {
	// ShowTrajectory replaces the displayed content. scroll is the offset
	// to restore (0 for a fresh selection).
	ShowTrajectory(name string, rendered *trajectory.RenderedTrajectory, scroll int)
	// ShowError replaces the displayed content with an error message.
	ShowError(name string, err error)
	// SetSelected moves the exactly-one selection highlight.
	SetSelected(name string)
}

// Controller orchestrates loading and rendering of the trajectory
// collection. Every load is stamped with a generation; completions whose
// generation is no longer current are discarded, so the view only ever sees
// one load's output in full.
type Controller struct {
	source Source
	view   View
	opts   trajectory.RenderOptions

	mu       sync.Mutex
	state    State
	selected string
	scroll   int
	gen      uint64
}

// New creates a controller bound to a source and a view.
func New(source Source, view View, opts trajectory.RenderOptions) *Controller {
	return &Controller{
		source: source,
		view:   view,
		opts:   opts,
		state:  StateIdle,
	}
}

// Files lists the available trajectory names.
func (c *Controller) Files() ([]string, error) {
	return c.source.List()
}

// Label returns the collection label.
func (c *Controller) Label() string {
	return c.source.Label()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the name whose content is currently displayed, or ""
// before the first successful load.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SetScroll records the user's scroll offset so Refresh can restore it.
func (c *Controller) SetScroll(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	c.scroll = offset
}

// Select loads, renders and displays the named trajectory, replacing any
// previous content. On failure the error is displayed in place of content
// and the previous selection highlight is kept. A Select that is overtaken
// by a newer one has no effect on the view.
func (c *Controller) Select(name string) {
	gen := c.beginLoad()
	doc, err := c.source.Load(name)
	c.finishLoad(gen, name, doc, err, 0)
}

// Refresh re-loads and re-renders the current trajectory, preserving the
// user's scroll offset. A no-op before the first successful selection.
func (c *Controller) Refresh() {
	c.mu.Lock()
	name := c.selected
	scroll := c.scroll
	c.mu.Unlock()
	if name == "" {
		return
	}

	gen := c.beginLoad()
	doc, err := c.source.Load(name)
	c.finishLoad(gen, name, doc, err, scroll)
}

func (c *Controller) beginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateLoading
	c.gen++
	return c.gen
}

func (c *Controller) finishLoad(gen uint64, name string, doc *trajectory.Document, err error, scroll int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer selection superseded this load.
		return
	}

	if err != nil {
		c.state = StateFailed
		c.view.ShowError(name, err)
		return
	}

	rendered := trajectory.RenderTrajectory(doc, c.opts)
	c.state = StateRendered
	c.selected = name
	c.scroll = scroll
	c.view.SetSelected(name)
	c.view.ShowTrajectory(name, rendered, scroll)
}
