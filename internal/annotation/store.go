package annotation

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"chart-annotator/internal/persist"
)

var log = logrus.WithField("component", "annotation")

// persistTimeout bounds one backend round trip.
const persistTimeout = 2 * time.Second

// Snapshot is a consistent read of the store taken under one lock.
type Snapshot struct {
	Shapes   []Shape
	Draft    *Shape
	Selected string
	Hovered  string
	Visible  bool
	Version  uint64
}

// Option configures a Store at construction.
type Option func(*Store)

// WithStyle sets the initial global style for new drafts.
func WithStyle(style Style) Option {
	return func(s *Store) {
		s.style = DefaultStyle
		s.style = Patch(style.StrokeColor, style.StrokeWidth).Apply(s.style)
	}
}

// WithVisible sets the initial visibility flag.
func WithVisible(visible bool) Option {
	return func(s *Store) { s.visible = visible }
}

// Store owns the shape collection of one storage key together with the
// draft, selection, hover and style defaults.
//
// Every mutation that changes state increments the version and notifies the
// change listeners after the lock is released. Operations whose
// preconditions are not met are silent no-ops.
type Store struct {
	mu sync.RWMutex

	key     string
	backend persist.Backend

	shapes   []Shape
	draft    *Shape
	selected string
	hovered  string
	style    Style
	visible  bool
	version  uint64
	closed   bool

	listeners map[int]func()
	nextID    int

	// serializes backend writes so the last mutation wins
	saveMu sync.Mutex
}

// NewStore creates a store for key, hydrated from backend. A nil backend
// keeps the collection in memory only.
func NewStore(key string, backend persist.Backend, opts ...Option) *Store {
	s := &Store{
		key:       key,
		backend:   backend,
		style:     DefaultStyle,
		visible:   true,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shapes = s.load()
	return s
}

func (s *Store) load() []Shape {
	if s.backend == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	data, err := s.backend.Get(ctx, persist.Namespace(s.key))
	if errors.Is(err, persist.ErrNotExist) {
		log.WithField("key", s.key).Debug("no persisted annotations")
		return nil
	}
	if err != nil {
		log.WithError(err).WithField("key", s.key).Warn("failed to load annotations")
		return nil
	}

	shapes, report := Decode(data)
	entry := log.WithFields(logrus.Fields{
		"key":     s.key,
		"kept":    report.Kept,
		"dropped": report.Dropped,
	})
	if report.Corrupt {
		entry.Warn("persisted annotations are corrupt, starting empty")
	} else if report.Dropped > 0 {
		entry.Warn("dropped malformed annotation records")
	} else {
		entry.Debug("loaded annotations")
	}
	return shapes
}

// mutate runs fn under the write lock. fn reports whether the state changed
// and whether the collection must be persisted.
func (s *Store) mutate(fn func() (changed, save bool)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	changed, save := fn()
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.version++
	var shapes []Shape
	if save {
		shapes = s.copyShapes()
	}
	listeners := s.copyListeners()
	s.mu.Unlock()

	if save {
		s.save(shapes)
	}
	for _, fn := range listeners {
		fn()
	}
	return true
}

func (s *Store) copyShapes() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

func (s *Store) copyListeners() []func() {
	out := make([]func(), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.shapes {
		if s.shapes[i].ID == id {
			return i
		}
	}
	return -1
}

// save writes shapes to the backend. Failures are logged and swallowed.
func (s *Store) save(shapes []Shape) {
	if s.backend == nil {
		return
	}
	data, err := Encode(shapes)
	if err != nil {
		log.WithError(err).WithField("key", s.key).Warn("failed to encode annotations")
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.backend.Set(ctx, persist.Namespace(s.key), data); err != nil {
		log.WithError(err).WithField("key", s.key).Warn("failed to persist annotations")
		return
	}
	log.WithFields(logrus.Fields{"key": s.key, "count": len(shapes)}).Debug("persisted annotations")
}

// StartDraft begins a new draft of the given kind with both endpoints at p,
// replacing any draft in progress.
func (s *Store) StartDraft(kind Kind, p DataPoint) {
	if !kind.Valid() || !p.Valid() {
		return
	}
	s.mutate(func() (bool, bool) {
		d := Shape{ID: NewID(), Kind: kind, Style: s.style, P1: p, P2: p}
		s.draft = &d
		return true, false
	})
}

// UpdateDraft moves the trailing endpoint of the draft (b or edge).
func (s *Store) UpdateDraft(p DataPoint) {
	if !p.Valid() {
		return
	}
	s.mutate(func() (bool, bool) {
		if s.draft == nil || s.draft.P2 == p {
			return false, false
		}
		s.draft.P2 = p
		return true, false
	})
}

// CommitDraft appends the draft to the collection and persists it.
func (s *Store) CommitDraft() (Shape, bool) {
	var committed Shape
	ok := s.mutate(func() (bool, bool) {
		if s.draft == nil {
			return false, false
		}
		committed = *s.draft
		s.shapes = append(s.shapes, committed)
		s.draft = nil
		return true, true
	})
	if ok {
		log.WithField("key", s.key).Debugf("committed %s", committed)
	}
	return committed, ok
}

// CancelDraft discards the draft without committing it.
func (s *Store) CancelDraft() bool {
	return s.mutate(func() (bool, bool) {
		if s.draft == nil {
			return false, false
		}
		s.draft = nil
		return true, false
	})
}

// Select sets the selected shape. An empty id clears the selection; an id
// that is not in the collection is ignored.
func (s *Store) Select(id string) {
	s.mutate(func() (bool, bool) {
		if id != "" && s.indexOf(id) < 0 {
			return false, false
		}
		if s.selected == id {
			return false, false
		}
		s.selected = id
		return true, false
	})
}

// SetHover sets the hovered shape id, empty for none.
func (s *Store) SetHover(id string) {
	s.mutate(func() (bool, bool) {
		if s.hovered == id {
			return false, false
		}
		s.hovered = id
		return true, false
	})
}

// MoveSelected replaces the selected shape with snapshot translated by the
// deltas. The snapshot is the pre-drag geometry so repeated moves never
// accumulate drift. It does not persist; call Persist at drag end.
func (s *Store) MoveSelected(dLogical, dPrice float64, snapshot Shape) {
	if !isFinite(dLogical) || !isFinite(dPrice) {
		return
	}
	s.mutate(func() (bool, bool) {
		if s.selected == "" || snapshot.ID != s.selected {
			return false, false
		}
		i := s.indexOf(s.selected)
		if i < 0 {
			return false, false
		}
		moved := snapshot.Translate(dLogical, dPrice)
		if moved.Kind != s.shapes[i].Kind || moved.Validate() != nil {
			return false, false
		}
		moved.Style = s.shapes[i].Style
		if moved == s.shapes[i] {
			return false, false
		}
		s.shapes[i] = moved
		return true, false
	})
}

// ReplaceSelectedHandle overwrites one endpoint of the selected shape and
// persists. Handle names not valid for the shape's kind are ignored.
func (s *Store) ReplaceSelectedHandle(h Handle, p DataPoint) {
	if !p.Valid() {
		return
	}
	s.mutate(func() (bool, bool) {
		i := s.indexOf(s.selected)
		if i < 0 {
			return false, false
		}
		next, ok := s.shapes[i].WithPoint(h, p)
		if !ok {
			return false, false
		}
		s.shapes[i] = next
		return true, true
	})
}

// Erase removes the shape with the given id and persists. Selection and
// hover referencing it are cleared.
func (s *Store) Erase(id string) bool {
	removed := s.mutate(func() (bool, bool) {
		i := s.indexOf(id)
		if i < 0 {
			return false, false
		}
		s.shapes = append(s.shapes[:i:i], s.shapes[i+1:]...)
		if s.selected == id {
			s.selected = ""
		}
		if s.hovered == id {
			s.hovered = ""
		}
		return true, true
	})
	if removed {
		log.WithFields(logrus.Fields{"key": s.key, "id": id}).Debug("erased annotation")
	}
	return removed
}

// Replace overwrites the committed shape with the same id and persists.
// Shapes that fail validation or change kind are rejected.
func (s *Store) Replace(shape Shape) bool {
	if err := shape.Validate(); err != nil {
		log.WithError(err).Debug("rejected replacement")
		return false
	}
	return s.mutate(func() (bool, bool) {
		i := s.indexOf(shape.ID)
		if i < 0 || s.shapes[i].Kind != shape.Kind || s.shapes[i] == shape {
			return false, false
		}
		s.shapes[i] = shape
		return true, true
	})
}

// UpdateSelectedStyle restyles the selected shape and persists.
func (s *Store) UpdateSelectedStyle(patch StylePatch) {
	s.mutate(func() (bool, bool) {
		i := s.indexOf(s.selected)
		if i < 0 || !patch.Differs(s.shapes[i].Style) {
			return false, false
		}
		s.shapes[i].Style = patch.Apply(s.shapes[i].Style)
		return true, true
	})
}

// UpdateDraftStyle restyles the draft in progress.
func (s *Store) UpdateDraftStyle(patch StylePatch) {
	s.mutate(func() (bool, bool) {
		if s.draft == nil || !patch.Differs(s.draft.Style) {
			return false, false
		}
		s.draft.Style = patch.Apply(s.draft.Style)
		return true, false
	})
}

// SetGlobalStyle changes the style applied to future drafts.
func (s *Store) SetGlobalStyle(patch StylePatch) {
	s.mutate(func() (bool, bool) {
		if !patch.Differs(s.style) {
			return false, false
		}
		s.style = patch.Apply(s.style)
		return true, false
	})
}

// SetVisibility toggles whether annotations are drawn at all.
func (s *Store) SetVisibility(visible bool) {
	s.mutate(func() (bool, bool) {
		if s.visible == visible {
			return false, false
		}
		s.visible = visible
		return true, false
	})
}

// Persist writes the current collection to the backend.
func (s *Store) Persist() {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	shapes := s.copyShapes()
	s.mu.RUnlock()
	s.save(shapes)
}

// Key returns the storage key the store was created for.
func (s *Store) Key() string {
	return s.key
}

// Shapes returns a copy of the committed collection in paint order.
func (s *Store) Shapes() []Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyShapes()
}

// Shape looks up a committed shape by id.
func (s *Store) Shape(id string) (Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.shapes[i], true
	}
	return Shape{}, false
}

// Len returns the number of committed shapes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shapes)
}

// Draft returns the draft in progress, if any.
func (s *Store) Draft() (Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return Shape{}, false
	}
	return *s.draft, true
}

// Selected returns the selected shape id, empty when nothing is selected.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectedShape returns the selected shape.
func (s *Store) SelectedShape() (Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(s.selected); i >= 0 {
		return s.shapes[i], true
	}
	return Shape{}, false
}

// Hovered returns the hovered shape id.
func (s *Store) Hovered() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hovered
}

// Visible reports the global visibility flag.
func (s *Store) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// GlobalStyle returns the style applied to new drafts.
func (s *Store) GlobalStyle() Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Version returns the change counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a consistent copy of everything the renderer needs.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Shapes:   s.copyShapes(),
		Selected: s.selected,
		Hovered:  s.hovered,
		Visible:  s.visible,
		Version:  s.version,
	}
	if s.draft != nil {
		d := *s.draft
		snap.Draft = &d
	}
	return snap
}

// OnChange registers fn to run after every state change and returns a
// function that removes it.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close drops the in-memory collection and any unfinished draft without
// persisting, and detaches all listeners. Later calls are no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.shapes = nil
	s.draft = nil
	s.selected = ""
	s.hovered = ""
	s.listeners = make(map[int]func())
	log.WithField("key", s.key).Debug("closed annotation store")
}
