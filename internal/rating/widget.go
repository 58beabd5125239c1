// Package rating holds the 1 to 5 star input used on the details and feedback pages.
package rating

import (
	"errors"
	"happy-game/internal/constants"
)

var ErrOutOfRange = errors.New("rating must be between 1 and 5")

// Valid reports whether v may be committed.
func Valid(v int) bool {
	return v >= constants.RatingMin && v <= constants.RatingMax
}

// Store persists committed ratings per item.
type Store interface {
	Load(itemID string) (int, bool)
	Save(itemID string, value int) error
}

type Star struct {
	Value  int
	Filled bool
}

// Widget tracks a committed selection and a transient hover preview.
// It is not safe for concurrent use.
type Widget struct {
	committed int
	hover     int
	itemID    string
	store     Store
	onChange  func(int)
}

type Option func(*Widget)

// WithInitial seeds the committed value. Out of range values are ignored.
func WithInitial(v int) Option {
	return func(w *Widget) {
		if Valid(v) {
			w.committed = v
		}
	}
}

// WithItem binds the widget to an item; a stored rating overrides WithInitial
// and every selection is saved back.
func WithItem(itemID string, store Store) Option {
	return func(w *Widget) {
		w.itemID = itemID
		w.store = store
	}
}

func OnChange(fn func(int)) Option {
	return func(w *Widget) {
		w.onChange = fn
	}
}

func NewWidget(opts ...Option) *Widget {
	w := &Widget{}
	for _, opt := range opts {
		opt(w)
	}

	if w.store != nil && w.itemID != "" {
		if v, ok := w.store.Load(w.itemID); ok && Valid(v) {
			w.committed = v
		}
	}
	return w
}

func (w *Widget) Hover(v int) {
	if Valid(v) {
		w.hover = v
	}
}

func (w *Widget) Leave() {
	w.hover = 0
}

// Select commits v, clears the hover preview, saves it when bound to an item
// and notifies the change callback. An out of range v changes nothing.
func (w *Widget) Select(v int) error {
	if !Valid(v) {
		return ErrOutOfRange
	}

	w.committed = v
	w.hover = 0

	if w.store != nil && w.itemID != "" {
		if err := w.store.Save(w.itemID, v); err != nil {
			return err
		}
	}

	if w.onChange != nil {
		w.onChange(v)
	}
	return nil
}

func (w *Widget) Committed() int {
	return w.committed
}

// Display is the number of stars drawn filled.
func (w *Widget) Display() int {
	return max(w.hover, w.committed)
}

func (w *Widget) Stars() []Star {
	shown := w.Display()
	stars := make([]Star, 0, constants.RatingMax)
	for p := constants.RatingMin; p <= constants.RatingMax; p++ {
		stars = append(stars, Star{Value: p, Filled: shown >= p})
	}
	return stars
}
