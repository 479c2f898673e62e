// Package cart holds the per-session shopping cart.
package cart

import (
	"errors"
	"strings"
	"sync"

	"github.com/fjod/peixeshop/internal/domain"
)

// MaxLineQuantity caps the quantity of a single line.
const MaxLineQuantity = 999

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrQuantityTooLarge = errors.New("quantity exceeds the per-line limit")
	ErrInvalidProduct   = errors.New("product must have an id and a non-negative price")
	ErrTotalOverflow    = errors.New("cart total out of range")
)

// Store is the cart of one session. Line items keep insertion order and
// there is at most one line per product id.
type Store struct {
	mu    sync.RWMutex
	items []domain.LineItem
}

func NewStore() *Store {
	return &Store{}
}

// NewFromItems rebuilds a cart from persisted line items.
func NewFromItems(items []domain.LineItem) *Store {
	s := NewStore()
	s.Restore(items)
	return s
}

// AddItem adds quantity units of product. If the product is already in the
// cart only its quantity grows; the stored name and price are kept.
func (s *Store) AddItem(product domain.Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(product.ID) == "" || product.Price.IsNegative() {
		return ErrInvalidProduct
	}

	if quantity > MaxLineQuantity {
		return ErrQuantityTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		if quantity > MaxLineQuantity-s.items[i].Quantity {
			return ErrQuantityTooLarge
		}
		return s.setLineQuantity(i, s.items[i].Quantity+quantity)
	}

	line := domain.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	if !s.fits(-1, line) {
		return ErrTotalOverflow
	}
	s.items = append(s.items, line)
	return nil
}

func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID)
}

// SetQuantity replaces the quantity of a line. A quantity <= 0 removes it.
// Unknown product ids are ignored.
func (s *Store) SetQuantity(productID string, quantity int) error {
	if quantity > MaxLineQuantity {
		return ErrQuantityTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(productID)
		return nil
	}
	if i := s.indexOf(productID); i >= 0 {
		return s.setLineQuantity(i, quantity)
	}
	return nil
}

// RemoveSnapshot takes the lines of snapshot out of the cart, subtracting
// the snapshot quantities. Units added after the snapshot was taken stay.
func (s *Store) RemoveSnapshot(snapshot domain.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, li := range snapshot.Items {
		i := s.indexOf(li.ProductID)
		if i < 0 {
			continue
		}
		if left := s.items[i].Quantity - li.Quantity; left > 0 {
			s.items[i].Quantity = left
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

func (s *Store) Total() domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total()
}

// Count is the number of units in the cart, not the number of lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count()
}

func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns items, total and count taken under one lock.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CartSnapshot{
		Items: s.copyItems(),
		Total: s.total(),
		Count: s.count(),
	}
}

// Restore replaces the content of the cart. Lines are merged by product id,
// lines with a non-positive quantity are dropped and merged quantities are
// capped at MaxLineQuantity. Lines that would push the total out of range
// are dropped.
func (s *Store) Restore(items []domain.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	for _, li := range items {
		if li.Quantity <= 0 || li.ProductID == "" || li.UnitPrice.IsNegative() {
			continue
		}
		if i := s.indexOf(li.ProductID); i >= 0 {
			q := MaxLineQuantity
			if li.Quantity < MaxLineQuantity-s.items[i].Quantity {
				q = s.items[i].Quantity + li.Quantity
			}
			_ = s.setLineQuantity(i, q)
			continue
		}
		li.Quantity = min(li.Quantity, MaxLineQuantity)
		if s.fits(-1, li) {
			s.items = append(s.items, li)
		}
	}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// setLineQuantity changes line i only if the cart total stays in range.
func (s *Store) setLineQuantity(i, quantity int) error {
	line := s.items[i]
	line.Quantity = quantity
	if !s.fits(i, line) {
		return ErrTotalOverflow
	}
	s.items[i] = line
	return nil
}

// fits reports whether the cart total is representable with line replacing
// line i, or appended when i is -1.
func (s *Store) fits(i int, line domain.LineItem) bool {
	total, ok := line.UnitPrice.MulChecked(line.Quantity)
	if !ok {
		return false
	}
	for j, li := range s.items {
		if j == i {
			continue
		}
		if total, ok = total.AddChecked(li.Subtotal()); !ok {
			return false
		}
	}
	return true
}

func (s *Store) remove(productID string) {
	if i := s.indexOf(productID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

func (s *Store) total() domain.Money {
	var total domain.Money
	for _, li := range s.items {
		total += li.Subtotal()
	}
	return total
}

func (s *Store) count() int {
	n := 0
	for _, li := range s.items {
		n += li.Quantity
	}
	return n
}

func (s *Store) copyItems() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}
