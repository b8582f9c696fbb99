package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/xenking/pos-console/internal/domain/sale"
)

var _ sale.ReceiptRepository = (*MemoryReceipts)(nil)

// MemoryReceipts is a process-local receipt journal used when no database is
// configured. It keeps at most capacity receipts, dropping the oldest.
type MemoryReceipts struct {
	capacity int

	mu        sync.RWMutex
	byInvoice map[string]sale.Sale
	order     []string
}

// NewMemoryReceipts creates an empty journal.
func NewMemoryReceipts(capacity int) *MemoryReceipts {
	return &MemoryReceipts{
		capacity:  capacity,
		byInvoice: make(map[string]sale.Sale),
	}
}

// Save journals a copy of s. Saving an invoice twice keeps the first copy.
func (m *MemoryReceipts) Save(_ context.Context, s *sale.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byInvoice[s.InvoiceNumber]; ok {
		return nil
	}
	c := *s
	c.Items = append([]sale.Item(nil), s.Items...)
	m.byInvoice[s.InvoiceNumber] = c
	m.order = append(m.order, s.InvoiceNumber)

	if m.capacity > 0 && len(m.order) > m.capacity {
		drop := m.order[0]
		m.order = m.order[1:]
		delete(m.byInvoice, drop)
	}
	return nil
}

// FindByInvoice returns the receipt for invoice or sale.ErrReceiptNotFound.
func (m *MemoryReceipts) FindByInvoice(_ context.Context, invoice string) (*sale.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byInvoice[invoice]
	if !ok {
		return nil, sale.ErrReceiptNotFound
	}
	return &s, nil
}

// ListRecent returns up to limit receipts, newest first. A zero storeID
// lists every store.
func (m *MemoryReceipts) ListRecent(_ context.Context, storeID int64, limit int) ([]sale.Sale, error) {
	m.mu.RLock()
	out := make([]sale.Sale, 0, len(m.order))
	for _, inv := range m.order {
		s := m.byInvoice[inv]
		if storeID == 0 || s.StoreID == storeID {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SaleDate.Equal(out[j].SaleDate) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].SaleDate.After(out[j].SaleDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
