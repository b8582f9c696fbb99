package sale

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// JournalingRecorder submits sales through the wrapped Recorder and keeps a
// local receipt for every confirmed sale.
type JournalingRecorder struct {
	next     Recorder
	receipts ReceiptRepository
}

var _ Recorder = (*JournalingRecorder)(nil)

// NewJournalingRecorder wraps next with receipt journaling.
func NewJournalingRecorder(next Recorder, receipts ReceiptRepository) *JournalingRecorder {
	return &JournalingRecorder{next: next, receipts: receipts}
}

// RecordSale submits req. A journal write failure is logged and does not
// fail the sale: the backend already committed it.
func (r *JournalingRecorder) RecordSale(ctx context.Context, req Request) (*Sale, error) {
	s, err := r.next.RecordSale(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := r.receipts.Save(ctx, s); err != nil {
		zctx.From(ctx).Warn("Receipt journal write failed",
			zap.String("invoice", s.InvoiceNumber),
			zap.Error(err),
		)
	}
	return s, nil
}
