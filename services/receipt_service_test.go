package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusride/transport_portal/database/inmem"
	"github.com/campusride/transport_portal/fees"
	"github.com/campusride/transport_portal/models"
	"github.com/campusride/transport_portal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiptBackend struct {
	html     string
	renders  int
	publicID string
	failWith error
}

func (f *fakeReceiptBackend) service(store *inmem.PaymentStore) *services.ReceiptService {
	svc := services.NewReceiptService(store)
	svc.Now = func() time.Time { return july2025 }
	svc.RenderPDF = func(_ context.Context, html string) ([]byte, error) {
		f.renders++
		f.html = html
		return []byte("%PDF-1.4"), f.failWith
	}
	svc.Upload = func(_ context.Context, _ []byte, publicID string) (string, error) {
		f.publicID = publicID
		return "https://cdn.example.com/" + publicID + ".pdf", nil
	}
	return svc
}

func TestReceipt_GeneratesOnceAndCaches(t *testing.T) {
	f := newFixture(t, 20000, 20000)
	res, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeTerm, fees.Term1))
	require.NoError(t, err)

	backend := &fakeReceiptBackend{}
	svc := backend.service(f.store)

	receipt, err := svc.Receipt(context.Background(), res.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, receipt.ReceiptURL)
	assert.Equal(t, res.ReceiptNumber, receipt.ReceiptNumber)
	assert.Equal(t, "receipts/"+res.ReceiptNumber, backend.publicID)
	assert.Contains(t, backend.html, "Asha Kumar")
	assert.Contains(t, backend.html, "Term 1 (June - September) 2025-26")
	assert.Contains(t, backend.html, "6667.00")

	_, err = svc.Receipt(context.Background(), res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.renders)
}

func TestReceipt_BackfillsMissingReceiptRow(t *testing.T) {
	f := newFixture(t, 20000, 20000)
	p := f.store.AddSemesterPayment(models.SemesterPayment{
		StudentID:     f.student.ID,
		AcademicYear:  "2025-26",
		PaymentType:   fees.TypeFullYear,
		CoversTerms:   fees.AllTerms,
		AmountPaid:    20000,
		PaymentStatus: models.PaymentStatusConfirmed,
		ReceiptColor:  "green",
		ValidFrom:     time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
	})

	backend := &fakeReceiptBackend{}
	receipt, err := backend.service(f.store).Receipt(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^TR-2025-`, receipt.ReceiptNumber)
	assert.Equal(t, "green", receipt.ReceiptColor)
	assert.Len(t, f.store.Receipts, 1)
}

func TestReceipt_Errors(t *testing.T) {
	f := newFixture(t, 20000, 20000)
	backend := &fakeReceiptBackend{failWith: errors.New("chrome not found")}
	svc := backend.service(f.store)

	_, err := svc.Receipt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)

	res, err := f.svc.CreatePayment(context.Background(), f.input(fees.TypeTerm, fees.Term2))
	require.NoError(t, err)
	_, err = svc.Receipt(context.Background(), res.PaymentID)
	assert.ErrorContains(t, err, "chrome not found")
	assert.Nil(t, f.store.Receipts[0].ReceiptURL)
}
