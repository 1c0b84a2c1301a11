package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-telecom/pdf-parser/internal/cache"
	"github.com/k-telecom/pdf-parser/internal/document"
	"github.com/k-telecom/pdf-parser/internal/extract"
)

const sampleReceiptText = `Кассовый чек
АО "ТАНДЕР"
ИНН: 2310031475
Дата: 27.09.2025
ИТОГО: 692.88
Телефон: +7 (861) 210-98-10
`

func newTestInvoiceService(t *testing.T, opts ...InvoiceOption) *InvoiceService {
	t.Helper()
	return NewInvoiceService(document.NewFactory(nil), extract.New(), opts...)
}

func TestProcessBytesText(t *testing.T) {
	svc := newTestInvoiceService(t)

	outcome := svc.ProcessBytes(context.Background(), []byte(sampleReceiptText), "receipt.txt")
	require.True(t, outcome.OK())
	assert.Equal(t, "2310031475", outcome.Record.INN)
	assert.Equal(t, "27.09.2025", outcome.Record.Date)
	assert.True(t, outcome.Record.Total.IsNumber())
	assert.InDelta(t, 692.88, outcome.Record.Total.Number(), 1e-9)
}

func TestProcessBytesUnsupportedType(t *testing.T) {
	svc := newTestInvoiceService(t)

	outcome := svc.ProcessBytes(context.Background(), []byte("data"), "photo.png")
	require.False(t, outcome.OK())
	assert.Equal(t, "unsupported document type", outcome.Failure.Error)
}

func TestProcessBytesEmptyDocument(t *testing.T) {
	svc := newTestInvoiceService(t)

	outcome := svc.ProcessBytes(context.Background(), []byte("   "), "empty.txt")
	require.False(t, outcome.OK())
	assert.Equal(t, "failed to extract text from document", outcome.Failure.Error)
}

func TestProcessBytesUsesCache(t *testing.T) {
	c, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	svc := newTestInvoiceService(t, WithCache(c, time.Hour))

	first := svc.ProcessBytes(context.Background(), []byte(sampleReceiptText), "a.txt")
	require.True(t, first.OK())

	// the entry must exist under the text hash
	_, found, err := c.Get(cache.ResultKey(sampleReceiptText))
	require.NoError(t, err)
	assert.True(t, found)

	// a different filename with identical content hits the same entry
	second := svc.ProcessBytes(context.Background(), []byte(sampleReceiptText), "b.txt")
	require.True(t, second.OK())
	assert.Equal(t, first.Record.INN, second.Record.INN)
}

func TestProcessBytesDoesNotCacheFailures(t *testing.T) {
	c, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	svc := newTestInvoiceService(t, WithCache(c, time.Hour))

	outcome := svc.ProcessBytes(context.Background(), []byte("   "), "empty.txt")
	require.False(t, outcome.OK())

	_, found, err := c.Get(cache.ResultKey("   "))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProcessBatchIndexAligned(t *testing.T) {
	svc := newTestInvoiceService(t, WithWorkers(2))

	docs := []BatchDocument{
		{Data: []byte(sampleReceiptText), Filename: "good-1.txt"},
		{Data: []byte("x"), Filename: "too-short.txt"},
		{Data: []byte(sampleReceiptText), Filename: "good-2.txt"},
		{Data: []byte("data"), Filename: "bad.png"},
	}

	results := svc.ProcessBatch(context.Background(), docs)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	assert.False(t, results[3].OK())
	assert.Equal(t, "unsupported document type", results[3].Failure.Error)
}

func TestProcessBatchSkipsPlaceholderEntries(t *testing.T) {
	svc := newTestInvoiceService(t, WithWorkers(2))

	// a caller that rejected an upload up front leaves a zero-valued
	// entry at its position; that slot must not reach the extractor
	docs := []BatchDocument{
		{Data: []byte(sampleReceiptText), Filename: "good.txt"},
		{},
		{Data: []byte(sampleReceiptText), Filename: "also-good.txt"},
	}

	results := svc.ProcessBatch(context.Background(), docs)
	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.True(t, results[2].OK())

	// the placeholder slot stays untouched: neither a record nor an
	// error record is fabricated for it
	assert.Nil(t, results[1].Record)
	assert.Nil(t, results[1].Failure)
}

func TestProcessBytesTimeout(t *testing.T) {
	svc := newTestInvoiceService(t, WithTimeout(time.Nanosecond))

	outcome := svc.ProcessBytes(context.Background(), []byte(sampleReceiptText), "receipt.txt")
	require.False(t, outcome.OK())
	assert.Equal(t, "failed to process document", outcome.Failure.Error)
	assert.Contains(t, outcome.Failure.Details, "timed out")
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestInvoiceService(t)
	results := svc.ProcessBatch(context.Background(), nil)
	assert.Empty(t, results)
}
