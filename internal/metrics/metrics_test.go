package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecordInvoiceCreated(t *testing.T) {
	interBefore := testutil.ToFloat64(InvoicesCreated.WithLabelValues("inter"))
	intraBefore := testutil.ToFloat64(InvoicesCreated.WithLabelValues("intra"))
	totalBefore := testutil.ToFloat64(InvoiceGrandTotal)

	RecordInvoiceCreated(true, decimal.NewFromInt(1180))
	RecordInvoiceCreated(false, decimal.NewFromInt(20))

	assert.Equal(t, interBefore+1, testutil.ToFloat64(InvoicesCreated.WithLabelValues("inter")))
	assert.Equal(t, intraBefore+1, testutil.ToFloat64(InvoicesCreated.WithLabelValues("intra")))
	assert.InDelta(t, totalBefore+1200, testutil.ToFloat64(InvoiceGrandTotal), 0.001)
}
