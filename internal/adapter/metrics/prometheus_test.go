package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custodial-ledger/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_ObserveOperation(t *testing.T) {
	p := NewPrometheus()

	p.ObserveOperation("release", "ok")
	p.ObserveOperation("release", "ok")
	p.ObserveOperation("release", "error")

	assert.Equal(t, float64(2), testutil.ToFloat64(p.operations.WithLabelValues("release", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.operations.WithLabelValues("release", "error")))
}

func TestPrometheus_ObserveCredit(t *testing.T) {
	p := NewPrometheus()

	p.ObserveCredit(domain.EntryKindDeposit, decimal.RequireFromString("12.5"))
	p.ObserveCredit(domain.EntryKindDeposit, decimal.Zero)
	p.ObserveCredit(domain.EntryKindDeposit, decimal.RequireFromString("-3"))

	assert.InDelta(t, 12.5, testutil.ToFloat64(p.credited.WithLabelValues(string(domain.EntryKindDeposit))), 1e-9)
}

func TestPrometheus_ObserveCycle(t *testing.T) {
	p := NewPrometheus()

	p.ObserveCycle(250*time.Millisecond, 7, 2)
	p.ObserveCycle(100*time.Millisecond, 5, 1)

	assert.Equal(t, float64(5), testutil.ToFloat64(p.wallets))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.failures))
	assert.Equal(t, 1, testutil.CollectAndCount(p.cycle))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.ObserveOperation("freeze", "ok")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `custodial_ledger_operations_total{operation="freeze",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNoop(t *testing.T) {
	var n Noop
	n.ObserveOperation("release", "ok")
	n.ObserveCredit(domain.EntryKindDeposit, decimal.NewFromInt(1))
	n.ObserveCycle(time.Second, 1, 0)
}
