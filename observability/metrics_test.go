package observability

import (
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	m.Observe("sale", "sale_deposit", http.StatusOK, time.Millisecond)
	m.Observe("sale", "sale_deposit", http.StatusUnprocessableEntity, time.Millisecond)
	m.RecordThrottle("", "")

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("sale", "sale_deposit", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("sale", "sale_deposit", "422")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")))
}

func TestLedgerMetrics(t *testing.T) {
	m := Ledger()
	m.ObserveOperation("issue_linkdrop", "", time.Millisecond)
	m.ObserveOperation("issue_linkdrop", "TokenAlreadyIssued", time.Millisecond)
	m.RecordReferral("linkdrop")
	m.RecordDeposit("usdc.near", big.NewInt(250))
	m.RecordDeposit("usdc.near", big.NewInt(-1))
	m.RecordDeposit("usdc.near", nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("issue_linkdrop", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("issue_linkdrop", "TokenAlreadyIssued")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.referrals.WithLabelValues("linkdrop")))
	require.Equal(t, 250.0, testutil.ToFloat64(m.deposited.WithLabelValues("usdc.near")))
}
