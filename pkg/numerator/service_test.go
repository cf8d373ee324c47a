package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqRow struct{ n *int64 }

func (r seqRow) Scan(dest ...any) error {
	*r.n++
	*(dest[0].(*int64)) = *r.n
	return nil
}

// fakeQuerier counts calls per sequence key, mimicking the UPSERT+RETURNING.
type fakeQuerier struct {
	counters map[string]*int64
	lastKey  string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{counters: make(map[string]*int64)}
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	key := args[0].(string)
	q.lastKey = key
	if _, ok := q.counters[key]; !ok {
		var n int64
		q.counters[key] = &n
	}
	return seqRow{n: q.counters[key]}
}

func TestGetNextNumber(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	period := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), period)
	require.NoError(t, err)
	assert.Equal(t, "VTA-2026-00001", first)
	assert.Equal(t, "VTA_2026", querier.lastKey)

	second, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), period)
	require.NoError(t, err)
	assert.Equal(t, "VTA-2026-00002", second)
}

func TestGetNextNumberIndependentPrefixes(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	period := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	sale, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), period)
	require.NoError(t, err)
	run, err := svc.GetNextNumber(context.Background(), DefaultConfig("NOM"), period)
	require.NoError(t, err)

	assert.Equal(t, "VTA-2026-00001", sale)
	assert.Equal(t, "NOM-2026-00001", run)
}

func TestGetNextNumberYearReset(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)

	in2026, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	in2027, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Each year gets its own sequence key, so numbering restarts at 1.
	assert.Equal(t, "VTA-2026-00001", in2026)
	assert.Equal(t, "VTA-2027-00001", in2027)
}

func TestGetNextNumberMonthlyKey(t *testing.T) {
	querier := newFakeQuerier()
	svc := New(querier)
	cfg := Config{Prefix: "TCK", IncludeYear: false, PadWidth: 4, ResetPeriod: "month"}

	got, err := svc.GetNextNumber(context.Background(), cfg, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "TCK-0001", got)
	assert.Equal(t, "TCK_2026_03", querier.lastKey)
}

func TestGetNextNumberNilService(t *testing.T) {
	var svc *Service
	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("VTA"), time.Now())
	require.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("VTA-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("TCK-0007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
