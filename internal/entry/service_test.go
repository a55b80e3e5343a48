package entry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockparts/internal/memory"
	"github.com/mesh-intelligence/stockparts/internal/metrics"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

// recordingStore wraps a memory store and counts inserts, optionally
// failing every call with err.
type recordingStore struct {
	*memory.Store
	inserts int
	err     error
}

func (r *recordingStore) Insert(ctx context.Context, e types.PartEntry) (types.PartEntry, error) {
	r.inserts++
	if r.err != nil {
		return types.PartEntry{}, r.err
	}
	return r.Store.Insert(ctx, e)
}

func (r *recordingStore) ListAll(ctx context.Context) ([]types.PartEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.Store.ListAll(ctx)
}

func (r *recordingStore) CountForKey(ctx context.Context, sku string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.Store.CountForKey(ctx, sku)
}

func newRecording(policy types.Policy) *recordingStore {
	return &recordingStore{Store: memory.New(policy)}
}

func TestSubmitSequenceScenario(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(types.PolicySequence))

	first, err := svc.Submit(ctx, types.PartEntry{SKU: "999.000.932", Manufacturer: "Siemens", ManufacturerPartNumber: "L24DF3"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Entry.Sequence)
	assert.NotEmpty(t, first.SubmissionID)

	second, err := svc.Submit(ctx, types.PartEntry{SKU: "999.000.932", Manufacturer: "Schneider", ManufacturerPartNumber: "X9"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Entry.Sequence)
	assert.Equal(t, "Data saved successfully! SKU 999.000.932 entry #2.", second.Message())
	assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
}

func TestSubmitDuplicateFlagScenario(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewService(memory.New(types.PolicyDuplicateFlag), WithMetrics(m))

	first, err := svc.Submit(ctx, types.PartEntry{SKU: "999.000.932", Manufacturer: "Siemens", ManufacturerPartNumber: "L24DF3"})
	require.NoError(t, err)
	assert.False(t, first.Entry.Duplicate)
	assert.Contains(t, first.Message(), "is new")

	second, err := svc.Submit(ctx, types.PartEntry{SKU: " 999.000.932 ", Manufacturer: "Schneider", ManufacturerPartNumber: "X9"})
	require.NoError(t, err)
	assert.True(t, second.Entry.Duplicate)
	assert.Equal(t, "999.000.932", second.Entry.SKU, "stored SKU is trimmed")
	assert.Contains(t, second.Message(), "duplicate")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesDetected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeSaved)))
}

func TestSubmitValidationPerformsNoWrites(t *testing.T) {
	ctx := context.Background()
	inputs := []types.PartEntry{
		{Manufacturer: "Siemens", ManufacturerPartNumber: "L24DF3"},
		{SKU: "999.000.932", ManufacturerPartNumber: "L24DF3"},
		{SKU: "999.000.932", Manufacturer: "Siemens"},
		{SKU: "   ", Manufacturer: "Siemens", ManufacturerPartNumber: "L24DF3"},
		{},
	}
	for _, in := range inputs {
		store := newRecording(types.PolicySequence)
		svc := NewService(store)

		_, err := svc.Submit(ctx, in)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrValidation)
		assert.Equal(t, "Please fill in all fields.", UserMessage(err))
		assert.Zero(t, store.inserts, "validation failure must not reach the store")
	}
}

func TestSubmitStoreFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("dial tcp: connection refused")
	store := newRecording(types.PolicySequence)
	store.err = boom
	svc := NewService(store)

	_, err := svc.Submit(ctx, types.PartEntry{SKU: "a", Manufacturer: "b", ManufacturerPartNumber: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.inserts)
	assert.Contains(t, UserMessage(err), "Database error")
}

func TestListAndCountFailClosed(t *testing.T) {
	ctx := context.Background()
	store := newRecording(types.PolicySequence)
	store.err = errors.New("timeout")
	svc := NewService(store)

	rows, err := svc.List(ctx)
	assert.Error(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	n, err := svc.Count(ctx, "x")
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestDisabledService(t *testing.T) {
	ctx := context.Background()
	svc := NewDisabledService(types.PolicySequence, types.ErrSecretsMissing)

	assert.False(t, svc.Writable())
	assert.Contains(t, svc.Notice(), "cannot be saved")

	_, err := svc.Submit(ctx, types.PartEntry{SKU: "a", Manufacturer: "b", ManufacturerPartNumber: "c"})
	assert.ErrorIs(t, err, types.ErrWritesDisabled)
	assert.Contains(t, UserMessage(err), "not configured")

	// Validation still runs first.
	_, err = svc.Submit(ctx, types.PartEntry{})
	assert.ErrorIs(t, err, types.ErrValidation)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUnavailableService(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connect to db.local: connection refused")
	svc := NewUnavailableService(types.PolicyDuplicateFlag, cause)

	assert.False(t, svc.Writable())
	assert.Contains(t, svc.Notice(), "connection refused")
	assert.Equal(t, types.PolicyDuplicateFlag, svc.Policy())

	_, err := svc.Submit(ctx, types.PartEntry{SKU: "a", Manufacturer: "b", ManufacturerPartNumber: "c"})
	assert.ErrorIs(t, err, types.ErrUnavailable)
	assert.NotErrorIs(t, err, types.ErrWritesDisabled)
	assert.Contains(t, UserMessage(err), "connection refused")

	_, err = svc.Submit(ctx, types.PartEntry{SKU: "a"})
	assert.ErrorIs(t, err, types.ErrValidation, "validation still runs first")

	rows, err := svc.List(ctx)
	assert.ErrorIs(t, err, types.ErrUnavailable)
	assert.NotNil(t, rows)

	_, err = svc.Preview(ctx, "a")
	assert.ErrorIs(t, err, types.ErrUnavailable)
	assert.NoError(t, svc.Close())
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(types.PolicySequence))

	d, err := svc.Preview(ctx, "999.000.932")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Sequence)

	_, err = svc.Submit(ctx, types.PartEntry{SKU: "999.000.932", Manufacturer: "Siemens", ManufacturerPartNumber: "L24DF3"})
	require.NoError(t, err)

	d, err = svc.Preview(ctx, "999.000.932")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Sequence)

	n, err := svc.Count(ctx, "999.000.932")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserMessageNil(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Contains(t, UserMessage(types.ErrStoreClosed), "closed")
}
