package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rideboard/internal/dataset"
)

func str(s string) dataset.Value {
	return dataset.Value{Valid: true, Str: s}
}

// newTestDataset builds a small two-column categorical dataset.
func newTestDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]dataset.Column{
			{Name: "vehicle_type", Kind: dataset.KindString},
			{Name: "payment_method", Kind: dataset.KindString},
		},
		[][]dataset.Value{
			{str("SUV"), str("Card")},
			{str("Bike"), str("Cash")},
			{str("SUV"), str("Cash")},
			{str("Sedan"), str("UPI")},
			{str("Bike"), str("Card")},
		},
	)
	require.NoError(t, err)
	return ds
}

func TestApply_EmptySpecIsIdentity(t *testing.T) {
	ds := newTestDataset(t)

	for _, spec := range []Spec{
		nil,
		{},
		{"vehicle_type": nil},
		{"vehicle_type": {}, "payment_method": {}},
	} {
		view, err := Apply(ds, spec)
		require.NoError(t, err)
		assert.Equal(t, ds.Len(), view.Len())
	}
}

func TestApply_SingleColumnDisjunction(t *testing.T) {
	ds := newTestDataset(t)

	view, err := Apply(ds, Spec{"vehicle_type": {"SUV", "Sedan"}})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Len())

	col, _ := view.Column("vehicle_type")
	for i := 0; i < view.Len(); i++ {
		v := view.Cell(i, col).Str
		assert.Contains(t, []string{"SUV", "Sedan"}, v)
	}
}

func TestApply_ConjunctionAcrossColumns(t *testing.T) {
	ds := newTestDataset(t)

	view, err := Apply(ds, Spec{
		"vehicle_type":   {"SUV"},
		"payment_method": {"Cash"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, view.Len())

	vt, _ := view.Column("vehicle_type")
	pm, _ := view.Column("payment_method")
	assert.Equal(t, "SUV", view.Cell(0, vt).Str)
	assert.Equal(t, "Cash", view.Cell(0, pm).Str)
}

func TestApply_PreservesSourceOrder(t *testing.T) {
	ds := newTestDataset(t)

	view, err := Apply(ds, Spec{"vehicle_type": {"Bike"}})
	require.NoError(t, err)
	require.Equal(t, 2, view.Len())

	// Bikes appear at source rows 1 and 4; the view must keep that order.
	pm, _ := view.Column("payment_method")
	assert.Equal(t, "Cash", view.Cell(0, pm).Str)
	assert.Equal(t, "Card", view.Cell(1, pm).Str)
}

func TestApply_ViewNeverLargerThanDataset(t *testing.T) {
	ds := newTestDataset(t)

	for _, spec := range []Spec{
		{"vehicle_type": {"SUV"}},
		{"vehicle_type": {"SUV", "Bike", "Sedan"}},
		{"payment_method": {"nonexistent"}},
	} {
		view, err := Apply(ds, spec)
		require.NoError(t, err)
		assert.LessOrEqual(t, view.Len(), ds.Len())
	}
}

func TestApply_NoMatches(t *testing.T) {
	ds := newTestDataset(t)

	view, err := Apply(ds, Spec{"vehicle_type": {"Helicopter"}})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Len())
}

func TestApply_UnknownColumnIsFatal(t *testing.T) {
	ds := newTestDataset(t)

	_, err := Apply(ds, Spec{"no_such_column": {"x"}})
	require.Error(t, err)

	var unknown *dataset.UnknownColumnError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "no_such_column", unknown.Column)
}

func TestApply_UnknownColumnWithEmptySetStillFatal(t *testing.T) {
	// Even an unconstraining filter key must name a real column; a typo
	// here is a configuration bug, not a no-op.
	ds := newTestDataset(t)

	_, err := Apply(ds, Spec{"no_such_column": {}})
	require.Error(t, err)
}

func TestAll_CoversEveryRow(t *testing.T) {
	ds := newTestDataset(t)
	view := All(ds)
	assert.Equal(t, ds.Len(), view.Len())
}

func TestApply_NullCellNeverMatches(t *testing.T) {
	ds, err := dataset.New(
		[]dataset.Column{{Name: "vehicle_type", Kind: dataset.KindString}},
		[][]dataset.Value{
			{str("SUV")},
			{{}}, // NULL
		},
	)
	require.NoError(t, err)

	view, err := Apply(ds, Spec{"vehicle_type": {"SUV", ""}})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Len())
}
