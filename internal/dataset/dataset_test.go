package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func val(s string) Value { return Value{Valid: true, Str: s} }

func TestNew(t *testing.T) {
	ds, err := New(
		[]Column{{Name: "a", Kind: KindString}, {Name: "b", Kind: KindFloat}},
		[][]Value{{val("x"), {Valid: true, Num: 1}}},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	i, ok := ds.Column("b")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ds.Column("missing")
	assert.False(t, ok)
}

func TestNew_DuplicateColumn(t *testing.T) {
	_, err := New([]Column{{Name: "a"}, {Name: "a"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestNew_RowWidthMismatch(t *testing.T) {
	_, err := New(
		[]Column{{Name: "a"}, {Name: "b"}},
		[][]Value{{val("only one cell")}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestDistinct(t *testing.T) {
	ds, err := New(
		[]Column{{Name: ColVehicleType, Kind: KindString}},
		[][]Value{{val("SUV")}, {val("Bike")}, {val("SUV")}, {{}}, {val("Auto")}},
	)
	require.NoError(t, err)

	got, err := ds.Distinct(ColVehicleType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Auto", "Bike", "SUV"}, got, "sorted, deduplicated, NULLs excluded")
}

func TestDistinct_UnknownColumn(t *testing.T) {
	ds, err := New([]Column{{Name: "a"}}, nil)
	require.NoError(t, err)

	_, err = ds.Distinct("nope")
	var unknownErr *UnknownColumnError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "nope", unknownErr.Column)
}

func TestValidate(t *testing.T) {
	cols := make([]Column, 0, len(RequiredColumns()))
	for _, name := range RequiredColumns() {
		cols = append(cols, Column{Name: name})
	}
	ds, err := New(cols, nil)
	require.NoError(t, err)
	assert.NoError(t, ds.Validate())
}

func TestValidate_MissingRequiredColumn(t *testing.T) {
	ds, err := New([]Column{{Name: ColVehicleType}, {Name: ColPaymentMethod}}, nil)
	require.NoError(t, err)

	err = ds.Validate()
	var unknownErr *UnknownColumnError
	require.True(t, errors.As(err, &unknownErr))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "", Value{}.String())
	assert.Equal(t, "SUV", val("SUV").String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "time", KindTime.String())
}
