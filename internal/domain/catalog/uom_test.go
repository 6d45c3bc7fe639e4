package catalog

import (
	"errors"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beverageUOMs() UOMList {
	return UOMList{
		NewBaseUOM("piece"),
		NewUOM("pack", decimal.NewFromInt(6)),
		NewUOM("case", decimal.NewFromInt(24)),
		NewUOM("gram", decimal.RequireFromString("0.001")),
	}
}

func TestUOMList_ToBase(t *testing.T) {
	list := beverageUOMs()

	t.Run("multiplies by the conversion rate", func(t *testing.T) {
		got, err := list.ToBase(decimal.NewFromInt(3), "case")
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(72)))
	})

	t.Run("base unit converts at 1", func(t *testing.T) {
		got, err := list.ToBase(decimal.NewFromInt(5), "piece")
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(5)))
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		got, err := list.ToBase(decimal.NewFromInt(1), "CASE")
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(24)))
	})

	t.Run("unknown unit is never treated as 1:1", func(t *testing.T) {
		got, err := list.ToBase(decimal.NewFromInt(5), "pallet")
		require.Error(t, err)
		assert.True(t, got.IsZero())
		assert.True(t, errors.Is(err, shared.ErrUnknownUOM))

		var unknown *UnknownUOMError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "pallet", unknown.UOM)
	})
}

func TestUOMList_FromBase(t *testing.T) {
	list := beverageUOMs()

	t.Run("divides by the conversion rate", func(t *testing.T) {
		got, err := list.FromBase(decimal.NewFromInt(48), "case")
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(2)))
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, err := list.FromBase(decimal.NewFromInt(48), "crate")
		assert.ErrorIs(t, err, shared.ErrUnknownUOM)
	})

	t.Run("non-positive rate is rejected instead of dividing", func(t *testing.T) {
		broken := UOMList{NewBaseUOM("piece"), {Name: "ghost", ConversionToBase: decimal.Zero}}
		_, err := broken.FromBase(decimal.NewFromInt(10), "ghost")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidRate)

		var rateErr *InvalidConversionRateError
		require.ErrorAs(t, err, &rateErr)
		assert.Equal(t, "ghost", rateErr.UOM)
	})
}

func TestUOMList_RoundTrip(t *testing.T) {
	list := beverageUOMs()
	tolerance := decimal.RequireFromString("0.000001")
	quantities := []string{"1", "2.5", "7", "0.125", "1000", "13.333"}

	for _, u := range list.Names() {
		for _, q := range quantities {
			qty := decimal.RequireFromString(q)
			base, err := list.ToBase(qty, u)
			require.NoError(t, err)
			back, err := list.FromBase(base, u)
			require.NoError(t, err)
			assert.True(t, back.Sub(qty).Abs().LessThanOrEqual(tolerance), "%s %s round-tripped to %s", q, u, back)
		}
	}
}

func TestUOMList_BetweenComposesThroughBase(t *testing.T) {
	list := beverageUOMs()
	qty := decimal.RequireFromString("3.5")

	for _, from := range list.Names() {
		for _, to := range list.Names() {
			got, err := list.Between(qty, from, to)
			require.NoError(t, err)

			base, err := list.ToBase(qty, from)
			require.NoError(t, err)
			want, err := list.FromBase(base, to)
			require.NoError(t, err)

			assert.True(t, got.Equal(want), "%s -> %s", from, to)
		}
	}

	t.Run("case to pack", func(t *testing.T) {
		got, err := list.Between(decimal.NewFromInt(2), "case", "pack")
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(8)))
	})

	t.Run("unknown source unit", func(t *testing.T) {
		_, err := list.Between(decimal.NewFromInt(2), "pallet", "pack")
		assert.ErrorIs(t, err, shared.ErrUnknownUOM)
	})
}

func TestUOMList_Mutations(t *testing.T) {
	t.Run("add appends a new unit without touching the original", func(t *testing.T) {
		list := beverageUOMs()
		next, err := list.Add(NewUOM("pallet", decimal.NewFromInt(960)))
		require.NoError(t, err)
		assert.Len(t, next, 5)
		assert.Len(t, list, 4)
		assert.True(t, next.Has("pallet"))
	})

	t.Run("add rejects duplicates ignoring case", func(t *testing.T) {
		_, err := beverageUOMs().Add(NewUOM("Case", decimal.NewFromInt(12)))
		assert.ErrorIs(t, err, ErrDuplicateUOM)
	})

	t.Run("add rejects a second base", func(t *testing.T) {
		_, err := beverageUOMs().Add(NewBaseUOM("unit"))
		assert.ErrorIs(t, err, ErrBaseUOMImmutable)
	})

	t.Run("add rejects non-positive rate", func(t *testing.T) {
		_, err := beverageUOMs().Add(NewUOM("crate", decimal.NewFromInt(-2)))
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
	})

	t.Run("remove drops a unit", func(t *testing.T) {
		next, err := beverageUOMs().Remove("pack")
		require.NoError(t, err)
		assert.False(t, next.Has("pack"))
		assert.Equal(t, []string{"piece", "case", "gram"}, next.Names())
	})

	t.Run("remove refuses the base unit", func(t *testing.T) {
		_, err := beverageUOMs().Remove("piece")
		assert.ErrorIs(t, err, ErrBaseUOMImmutable)
	})

	t.Run("remove unknown unit", func(t *testing.T) {
		_, err := beverageUOMs().Remove("pallet")
		assert.ErrorIs(t, err, shared.ErrUnknownUOM)
	})

	t.Run("update re-rates a unit", func(t *testing.T) {
		next, err := beverageUOMs().Update("case", decimal.NewFromInt(12))
		require.NoError(t, err)
		u, err := next.Find("case")
		require.NoError(t, err)
		assert.True(t, u.ConversionToBase.Equal(decimal.NewFromInt(12)))
	})

	t.Run("update cannot move the base rate away from 1", func(t *testing.T) {
		_, err := beverageUOMs().Update("piece", decimal.NewFromInt(2))
		assert.ErrorIs(t, err, ErrBaseUOMImmutable)

		_, err = beverageUOMs().Update("piece", decimal.NewFromInt(1))
		assert.NoError(t, err)
	})

	t.Run("update rejects zero rate", func(t *testing.T) {
		_, err := beverageUOMs().Update("case", decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
	})
}

func TestUOMList_Validate(t *testing.T) {
	tests := []struct {
		name    string
		list    UOMList
		base    string
		wantErr error
	}{
		{name: "valid", list: beverageUOMs(), base: "piece"},
		{name: "empty", list: UOMList{}, base: "piece", wantErr: ErrInvalidUOMList},
		{name: "no base", list: UOMList{NewUOM("case", decimal.NewFromInt(24))}, base: "piece", wantErr: ErrInvalidUOMList},
		{name: "two bases", list: UOMList{NewBaseUOM("piece"), NewBaseUOM("unit")}, base: "piece", wantErr: ErrInvalidUOMList},
		{name: "base rate not 1", list: UOMList{{Name: "piece", ConversionToBase: decimal.NewFromInt(2), IsBase: true}}, base: "piece", wantErr: ErrInvalidUOMList},
		{name: "base name mismatch", list: UOMList{NewBaseUOM("piece")}, base: "kg", wantErr: ErrInvalidUOMList},
		{name: "duplicate", list: UOMList{NewBaseUOM("piece"), NewUOM("box", decimal.NewFromInt(2)), NewUOM("BOX", decimal.NewFromInt(3))}, base: "piece", wantErr: ErrDuplicateUOM},
		{name: "zero rate", list: UOMList{NewBaseUOM("piece"), NewUOM("box", decimal.Zero)}, base: "piece", wantErr: shared.ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate(tt.base)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
