package service

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/NEhIL06/Ecosap/model"
)

func filledMask(width, height, count int) *model.Mask {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	for i := 0; i < count; i++ {
		grid[i/width][i%width] = 1
	}
	return model.MaskFromGrid(grid)
}

func TestMeasure_SingleMask(t *testing.T) {
	result := Measure([]*model.Mask{filledMask(50, 50, 1000)}, 0.45)

	require.Equal(t, 1, result.TotalTrees)
	require.Len(t, result.Trees, 1)

	tree := result.Trees[0]
	require.Equal(t, 1, tree.TreeID)
	require.Equal(t, 1000, tree.AreaPx)
	require.Equal(t, 202.5, tree.AreaM2)

	diameter := 2 * math.Sqrt(202.5/math.Pi)
	require.InDelta(t, diameter, tree.DiameterM, 0.005)
	require.InDelta(t, math.Pi*diameter, tree.CircumferenceM, 0.005)
	require.Equal(t, 16.06, tree.DiameterM)
	require.Equal(t, 50.44, tree.CircumferenceM)

	require.Equal(t, 202.5, result.TotalAreaM2)
	require.Equal(t, 202.5, result.AverageAreaM2)
	require.Equal(t, 0.45, result.GSD)
}

func TestMeasure_Empty(t *testing.T) {
	for _, masks := range [][]*model.Mask{nil, {}} {
		result := Measure(masks, 0.45)
		require.Equal(t, 0, result.TotalTrees)
		require.Equal(t, 0.0, result.TotalAreaM2)
		require.Equal(t, 0.0, result.TotalCircumferenceM)
		require.Equal(t, 0.0, result.AverageAreaM2)
		require.NotNil(t, result.Trees)
		require.Empty(t, result.Trees)
	}
}

func TestMeasureAreas_Aggregates(t *testing.T) {
	areas := []int{1000, 250, 4, 0, 12345}
	gsd := 0.3
	result := MeasureAreas(areas, gsd)

	var rawArea, rawCirc float64
	for i, tree := range result.Trees {
		require.Equal(t, i+1, tree.TreeID)
		require.Equal(t, areas[i], tree.AreaPx)

		a := float64(areas[i]) * gsd * gsd
		rawArea += a
		rawCirc += math.Pi * 2 * math.Sqrt(a/math.Pi)
	}

	require.Equal(t, len(areas), result.TotalTrees)
	require.InDelta(t, rawArea, result.TotalAreaM2, 0.005+1e-9)
	require.InDelta(t, rawCirc, result.TotalCircumferenceM, 0.005+1e-9)
	require.InDelta(t, result.TotalAreaM2/float64(result.TotalTrees), result.AverageAreaM2, 0.01)
}

func TestMeasureAreas_TotalsSummedBeforeRounding(t *testing.T) {
	// 每个 1px 在 gsd=0.1 下面积 0.01 m²，周长 0.3545 m
	areas := make([]int, 100)
	for i := range areas {
		areas[i] = 1
	}
	result := MeasureAreas(areas, 0.1)

	require.Equal(t, 1.0, result.TotalAreaM2)
	require.Equal(t, 0.35, result.Trees[0].CircumferenceM)
	require.Equal(t, 35.45, result.TotalCircumferenceM)
}

func TestMeasureAreas_HalfEvenRounding(t *testing.T) {
	result := MeasureAreas([]int{250}, 0.45)
	require.Equal(t, 50.62, result.Trees[0].AreaM2)
}

func TestMeasureAreas_RoundsExactBinaryValue(t *testing.T) {
	// px ≡ 2 (mod 4) 在 gsd 0.45 下十进制恰为 xx.xx5，按二进制精确值舍入
	tests := []struct {
		px   int
		want float64
	}{
		{2, 0.41},
		{14, 2.83},
		{6, 1.22},
		{250, 50.62},
	}

	for _, tt := range tests {
		result := MeasureAreas([]int{tt.px}, 0.45)
		require.Equal(t, tt.want, result.Trees[0].AreaM2, "px=%d", tt.px)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.12},
		{0.375, 0.38},
		{2.675, 2.67},
		{1.005, 1.0},
		{-0.125, -0.12},
		{16.057, 16.06},
		{0, 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, round2(tt.in), "in=%v", tt.in)
	}
}

func TestMeasure_PreservesOrder(t *testing.T) {
	masks := []*model.Mask{filledMask(10, 10, 30), filledMask(10, 10, 5), filledMask(10, 10, 70)}
	result := Measure(masks, 1)

	require.Equal(t, []int{30, 5, 70}, []int{result.Trees[0].AreaPx, result.Trees[1].AreaPx, result.Trees[2].AreaPx})
	require.Equal(t, []int{1, 2, 3}, []int{result.Trees[0].TreeID, result.Trees[1].TreeID, result.Trees[2].TreeID})
}

func TestMeasure_Idempotent(t *testing.T) {
	masks := []*model.Mask{filledMask(40, 40, 777), filledMask(40, 40, 1234)}
	first := Measure(masks, 0.45)
	second := Measure(masks, 0.45)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Measure not idempotent (-first +second):\n%s", diff)
	}
	require.Equal(t, 777, masks[0].Area())
}

func TestMeasure_MatchesMeasureAreas(t *testing.T) {
	masks := []*model.Mask{filledMask(40, 40, 777), filledMask(40, 40, 12)}
	if diff := cmp.Diff(MeasureAreas([]int{777, 12}, 0.2), Measure(masks, 0.2)); diff != "" {
		t.Fatalf("mismatch (-areas +masks):\n%s", diff)
	}
}

func TestParseGSD(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{"empty uses default", "", 0.45, false},
		{"whitespace uses default", "  ", 0.45, false},
		{"decimal", "0.12", 0.12, false},
		{"integer", "2", 2, false},
		{"scientific", "5e-2", 0.05, false},
		{"zero", "0", 0, true},
		{"negative", "-0.3", 0, true},
		{"not a number", "abc", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "+Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGSD(tt.raw, 0.45)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidGSD)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
