package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

func TestParseClassFilter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "hole", want: []string{"hole"}},
		{raw: " hole , stain ", want: []string{"hole", "stain"}},
		{raw: "hole,,stain,", want: []string{"hole", "stain"}},
		{raw: " , ,", want: nil},
		{raw: " , ", want: nil},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, usecase.ParseClassFilter(tc.raw), "raw %q", tc.raw)
	}
}

// TestFilterByClasses_SeparatorOnlyFilter は区切り文字だけのフィルタ指定が
// フィルタなしとして扱われ、全検出が残ることを検証します。
func TestFilterByClasses_SeparatorOnlyFilter(t *testing.T) {
	t.Parallel()

	dets := []entity.Detection{
		{Class: entity.ClassHole, Score: 0.9},
		{Class: entity.ClassOther, Score: 0.4},
	}

	got, discarded := usecase.FilterByClasses(dets, usecase.ParseClassFilter(" , "))
	assert.Equal(t, dets, got)
	assert.Zero(t, discarded)
}

func TestFilterByClasses(t *testing.T) {
	t.Parallel()

	dets := []entity.Detection{
		{Class: entity.ClassHole, Score: 0.9},
		{Class: entity.ClassStain, Score: 0.8},
	}

	testCases := []struct {
		name          string
		filter        []string
		wantClasses   []entity.Class
		wantDiscarded int
	}{
		{name: "single class", filter: []string{"hole"}, wantClasses: []entity.Class{entity.ClassHole}, wantDiscarded: 1},
		{name: "empty filter is a no-op", filter: nil, wantClasses: []entity.Class{entity.ClassHole, entity.ClassStain}, wantDiscarded: 0},
		{name: "empty slice is a no-op", filter: []string{}, wantClasses: []entity.Class{entity.ClassHole, entity.ClassStain}, wantDiscarded: 0},
		{name: "unknown names match nothing", filter: []string{"dog"}, wantClasses: []entity.Class{}, wantDiscarded: 2},
		{name: "all classes", filter: []string{"stain", "hole"}, wantClasses: []entity.Class{entity.ClassHole, entity.ClassStain}, wantDiscarded: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, discarded := usecase.FilterByClasses(dets, tc.filter)
			classes := make([]entity.Class, 0, len(got))
			for _, d := range got {
				classes = append(classes, d.Class)
			}
			assert.Equal(t, tc.wantClasses, classes)
			assert.Equal(t, tc.wantDiscarded, discarded)
			assert.Equal(t, len(dets), len(got)+discarded)
		})
	}
}
