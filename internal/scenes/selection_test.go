package scenes_test

import (
	"errors"
	"testing"

	"storyreel/internal/scenes"
	"storyreel/internal/services"
)

func TestParseSelection(t *testing.T) {
	cases := []struct {
		name string
		expr string
		max  int
		want []int
	}{
		{name: "single", expr: "5", max: 10, want: []int{5}},
		{name: "list sorted dedup", expr: "5,9,2,5", max: 10, want: []int{2, 5, 9}},
		{name: "range", expr: "10-12", max: 20, want: []int{10, 11, 12}},
		{name: "mixed", expr: "3,7-9,7", max: 10, want: []int{3, 7, 8, 9}},
		{name: "whitespace", expr: " 4 , 2 ", max: 10, want: []int{2, 4}},
		{name: "single element range", expr: "6-6", max: 10, want: []int{6}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := scenes.ParseSelection(tc.expr, tc.max)
			if err != nil {
				t.Fatalf("ParseSelection(%q) failed: %v", tc.expr, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestParseSelectionRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		expr string
		max  int
	}{
		{name: "non numeric", expr: "abc", max: 10},
		{name: "zero index", expr: "0", max: 10},
		{name: "negative", expr: "-3", max: 10},
		{name: "out of range", expr: "11", max: 10},
		{name: "range out of range", expr: "8-12", max: 10},
		{name: "backwards range", expr: "9-5", max: 10},
		{name: "empty", expr: "", max: 10},
		{name: "empty segment", expr: "3,,5", max: 10},
		{name: "no scenes", expr: "1", max: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scenes.ParseSelection(tc.expr, tc.max)
			if err == nil {
				t.Fatalf("expected error for %q", tc.expr)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !services.IsFatal(err) {
				t.Fatalf("selection errors must be fatal, got %v", err)
			}
		})
	}
}
