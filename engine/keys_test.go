////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package engine

import (
	"math"
	"reflect"
	"testing"
)

// Tests that NormalizeKey widens integer scalars to float64 and leaves
// strings and already-normalized keys untouched.
func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		key      any
		expected any
	}{
		{"name", "name"},
		{float64(5), float64(5)},
		{5, float64(5)},
		{int64(-3), float64(-3)},
		{uint32(7), float64(7)},
		{[]any{"a", 1, []any{int64(2)}}, []any{"a", float64(1), []any{float64(2)}}},
	}

	for i, tt := range tests {
		norm, err := NormalizeKey(tt.key)
		if err != nil {
			t.Errorf("NormalizeKey(%v) failed (%d): %+v", tt.key, i, err)
		} else if !reflect.DeepEqual(norm, tt.expected) {
			t.Errorf("Unexpected normalized key (%d)."+
				"\nexpected: %#v\nreceived: %#v", i, tt.expected, norm)
		}
	}
}

// Tests that NormalizeKey rejects every key type the engine cannot store.
func TestNormalizeKey_InvalidKeys(t *testing.T) {
	invalid := []any{
		nil,
		true,
		math.NaN(),
		map[string]any{"a": 1},
		[]any{"ok", nil},
		struct{}{},
	}

	for i, key := range invalid {
		if _, err := NormalizeKey(key); err == nil {
			t.Errorf("NormalizeKey(%v) did not fail (%d)", key, i)
		}
		if ValidKey(key) {
			t.Errorf("ValidKey(%v) reported valid (%d)", key, i)
		}
	}
}

// Tests that CompareKeys orders keys the way the engine's cursors do: numbers
// before strings before tuples, and element-wise within tuples.
func TestCompareKeys(t *testing.T) {
	// Each key sorts strictly before all keys after it.
	ordered := []any{
		float64(-12),
		float64(0),
		float64(99.5),
		"",
		"19:abc",
		"a",
		"ab",
		[]any{},
		[]any{float64(1)},
		[]any{float64(1), "x"},
		[]any{"a1_b2_chain"},
		[]any{"a1_b2_chain", float64(0)},
	}

	for i := range ordered {
		for j := range ordered {
			c := CompareKeys(ordered[i], ordered[j])
			switch {
			case i < j && c >= 0:
				t.Errorf("CompareKeys(%v, %v) = %d, expected negative",
					ordered[i], ordered[j], c)
			case i > j && c <= 0:
				t.Errorf("CompareKeys(%v, %v) = %d, expected positive",
					ordered[i], ordered[j], c)
			case i == j && c != 0:
				t.Errorf("CompareKeys(%v, %v) = %d, expected 0",
					ordered[i], ordered[j], c)
			}
		}
	}
}
