////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package engine

import (
	"math"

	"github.com/pkg/errors"
)

// Key type groups in comparison order. Every valid key belongs to exactly one
// group; keys of different groups order by group alone, the way the browser's
// cursors collate them.
const (
	keyGroupNumber = iota
	keyGroupString
	keyGroupArray
)

// NormalizeKey returns key with every integer scalar widened to float64, the
// engine's only number type, recursing into tuple keys. Keys that crossed the
// JS boundary are already in this form; normalizing here lets native callers
// use plain Go integers.
func NormalizeKey(key any) (any, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case float64:
		if math.IsNaN(k) {
			return nil, errors.New("NaN is not a valid key")
		}
		return k, nil
	case float32:
		return NormalizeKey(float64(k))
	case int:
		return float64(k), nil
	case int32:
		return float64(k), nil
	case int64:
		return float64(k), nil
	case uint:
		return float64(k), nil
	case uint32:
		return float64(k), nil
	case uint64:
		return float64(k), nil
	case []any:
		tuple := make([]any, len(k))
		for i, elem := range k {
			norm, err := NormalizeKey(elem)
			if err != nil {
				return nil, errors.WithMessagef(err, "tuple component %d", i)
			}
			tuple[i] = norm
		}
		return tuple, nil
	default:
		return nil, errors.Errorf("%T is not a valid key type", key)
	}
}

// ValidKey reports whether key is a scalar or tuple the engine can store.
func ValidKey(key any) bool {
	_, err := NormalizeKey(key)
	return err == nil
}

// CompareKeys orders two normalized keys the way the engine's cursors do:
// numbers before strings before tuples; numbers numerically, strings
// lexicographically, tuples element-wise with a shorter tuple ordered before
// its extensions. The result is negative, zero, or positive. Only keys
// accepted by [NormalizeKey] have a defined order.
func CompareKeys(a, b any) int {
	ga, gb := keyGroup(a), keyGroup(b)
	if ga != gb {
		return ga - gb
	}

	switch ga {
	case keyGroupNumber:
		na, _ := a.(float64)
		nb, _ := b.(float64)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case keyGroupString:
		sa, _ := a.(string)
		sb, _ := b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	default:
		ta, _ := a.([]any)
		tb, _ := b.([]any)
		for i := 0; i < len(ta) && i < len(tb); i++ {
			if c := CompareKeys(ta[i], tb[i]); c != 0 {
				return c
			}
		}
		return len(ta) - len(tb)
	}
}

// keyGroup returns the comparison group of a normalized key.
func keyGroup(key any) int {
	switch key.(type) {
	case float64:
		return keyGroupNumber
	case string:
		return keyGroupString
	default:
		return keyGroupArray
	}
}
