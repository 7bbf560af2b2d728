////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package wasm

import (
	"syscall/js"

	"github.com/eli-fin/idb-inspect/storage"
)

// GetVersion returns the [storage.SEMVER] of the WASM bundle.
//
// Returns:
//   - Version (string).
func GetVersion(js.Value, []js.Value) any {
	return storage.SEMVER
}
