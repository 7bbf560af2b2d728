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

	"gitlab.com/elixxir/wasm-utils/exception"
	"gitlab.com/elixxir/wasm-utils/utils"

	"github.com/eli-fin/idb-inspect/teams"
)

// GetConversation reconstructs the transcript of a Microsoft Teams
// conversation between two people from the origin's IndexedDB.
//
// Parameters:
//   - args[0] - Display name the direction tags are relative to (string).
//   - args[1] - Display name of the other participant (string).
//
// Returns a promise:
//   - Resolves to an array of transcript lines, most recent first (Array of
//     string).
//   - Rejected with an error when the directory or reply-chain database, a
//     required store, or one of the people cannot be found.
func GetConversation(_ js.Value, args []js.Value) any {
	myName := args[0].String()
	otherName := args[1].String()

	promiseFn := func(resolve, reject func(args ...any) js.Value) {
		lines, err := teams.NewExtractor(newConnector()).
			GetConversation(myName, otherName)
		if err != nil {
			reject(exception.NewTrace(err))
			return
		}

		transcript := make([]any, len(lines))
		for i, line := range lines {
			transcript[i] = line
		}
		resolve(js.ValueOf(transcript))
	}

	return utils.CreatePromise(promiseFn)
}
