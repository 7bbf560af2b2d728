////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package storage tracks the WASM bundle version across page loads in the
// browser's local storage.
package storage

import (
	"os"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/elixxir/wasm-utils/storage"
)

// SEMVER is the current semantic version of the idb-inspect WASM bundle.
const SEMVER = "0.2.1"

// semverKey is the local storage key that the bundle version is tracked
// under.
const semverKey = "idbInspectSemanticVersion"

// CheckAndStoreVersions compares the bundle version stored on the last load
// against the current version, logs when an update happened, and stores the
// current version.
//
// On first load, the current version is only stored.
func CheckAndStoreVersions() error {
	return checkAndStoreVersions(SEMVER, storage.GetLocalStorage())
}

func checkAndStoreVersions(
	currentWasmVer string, ls storage.LocalStorage) error {
	// Get the stored WASM version, if it exists
	storedWasmVer, err := initOrLoadStoredSemver(semverKey, currentWasmVer, ls)
	if err != nil {
		return err
	}

	// Check if the WASM bundle was updated
	if storedWasmVer != currentWasmVer {
		jww.INFO.Printf("idb-inspect WASM out of date; upgrading version: "+
			"v%s → v%s", storedWasmVer, currentWasmVer)
	} else {
		jww.INFO.Printf(
			"idb-inspect WASM version is current: v%s", storedWasmVer)
	}

	// Upgrade path code goes here

	// Save the current version
	if err = ls.Set(semverKey, []byte(currentWasmVer)); err != nil {
		return errors.Wrapf(err, "localStorage: failed to set %q", semverKey)
	}

	return nil
}

// initOrLoadStoredSemver returns the semantic version stored at the key in
// local storage. If no version is stored, then the current version is stored
// and returned.
func initOrLoadStoredSemver(
	key, currentVersion string, ls storage.LocalStorage) (string, error) {
	storedVersion, err := ls.Get(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Save the current version if this is the first run
			jww.INFO.Printf("Initialising %s to v%s", key, currentVersion)
			if err = ls.Set(key, []byte(currentVersion)); err != nil {
				return "",
					errors.Wrapf(err, "localStorage: failed to set %q", key)
			}
			return currentVersion, nil
		}

		// If the item exists, but cannot be loaded, return an error
		return "", errors.Errorf(
			"could not load %s from storage: %+v", key, err)
	}

	// Return the stored version
	return string(storedVersion), nil
}
