////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package teams

import (
	"testing"
)

// Tests the directory database shape: prefix followed by two GUIDs joined
// with "-", nothing more and nothing less.
func TestDirectoryDatabaseMatcher(t *testing.T) {
	match := DirectoryDatabaseMatcher(DefaultDirectoryPrefix)
	valid := DefaultDirectoryPrefix +
		"11111111-1111-1111-1111-111111111111-" +
		"22222222-2222-2222-2222-222222222222"

	tests := []struct {
		name     string
		expected bool
	}{
		{valid, true},
		{DefaultDirectoryPrefix +
			"11111111-1111-1111-1111-111111111111", false}, // one GUID only
		{"other-" + valid[len(DefaultDirectoryPrefix):], false},
		{valid + "x", false},
		{DefaultDirectoryPrefix +
			"gggggggg-gggg-gggg-gggg-gggggggggggg-" +
			"22222222-2222-2222-2222-222222222222", false}, // not hex
		{"", false},
	}

	for i, tt := range tests {
		if match(tt.name) != tt.expected {
			t.Errorf("Unexpected match result for %q (%d)."+
				"\nexpected: %t\nreceived: %t",
				tt.name, i, tt.expected, !tt.expected)
		}
	}
}

// Tests that the reply-chain database is matched anywhere in the name.
func TestNameContainsMatcher(t *testing.T) {
	match := NameContainsMatcher(DefaultReplyChainToken)
	if !match("Teams:replychain-manager:0") {
		t.Error("Reply-chain manager name did not match.")
	}
	if match("Teams:conversation-manager:0") {
		t.Error("Unrelated manager name matched.")
	}
}
