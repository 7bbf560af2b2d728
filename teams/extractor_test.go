////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package teams

import (
	"os"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/stretchr/testify/require"

	"github.com/eli-fin/idb-inspect/engine/memdb"
	"github.com/eli-fin/idb-inspect/inspect"
)

const (
	testDirectoryDb = DefaultDirectoryPrefix +
		"11111111-1111-1111-1111-111111111111-" +
		"22222222-2222-2222-2222-222222222222"
	testReplyChainDb = "Teams:replychain-manager:0"
)

func TestMain(m *testing.M) {
	jww.SetStdoutThreshold(jww.LevelDebug)
	os.Exit(m.Run())
}

type seedRecord struct {
	key   any
	value any
}

// person builds a directory document the way the application stores it.
func person(name, objectID string) map[string]any {
	return map[string]any{
		"type":        "person",
		"displayName": name,
		"objectId":    objectID,
		"mri":         "8:orgid:" + objectID,
	}
}

// message builds one message map entry.
func message(arrivalTime float64, from, content string) map[string]any {
	return map[string]any{
		"originalArrivalTime": arrivalTime,
		"imDisplayName":       from,
		"content":             content,
		"messageType":         "RichText/Html",
	}
}

// newTestConnector seeds a directory database and a reply-chain database.
func newTestConnector(t *testing.T, people, chains []seedRecord) *inspect.Connector {
	t.Helper()
	c := inspect.NewConnector(memdb.NewFactory())
	for _, record := range people {
		err := inspect.StoreKeyValue(
			c, testDirectoryDb, peopleStoreName, record.key, record.value)
		require.NoErrorf(t, err, "Failed to seed person %v", record.key)
	}
	for _, record := range chains {
		err := inspect.StoreKeyValue(
			c, testReplyChainDb, replyChainsStoreName, record.key, record.value)
		require.NoErrorf(t, err, "Failed to seed reply chain %v", record.key)
	}
	return c
}

// Tests the full reconstruction: two people, one matching chain, one
// unrelated chain, and a service message that must produce no line. The
// result is ordered most recent first with direction tags relative to the
// caller.
func TestExtractor_GetConversation(t *testing.T) {
	c := newTestConnector(t,
		[]seedRecord{
			// Not a person; would shadow Alice if the type filter broke.
			{"0team:x", map[string]any{
				"type": "team", "displayName": "Alice", "objectId": "zz"}},
			{"8:orgid:a1", person("Alice", "a1")},
			{"8:orgid:b2", person("Bob", "b2")},
		},
		[]seedRecord{
			{[]any{"a1_b2_chain"}, map[string]any{"messageMap": map[string]any{
				"m0": map[string]any{
					"originalArrivalTime": float64(500),
					"imDisplayName":       "Bob",
					"content":             "started a call",
					"messageType":         "Event/Call",
				},
				"m1": message(100, "Alice", "hi"),
				"m2": message(200, "Bob", "hey"),
			}}},
			{[]any{"zz_other"}, map[string]any{"messageMap": map[string]any{
				"n1": message(300, "Zed", "nope"),
			}}},
		})

	lines, err := NewExtractor(c).GetConversation("Alice", "Bob")
	if err != nil {
		t.Fatalf("Failed to get conversation: %+v", err)
	}

	expected := []string{"<-: hey", "->: hi"}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("Unexpected transcript.\nexpected: %q\nreceived: %q",
			expected, lines)
	}
}

// Tests that messages from several chains interleave in strictly descending
// arrival-time order.
func TestExtractor_GetConversation_Order(t *testing.T) {
	c := newTestConnector(t,
		[]seedRecord{
			{"8:orgid:a1", person("Alice", "a1")},
			{"8:orgid:b2", person("Bob", "b2")},
		},
		[]seedRecord{
			{[]any{"a1_b2_one"}, map[string]any{"messageMap": map[string]any{
				"p1": message(300, "Alice", "three"),
				"p2": message(100, "Bob", "one"),
			}}},
			{[]any{"a1_b2_two"}, map[string]any{"messageMap": map[string]any{
				"q1": message(400, "Bob", "four"),
				"q2": message(200, "Alice", "two"),
			}}},
		})

	lines, err := NewExtractor(c).GetConversation("Alice", "Bob")
	if err != nil {
		t.Fatalf("Failed to get conversation: %+v", err)
	}

	expected := []string{"<-: four", "->: three", "->: two", "<-: one"}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("Unexpected transcript.\nexpected: %q\nreceived: %q",
			expected, lines)
	}
}

// Tests that an ambiguous display name resolves to the first entry in key
// order.
func TestExtractor_GetConversation_DuplicateName(t *testing.T) {
	c := newTestConnector(t,
		[]seedRecord{
			{"8:orgid:a1", person("Alice", "a1")},
			{"8:orgid:a9", person("Alice", "a9")},
			{"8:orgid:b2", person("Bob", "b2")},
		},
		[]seedRecord{
			{[]any{"a1_b2_chain"}, map[string]any{"messageMap": map[string]any{
				"m1": message(100, "Alice", "from-a1"),
			}}},
			{[]any{"a9_b2_chain"}, map[string]any{"messageMap": map[string]any{
				"n1": message(200, "Alice", "from-a9"),
			}}},
		})

	lines, err := NewExtractor(c).GetConversation("Alice", "Bob")
	if err != nil {
		t.Fatalf("Failed to get conversation: %+v", err)
	}

	expected := []string{"->: from-a1"}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("Unexpected transcript.\nexpected: %q\nreceived: %q",
			expected, lines)
	}
}

// Tests that each failed lookup reports a [NotFoundError] naming it.
func TestExtractor_GetConversation_NotFound(t *testing.T) {
	alice := seedRecord{"8:orgid:a1", person("Alice", "a1")}
	bob := seedRecord{"8:orgid:b2", person("Bob", "b2")}
	chain := seedRecord{[]any{"a1_b2_chain"}, map[string]any{
		"messageMap": map[string]any{"m1": message(100, "Alice", "hi")}}}

	tests := []struct {
		connector *inspect.Connector
		myName    string
		expected  string
	}{
		{inspect.NewConnector(memdb.NewFactory()), "Alice",
			"directory database not found"},
		{newTestConnector(t, []seedRecord{alice, bob}, nil), "Zed",
			`person "Zed" not found`},
	}
	for _, tt := range tests {
		_, err := NewExtractor(tt.connector).GetConversation(tt.myName, "Bob")
		var notFound NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Unexpected error type for %q: %+v", tt.expected, err)
		}
		if notFound.Error() != tt.expected {
			t.Errorf("Unexpected error.\nexpected: %s\nreceived: %s",
				tt.expected, notFound.Error())
		}
	}

	// The reply-chain store exists, but no database carries the manager
	// token in its name.
	c := inspect.NewConnector(memdb.NewFactory())
	for _, record := range []seedRecord{alice, bob} {
		err := inspect.StoreKeyValue(
			c, testDirectoryDb, peopleStoreName, record.key, record.value)
		require.NoErrorf(t, err, "Failed to seed person %v", record.key)
	}
	err := inspect.StoreKeyValue(
		c, "Teams:unrelated:0", replyChainsStoreName, chain.key, chain.value)
	require.NoError(t, err, "Failed to seed reply chain")

	_, err = NewExtractor(c).GetConversation("Alice", "Bob")
	var notFound NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Unexpected error type: %+v", err)
	}
	if notFound.What != "reply-chain database" {
		t.Errorf("Unexpected lookup name.\nexpected: %s\nreceived: %s",
			"reply-chain database", notFound.What)
	}
}
