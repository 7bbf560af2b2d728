////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package teams reconstructs two-party Microsoft Teams conversation
// transcripts from the application's IndexedDB: a participant directory (the
// "people" store of a per-session database) and a reply-chain collection
// (the "replychains" store of the chain manager database).
package teams

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// peopleStoreName holds the participant directory.
	peopleStoreName = "people"

	// replyChainsStoreName holds one record per conversation thread.
	replyChainsStoreName = "replychains"

	// personRecordType marks directory documents that describe a person.
	personRecordType = "person"

	// DefaultDirectoryPrefix is the name prefix of the per-session
	// databases, one of which is the directory database.
	DefaultDirectoryPrefix = "skypexspaces-"

	// DefaultReplyChainToken appears in the name of the reply-chain manager
	// database.
	DefaultReplyChainToken = "replychain-manager"
)

// guidLength is the text length of one hyphenated GUID.
const guidLength = 36

// Person is the subset of a directory document the extractor reads.
type Person struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	ObjectID    string `json:"objectId"`
}

// Message is one entry of a reply chain's message map.
type Message struct {
	OriginalArrivalTime float64 `json:"originalArrivalTime"`
	IMDisplayName       string `json:"imDisplayName"`
	Content             string `json:"content"`
	MessageType         string `json:"messageType"`
}

// ReplyChain is the value of one replychains record.
type ReplyChain struct {
	MessageMap map[string]Message `json:"messageMap"`
}

// serviceMessageTypes are thread events, not things a person said; they
// produce no transcript line.
var serviceMessageTypes = map[string]struct{}{
	"Event/Call":                    {},
	"ThreadActivity/AddMember":      {},
	"ThreadActivity/MemberJoined":   {},
	"ThreadActivity/MemberLeft":     {},
	"RichText/Media_CallTranscript": {},
	"RichText/Media_CallRecording":  {},
	"ThreadActivity/TopicUpdate":    {},
}

// NameMatcher decides whether a database name plays a given role. Role
// identification rides on naming conventions that drift between application
// versions; supplying a new matcher is the supported response to drift.
type NameMatcher func(name string) bool

// DirectoryDatabaseMatcher matches the directory database: prefix followed
// by two GUIDs joined with "-". Several databases share the prefix and only
// this shape distinguishes the directory one, so the convention is brittle
// and tied to the application's schema version.
func DirectoryDatabaseMatcher(prefix string) NameMatcher {
	return func(name string) bool {
		if !strings.HasPrefix(name, prefix) {
			return false
		}
		suffix := name[len(prefix):]
		if len(suffix) != 2*guidLength+1 || suffix[guidLength] != '-' {
			return false
		}
		for _, part := range []string{
			suffix[:guidLength], suffix[guidLength+1:]} {
			if _, err := uuid.Parse(part); err != nil {
				return false
			}
		}
		return true
	}
}

// NameContainsMatcher matches any database name containing token.
func NameContainsMatcher(token string) NameMatcher {
	return func(name string) bool {
		return strings.Contains(name, token)
	}
}
