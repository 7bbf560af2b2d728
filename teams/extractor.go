////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package teams

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/eli-fin/idb-inspect/inspect"
)

// Direction prefixes on transcript lines, relative to the caller.
const (
	sentPrefix     = "->: "
	receivedPrefix = "<-: "
)

// NotFoundError reports that a lookup the extractor cannot continue without
// matched nothing.
type NotFoundError struct {
	What string
}

func (e NotFoundError) Error() string {
	return e.What + " not found"
}

// Extractor reconstructs conversation transcripts. It reads through a
// Connector only and never touches the engine directly.
type Extractor struct {
	connector       *inspect.Connector
	directoryMatch  NameMatcher
	replyChainMatch NameMatcher
}

// NewExtractor returns an Extractor using the default database matchers.
func NewExtractor(connector *inspect.Connector) *Extractor {
	return NewExtractorWithMatchers(connector,
		DirectoryDatabaseMatcher(DefaultDirectoryPrefix),
		NameContainsMatcher(DefaultReplyChainToken))
}

// NewExtractorWithMatchers returns an Extractor with custom database
// matchers, for application versions whose naming has drifted.
func NewExtractorWithMatchers(connector *inspect.Connector, directory,
	replyChain NameMatcher) *Extractor {
	return &Extractor{
		connector:       connector,
		directoryMatch:  directory,
		replyChainMatch: replyChain,
	}
}

// GetConversation returns the transcript of the conversation between myName
// and otherName (exact display names), most recent message first. Lines sent
// by myName are prefixed "->: ", lines from the other party "<-: ". A
// missing directory database, reply-chain database, or person yields a
// [NotFoundError] naming the failed lookup.
func (e *Extractor) GetConversation(myName, otherName string) ([]string, error) {
	descriptors, err := e.connector.ListAll()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to get conversation")
	}

	people, err := e.scanPeople(descriptors)
	if err != nil {
		return nil, err
	}
	me, err := findPerson(people, myName)
	if err != nil {
		return nil, err
	}
	other, err := findPerson(people, otherName)
	if err != nil {
		return nil, err
	}
	jww.INFO.Printf("Resolved %q to object ID %s and %q to object ID %s",
		myName, me.ObjectID, otherName, other.ObjectID)

	chains, err := e.conversationChains(descriptors, me, other)
	if err != nil {
		return nil, err
	}
	return transcript(chains, myName), nil
}

// scanPeople reads the participant directory out of the directory database,
// keeping only person documents.
func (e *Extractor) scanPeople(
	descriptors []inspect.DatabaseDescriptor) ([]Person, error) {
	directory, err := findDatabase(descriptors, e.directoryMatch, "directory")
	if err != nil {
		return nil, err
	}
	records, err := e.scanStore(directory, peopleStoreName)
	if err != nil {
		return nil, err
	}

	people := make([]Person, 0, len(records))
	for _, record := range records {
		var person Person
		if err = decodeDocument(record.Value, &person); err != nil {
			jww.WARN.Printf("Skipping %s record %v: %+v",
				peopleStoreName, record.Key, err)
			continue
		}
		if person.Type != personRecordType {
			continue
		}
		people = append(people, person)
	}
	jww.DEBUG.Printf("Found %d person record(s) in %s",
		len(people), directory.Name)
	return people, nil
}

// conversationChains returns the decoded reply chains naming both
// participants.
func (e *Extractor) conversationChains(
	descriptors []inspect.DatabaseDescriptor, me, other Person) (
	[]ReplyChain, error) {
	replyDb, err := findDatabase(descriptors, e.replyChainMatch, "reply-chain")
	if err != nil {
		return nil, err
	}
	records, err := e.scanStore(replyDb, replyChainsStoreName)
	if err != nil {
		return nil, err
	}

	chains := make([]ReplyChain, 0)
	for _, record := range records {
		if !chainKeyMatches(record.Key, me.ObjectID, other.ObjectID) {
			continue
		}
		var chain ReplyChain
		if err = decodeDocument(record.Value, &chain); err != nil {
			jww.WARN.Printf("Skipping %s record %v: %+v",
				replyChainsStoreName, record.Key, err)
			continue
		}
		chains = append(chains, chain)
	}
	jww.DEBUG.Printf("Found %d reply chain(s) between %s and %s",
		len(chains), me.ObjectID, other.ObjectID)
	return chains, nil
}

// scanStore opens the described database and reads one store whole.
func (e *Extractor) scanStore(descriptor inspect.DatabaseDescriptor,
	storeName string) ([]inspect.Record, error) {
	db, _, err := e.connector.Open(descriptor.Name, descriptor.Version, "")
	if err != nil {
		return nil, err
	}
	return inspect.ScanAll(db, storeName)
}

// findDatabase returns the first descriptor the matcher accepts.
func findDatabase(descriptors []inspect.DatabaseDescriptor,
	match NameMatcher, role string) (inspect.DatabaseDescriptor, error) {
	for _, descriptor := range descriptors {
		if match(descriptor.Name) {
			jww.DEBUG.Printf("Identified %s database: %s", role, descriptor.Name)
			return descriptor, nil
		}
	}
	return inspect.DatabaseDescriptor{}, NotFoundError{What: role + " database"}
}

// findPerson returns the first person in scan order whose display name
// equals name. Display names are not unique; when several entries match, the
// first in key order is used and the ambiguity is logged rather than
// silently absorbed.
func findPerson(people []Person, name string) (Person, error) {
	found := make([]Person, 0, 1)
	for _, person := range people {
		if person.DisplayName == name {
			found = append(found, person)
		}
	}
	if len(found) == 0 {
		return Person{}, NotFoundError{What: fmt.Sprintf("person %q", name)}
	}
	if len(found) > 1 {
		jww.WARN.Printf("%d directory entries match %q; using object ID %s",
			len(found), name, found[0].ObjectID)
	}
	return found[0], nil
}

// chainKeyMatches reports whether the record's composite key names both
// object IDs. The first key component is a string encoding the thread's
// participants; substring containment mirrors the observed schema, and stays
// even though object IDs that contain one another can produce false
// positives.
func chainKeyMatches(key any, firstID, secondID string) bool {
	tuple, ok := key.([]any)
	if !ok || len(tuple) == 0 {
		return false
	}
	name, ok := tuple[0].(string)
	if !ok {
		return false
	}
	return strings.Contains(name, firstID) && strings.Contains(name, secondID)
}

// transcriptLine pairs a rendered line with the timestamp it sorts by.
type transcriptLine struct {
	arrivalTime float64
	line        string
}

// transcript renders every non-service message of every chain as one
// direction-tagged line, sorted strictly descending by arrival time. Message
// maps are walked in sorted message-id order so equal timestamps keep a
// stable order.
func transcript(chains []ReplyChain, myName string) []string {
	lines := make([]transcriptLine, 0)
	for _, chain := range chains {
		ids := make([]string, 0, len(chain.MessageMap))
		for id := range chain.MessageMap {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			msg := chain.MessageMap[id]
			if _, skip := serviceMessageTypes[msg.MessageType]; skip {
				jww.TRACE.Printf("Skipping %s message %s", msg.MessageType, id)
				continue
			}
			prefix := receivedPrefix
			if msg.IMDisplayName == myName {
				prefix = sentPrefix
			}
			lines = append(lines, transcriptLine{
				arrivalTime: msg.OriginalArrivalTime,
				line:        prefix + msg.Content,
			})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].arrivalTime > lines[j].arrivalTime
	})

	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.line
	}
	return out
}

// decodeDocument converts a raw document tree into a typed value via its
// JSON form.
func decodeDocument(value, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize document")
	}
	if err = json.Unmarshal(data, target); err != nil {
		return errors.WithMessage(err, "failed to decode document")
	}
	return nil
}
