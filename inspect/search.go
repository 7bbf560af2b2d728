////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// SearchEngine scans every store of every database for a keyword. The match
// is a case-insensitive substring test against the canonical serialization
// of each value; no field-aware matching is attempted.
type SearchEngine struct {
	connector *Connector
	out       io.Writer
}

// NewSearchEngine returns a SearchEngine writing its report to out.
func NewSearchEngine(connector *Connector, out io.Writer) *SearchEngine {
	return &SearchEngine{connector: connector, out: out}
}

// FindInAll scans every record of every store of every database and reports
// those whose serialized value contains keyword. Matches are grouped per
// store with a count line; printKeys adds one line per matching key, and
// printValues appends each serialized value alongside its key. A store that
// fails to scan is reported and skipped rather than aborting the search; the
// store set is dynamic and not under the caller's control. Returns an error
// only when enumeration itself fails.
func (s *SearchEngine) FindInAll(keyword string, printKeys, printValues bool) error {
	descriptors, err := s.connector.ListAll()
	if err != nil {
		return errors.WithMessage(err, "failed to search")
	}

	s.printf("Searching %d database(s) for %q\n", len(descriptors), keyword)
	needle := strings.ToLower(keyword)
	var matches, searched, failed int
	for _, descriptor := range descriptors {
		for _, storeName := range descriptor.StoreNames {
			count, err := s.searchStore(
				descriptor, storeName, needle, printKeys, printValues)
			if err != nil {
				// The error chain carries stack traces; the report only
				// names the store so it stays readable.
				failed++
				jww.ERROR.Printf("Failed to search %s/%s: %+v",
					descriptor.Name, storeName, err)
				s.printf("DB: %s, store: %s - search failed (see log)\n",
					descriptor.Name, storeName)
				continue
			}
			searched++
			matches += count
		}
	}

	s.printf("Found %d match(es) in %d store(s) across %d database(s)\n",
		matches, searched, len(descriptors))
	if failed > 0 {
		s.printf("%d store(s) could not be searched\n", failed)
	}
	return nil
}

// searchStore scans one store on a fresh connection and reports its matches.
func (s *SearchEngine) searchStore(descriptor DatabaseDescriptor,
	storeName, needle string, printKeys, printValues bool) (int, error) {
	db, _, err := s.connector.Open(descriptor.Name, descriptor.Version, "")
	if err != nil {
		return 0, err
	}
	records, err := ScanAll(db, storeName)
	if err != nil {
		return 0, err
	}

	type match struct {
		key        any
		serialized string
	}
	var found []match
	for _, record := range records {
		serialized, err := CanonicalJSON(record.Value)
		if err != nil {
			// One odd record must not hide the rest of the store.
			jww.WARN.Printf("Skipping record %s/%s/%v: %+v", descriptor.Name,
				storeName, record.Key, err)
			continue
		}
		if strings.Contains(strings.ToLower(serialized), needle) {
			found = append(found, match{key: record.Key, serialized: serialized})
		}
	}
	if len(found) == 0 {
		return 0, nil
	}

	s.printf("DB: %s, store: %s - %d match(es)\n",
		descriptor.Name, storeName, len(found))
	if printKeys {
		for _, m := range found {
			if printValues {
				s.printf("\tkey: %v, value: %s\n", m.key, m.serialized)
			} else {
				s.printf("\tkey: %v\n", m.key)
			}
		}
	}
	return len(found), nil
}

// printf writes one report line, logging a sink failure instead of dropping
// it silently.
func (s *SearchEngine) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		jww.ERROR.Printf("Failed to write report line: %+v", err)
	}
}
