////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package logging

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	jww "github.com/spf13/jwalterweatherman"
)

// Tests that each added listener gets a unique ID and that removing an ID
// drops only that listener.
func TestAddRemoveLogListener(t *testing.T) {
	initial := len(logListeners.listeners)
	nilListener := func(jww.Threshold) io.Writer { return nil }

	id1 := AddLogListener(nilListener)
	id2 := AddLogListener(nilListener)
	if id1 == id2 {
		t.Errorf("Received duplicate listener ID: %d", id1)
	}
	if n := len(logListeners.listeners); n != initial+2 {
		t.Errorf("Unexpected listener count.\nexpected: %d\nreceived: %d",
			initial+2, n)
	}

	RemoveLogListener(id1)
	if n := len(logListeners.listeners); n != initial+1 {
		t.Errorf("Unexpected listener count after remove."+
			"\nexpected: %d\nreceived: %d", initial+1, n)
	}

	// Removing the same ID again changes nothing
	RemoveLogListener(id1)
	if n := len(logListeners.listeners); n != initial+1 {
		t.Errorf("Unexpected listener count after repeat remove."+
			"\nexpected: %d\nreceived: %d", initial+1, n)
	}

	RemoveLogListener(id2)
}

// Tests that LogFile.Listen writes the expected data to the buffer and that
// when the max file size is reached, old data is replaced.
func TestLogFile_Write(t *testing.T) {
	rng := rand.New(rand.NewSource(3424))
	lf, err := NewLogFile("test.log", jww.LevelError, 512)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	expected := make([]byte, lf.MaxSize())
	rng.Read(expected)
	n, err := lf.Listen(jww.LevelError).Write(expected)
	if err != nil {
		t.Fatalf("Failed to write: %+v", err)
	} else if n != len(expected) {
		t.Fatalf("Did not write expected length.\nexpected: %d\nreceived: %d",
			len(expected), n)
	}

	if !bytes.Equal(lf.GetFile(), expected) {
		t.Fatalf("Incorrect bytes in buffer.\nexpected: %v\nreceived: %v",
			expected, lf.GetFile())
	}

	// Check that the data is overwritten
	rng.Read(expected)
	n, err = lf.Listen(jww.LevelError).Write(expected)
	if err != nil {
		t.Fatalf("Failed to write: %+v", err)
	} else if n != len(expected) {
		t.Fatalf("Did not write expected length.\nexpected: %d\nreceived: %d",
			len(expected), n)
	}

	if !bytes.Equal(lf.GetFile(), expected) {
		t.Fatalf("Incorrect bytes in buffer.\nexpected: %v\nreceived: %v",
			expected, lf.GetFile())
	}
}

// Tests that LogFile.Listen only returns an io.Writer for valid thresholds.
func TestLogFile_Listen(t *testing.T) {
	th := jww.LevelError
	lf, err := NewLogFile("test.log", th, 512)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	thresholds := []jww.Threshold{-1, jww.LevelTrace, jww.LevelDebug,
		jww.LevelInfo, jww.LevelWarn, jww.LevelError, jww.LevelCritical,
		jww.LevelFatal}

	for _, threshold := range thresholds {
		w := lf.Listen(threshold)
		if threshold < th {
			if w != nil {
				t.Errorf("Did not receive nil io.Writer for level %s: %+v",
					threshold, w)
			}
		} else if w == nil {
			t.Errorf("Received nil io.Writer for level %s", threshold)
		}
	}
}

// Tests that LogFile.GetFile returns the concatenation of all writes and that
// LogFile.Size tracks their total length.
func TestLogFile_GetFile_Size(t *testing.T) {
	rng := rand.New(rand.NewSource(9863))
	lf, err := NewLogFile("test.log", jww.LevelError, 512)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	var expected []byte
	for i := 0; i < 5; i++ {
		p := make([]byte, rng.Intn(64))
		rng.Read(p)
		expected = append(expected, p...)

		if _, err = lf.Listen(jww.LevelError).Write(p); err != nil {
			t.Errorf("Write %d failed: %+v", i, err)
		}

		if size := lf.Size(); size != len(expected) {
			t.Errorf("Incorrect size (%d).\nexpected: %d\nreceived: %d",
				i, len(expected), size)
		}
	}

	file := lf.GetFile()
	if !bytes.Equal(expected, file) {
		t.Errorf("Unexpected file.\nexpected: %v\nreceived: %v", expected, file)
	}
}

// Unit test of LogFile.Name and LogFile.MaxSize.
func TestLogFile_Name_MaxSize(t *testing.T) {
	name, maxSize := "inspector.log", 512
	lf, err := NewLogFile(name, jww.LevelError, maxSize)
	if err != nil {
		t.Fatalf("Failed to make new LogFile: %+v", err)
	}

	if lf.Name() != name {
		t.Errorf("Incorrect name.\nexpected: %s\nreceived: %s", name, lf.Name())
	}
	if lf.MaxSize() != maxSize {
		t.Errorf("Incorrect max size.\nexpected: %d\nreceived: %d",
			maxSize, lf.MaxSize())
	}
}

// Tests that a file registered via LogToFile records jwalterweatherman output
// and that StopLogging halts recording.
func TestLogToFile(t *testing.T) {
	lf, err := LogToFile(jww.LevelError, "test.log", 512)
	if err != nil {
		t.Fatalf("Failed to start logging to file: %+v", err)
	}

	jww.ERROR.Print("moose in the log file")
	if !strings.Contains(string(lf.GetFile()), "moose in the log file") {
		t.Errorf("Log file missing expected entry: %q", lf.GetFile())
	}

	// Entries below the threshold are not recorded
	size := lf.Size()
	jww.INFO.Print("quiet")
	if lf.Size() != size {
		t.Errorf("Log file grew on entry below threshold.\nexpected: %d"+
			"\nreceived: %d", size, lf.Size())
	}

	lf.StopLogging()
	jww.ERROR.Print("after the stop")
	if strings.Contains(string(lf.GetFile()), "after the stop") {
		t.Errorf("Log file recorded entry after logging was stopped: %q",
			lf.GetFile())
	}
	if w := lf.Listen(jww.LevelFatal); w != nil {
		t.Errorf("Listen returned non-nil io.Writer when logging should have "+
			"been stopped: %+v", w)
	}
}

// Tests that LogToFile returns an error for invalid thresholds.
func TestLogToFile_ThresholdError(t *testing.T) {
	for _, threshold := range []jww.Threshold{-1, jww.LevelFatal + 1} {
		_, err := LogToFile(threshold, "test.log", 512)
		if err == nil {
			t.Errorf("Did not get error for invalid threshold %d", threshold)
		}
	}
}
