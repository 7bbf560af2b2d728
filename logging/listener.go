////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package logging routes jwalterweatherman output to destinations that work
// inside the browser: the Javascript console and an in-memory log file that
// can be downloaded from the page.
package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/armon/circbuf"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// logListeners tracks every listener registered with jwalterweatherman so
// that adding one does not drop the listeners already installed. Each
// listener gets a unique ID that can later be used to remove it.
var logListeners = &listenerList{
	listeners: make(map[uint64]jww.LogListener),
	nextID:    1,
}

type listenerList struct {
	listeners map[uint64]jww.LogListener
	nextID    uint64
	sync.Mutex
}

// AddLogListener registers the log listener with jwalterweatherman. Returns a
// unique ID that can be used to remove the listener.
func AddLogListener(ll jww.LogListener) uint64 {
	logListeners.Lock()
	defer logListeners.Unlock()

	id := logListeners.nextID
	logListeners.nextID++
	logListeners.listeners[id] = ll

	jww.SetLogListeners(logListeners.slice()...)
	return id
}

// RemoveLogListener unregisters the log listener with the ID from
// jwalterweatherman. Unknown IDs are ignored.
func RemoveLogListener(id uint64) {
	logListeners.Lock()
	defer logListeners.Unlock()

	delete(logListeners.listeners, id)
	jww.SetLogListeners(logListeners.slice()...)
}

// slice converts the map of listeners to a slice so that it can be passed to
// jwalterweatherman.SetLogListeners.
func (lll *listenerList) slice() []jww.LogListener {
	listeners := make([]jww.LogListener, 0, len(lll.listeners))
	for _, l := range lll.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

////////////////////////////////////////////////////////////////////////////////
// Log File Log Listener                                                      //
////////////////////////////////////////////////////////////////////////////////

// LogFile represents a virtual log file in memory. It contains a circular
// buffer that limits the log file, overwriting the oldest logs.
type LogFile struct {
	name       string
	threshold  jww.Threshold
	b          *circbuf.Buffer
	listenerID uint64
}

// NewLogFile initialises a new [LogFile] for log writing.
func NewLogFile(
	name string, threshold jww.Threshold, maxSize int) (*LogFile, error) {
	// Create new buffer of the specified size
	b, err := circbuf.NewBuffer(int64(maxSize))
	if err != nil {
		return nil, errors.Wrap(err, "could not create new circular buffer")
	}

	return &LogFile{
		name:      name,
		threshold: threshold,
		b:         b,
	}, nil
}

// LogToFile starts recording log output to an in-memory log file that can be
// downloaded from the browser. Returns the [LogFile] used to retrieve the
// recorded contents.
func LogToFile(threshold jww.Threshold, logFileName string,
	maxLogFileSize int) (*LogFile, error) {
	if threshold < jww.LevelTrace || threshold > jww.LevelFatal {
		return nil,
			errors.Errorf("log level is not valid: log level: %d", threshold)
	}

	// Create new log file output
	lf, err := NewLogFile(logFileName, threshold, maxLogFileSize)
	if err != nil {
		return nil, err
	}

	lf.listenerID = AddLogListener(lf.Listen)

	msg := fmt.Sprintf("Outputting log to file %s of max size %d with level %s",
		lf.Name(), lf.MaxSize(), threshold)
	switch threshold {
	case jww.LevelTrace:
		fallthrough
	case jww.LevelDebug:
		fallthrough
	case jww.LevelInfo:
		jww.INFO.Print(msg)
	case jww.LevelWarn:
		jww.WARN.Print(msg)
	case jww.LevelError:
		jww.ERROR.Print(msg)
	case jww.LevelCritical:
		jww.CRITICAL.Print(msg)
	case jww.LevelFatal:
		jww.FATAL.Print(msg)
	}

	return lf, nil
}

// Listen is called for every logging event. This function adheres to the
// [jwalterweatherman.LogListener] type.
func (lf *LogFile) Listen(t jww.Threshold) io.Writer {
	if t < lf.threshold {
		return nil
	}

	return lf.b
}

// StopLogging stops recording to the file and removes the listener registered
// by [LogToFile]. Once logging is stopped, it cannot be resumed; the contents
// recorded so far remain readable.
func (lf *LogFile) StopLogging() {
	lf.threshold = jww.LevelFatal + 1
	RemoveLogListener(lf.listenerID)
}

// Name returns the name of the log file.
func (lf *LogFile) Name() string { return lf.name }

// Threshold returns the log level threshold used in the file.
func (lf *LogFile) Threshold() jww.Threshold { return lf.threshold }

// GetFile returns the entire log file.
func (lf *LogFile) GetFile() []byte { return lf.b.Bytes() }

// MaxSize returns the max size, in bytes, that the log file is allowed to be.
func (lf *LogFile) MaxSize() int { return int(lf.b.Size()) }

// Size returns the current size, in bytes, written to the log file.
func (lf *LogFile) Size() int { return int(lf.b.TotalWritten()) }
