////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package logging

import (
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/wasm-utils/exception"
)

// LogToFileJS enables logging to a file that can be downloaded.
//
// Parameters:
//   - args[0] - Log level (int).
//   - args[1] - Log file name (string).
//   - args[2] - Max log file size, in bytes (int).
//
// Returns:
//   - A Javascript representation of the [LogFile] object, which allows
//     accessing the contents of the log file and other metadata.
//   - Throws an error if making the log file fails.
func LogToFileJS(_ js.Value, args []js.Value) any {
	threshold := jww.Threshold(args[0].Int())
	logFileName := args[1].String()
	maxLogFileSize := args[2].Int()

	lf, err := LogToFile(threshold, logFileName, maxLogFileSize)
	if err != nil {
		exception.ThrowTrace(err)
		return nil
	}

	return NewLogFileJS(lf)
}

// NewLogFileJS creates a new Javascript compatible object (map[string]any)
// that matches the [LogFile] structure.
func NewLogFileJS(lf *LogFile) map[string]any {
	logFile := map[string]any{
		"Name":        js.FuncOf(lf.NameJS),
		"Threshold":   js.FuncOf(lf.ThresholdJS),
		"GetFile":     js.FuncOf(lf.GetFileJS),
		"MaxSize":     js.FuncOf(lf.MaxSizeJS),
		"Size":        js.FuncOf(lf.SizeJS),
		"StopLogging": js.FuncOf(lf.StopLoggingJS),
	}

	return logFile
}

// NameJS returns the name of the log file.
//
// Returns:
//   - File name (string).
func (lf *LogFile) NameJS(js.Value, []js.Value) any {
	return lf.Name()
}

// ThresholdJS returns the log level threshold used in the file.
//
// Returns:
//   - Log level (string).
func (lf *LogFile) ThresholdJS(js.Value, []js.Value) any {
	return lf.Threshold().String()
}

// GetFileJS returns the entire log file.
//
// Returns:
//   - Log file contents (string).
func (lf *LogFile) GetFileJS(js.Value, []js.Value) any {
	return string(lf.GetFile())
}

// MaxSizeJS returns the max size, in bytes, that the log file is allowed to
// be.
//
// Returns:
//   - Max file size (int).
func (lf *LogFile) MaxSizeJS(js.Value, []js.Value) any {
	return lf.MaxSize()
}

// SizeJS returns the current size, in bytes, written to the log file.
//
// Returns:
//   - Current file size (int).
func (lf *LogFile) SizeJS(js.Value, []js.Value) any {
	return lf.Size()
}

// StopLoggingJS stops recording to the file and removes its log listener.
// Once logging is stopped, it cannot be resumed; the contents recorded so far
// remain readable.
func (lf *LogFile) StopLoggingJS(js.Value, []js.Value) any {
	lf.StopLogging()

	return nil
}
