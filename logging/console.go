////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package logging

import (
	"io"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"
)

var consoleObj = js.Global().Get("console")

// Console gives access to a single method of the browser's debugging console
// object. All writes are printed through that method, so a Console built for
// the "error" method prints everything as a console error.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/console
type Console struct {
	method string
	js.Value
}

// Write writes the data to the Javascript console with preset method. Returns
// the number of bytes written.
func (c *Console) Write(p []byte) (n int, err error) {
	c.Call(c.method, string(p))
	return len(p), nil
}

// JsConsoleLogListener redirects log output to the Javascript console using
// the console method that matches each log level.
type JsConsoleLogListener struct {
	jww.Threshold

	writers map[jww.Threshold]*Console
	def     *Console
}

// NewJsConsoleLogListener initialises a new log listener that listens for the
// specific threshold and prints the logs to the Javascript console.
func NewJsConsoleLogListener(threshold jww.Threshold) *JsConsoleLogListener {
	return &JsConsoleLogListener{
		Threshold: threshold,
		writers: map[jww.Threshold]*Console{
			jww.LevelTrace:    {"debug", consoleObj},
			jww.LevelDebug:    {"log", consoleObj},
			jww.LevelInfo:     {"info", consoleObj},
			jww.LevelWarn:     {"warn", consoleObj},
			jww.LevelError:    {"error", consoleObj},
			jww.LevelCritical: {"error", consoleObj},
			jww.LevelFatal:    {"error", consoleObj},
		},
		def: &Console{"log", consoleObj},
	}
}

// Listen is called for every logging event. This function adheres to the
// [jwalterweatherman.LogListener] type.
func (ll *JsConsoleLogListener) Listen(t jww.Threshold) io.Writer {
	if t < ll.Threshold {
		return nil
	}

	if w, exists := ll.writers[t]; exists {
		return w
	}
	return ll.def
}
