////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"os"
	"os/signal"
	"syscall"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/eli-fin/idb-inspect/logging"
	"github.com/eli-fin/idb-inspect/storage"
	"github.com/eli-fin/idb-inspect/wasm"
)

func init() {
	// Overwrites setting the log level to INFO done in bindings so that the
	// Javascript console can be used
	ll := logging.NewJsConsoleLogListener(jww.LevelInfo)
	logging.AddLogListener(ll.Listen)
	jww.SetStdoutThreshold(jww.LevelFatal + 1)

	// Check that the WASM binary version is correct
	err := storage.CheckAndStoreVersions()
	if err != nil {
		jww.FATAL.Panicf("WASM binary version error: %+v", err)
	}
}

func main() {
	jww.INFO.Printf("Starting idb-inspect WebAssembly bindings.")

	// wasm/inspect.go
	js.Global().Set("Search", js.FuncOf(wasm.Search))
	js.Global().Set("ListDatabases", js.FuncOf(wasm.ListDatabases))
	js.Global().Set("DumpStore", js.FuncOf(wasm.DumpStore))
	js.Global().Set("StoreKeyValue", js.FuncOf(wasm.StoreKeyValue))

	// wasm/teams.go
	js.Global().Set("GetConversation", js.FuncOf(wasm.GetConversation))

	// wasm/version.go
	js.Global().Set("GetVersion", js.FuncOf(wasm.GetVersion))

	// logging/logLevel.go
	js.Global().Set("LogLevel", js.FuncOf(logging.LogLevelJS))

	// logging/file.go
	js.Global().Set("LogToFile", js.FuncOf(logging.LogToFileJS))

	// Wait until the user terminates the program
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	os.Exit(0)
}
