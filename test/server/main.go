////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Serves the compiled WASM bundle and its Javascript glue over HTTP so the
// bindings can be exercised from a real browser's console. It is compiled
// separately from the WASM module itself.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
)

// Flag variables.
var (
	port     int
	root     string
	logLevel int
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var cmd = &cobra.Command{
	Use:   "server",
	Short: "Serves the compiled WASM bundle for manual browser runs.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initLog(jww.Threshold(logLevel))

		addr := ":" + strconv.Itoa(port)
		jww.INFO.Printf("Starting server on %s from %s", addr, root)
		jww.INFO.Printf("\thttp://localhost%s", addr)

		err := http.ListenAndServe(addr, http.FileServer(http.Dir(root)))
		if err != nil {
			jww.FATAL.Panicf("Failed to start server: %+v", err)
		}
	},
}

// init is the initialization function for Cobra which defines flags.
func init() {
	cmd.Flags().IntVarP(&port, "port", "p", 9090, "Port to listen on.")
	cmd.Flags().StringVarP(&root, "root", "r", "../assets",
		"Directory holding the WASM bundle and Javascript glue.")
	cmd.Flags().IntVarP(&logLevel, "logLevel", "v", 2,
		"Verbosity level of logging. 0 = TRACE, 1 = DEBUG, 2 = INFO, "+
			"3 = WARN, 4 = ERROR, 5 = CRITICAL, 6 = FATAL")
}

// initLog enables JWW logging to stdout at the given threshold. Panics if the
// threshold is invalid.
func initLog(threshold jww.Threshold) {
	if threshold < jww.LevelTrace || threshold > jww.LevelFatal {
		panic("Invalid log threshold: " + strconv.Itoa(int(threshold)))
	}

	// Display microseconds if the threshold is set to TRACE or DEBUG
	if threshold == jww.LevelTrace || threshold == jww.LevelDebug {
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	jww.SetStdoutThreshold(threshold)
	jww.SetLogThreshold(threshold)
	jww.INFO.Printf("Log level set to: %s", threshold)
}
