// Command nem12 ingests NEM12 interval meter data into PostgreSQL.
//
//	nem12 serve                    HTTP API, dashboard and inbox watcher
//	nem12 ingest <file|dir>...     ingest files once and exit
//	nem12 parse <file>             dry run, print readings and the audit
//	nem12 migrate up|down          apply or roll back the schema
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
