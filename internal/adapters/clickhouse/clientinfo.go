package clickhouse

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// buildClientInfo describes this process to the server so shipped batches
// can be attributed in system.query_log.
func buildClientInfo() clickhouse.ClientInfo {
	host, _ := os.Hostname()

	return clickhouse.ClientInfo{
		Products: []struct{ Name, Version string }{
			{Name: "rowship", Version: vcsShortSHA()},
			{Name: "go", Version: runtime.Version()},
			{Name: "host", Version: host},
		},
	}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
