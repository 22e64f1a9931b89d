package observability

import (
	"net/http"
	"net/http/pprof"
)

const debugPath = "/debug/pprof/"

// Named runtime profiles served next to the index. The analysis loop is
// allocation heavy, so allocs and heap are the ones usually wanted.
var debugProfiles = []string{"allocs", "heap", "goroutine", "block", "mutex", "threadcreate"}

// RegisterDebugHandlers mounts pprof on mux.
func RegisterDebugHandlers(mux *http.ServeMux) {
	mux.HandleFunc(debugPath, pprof.Index)
	mux.HandleFunc(debugPath+"cmdline", pprof.Cmdline)
	mux.HandleFunc(debugPath+"profile", pprof.Profile)
	mux.HandleFunc(debugPath+"symbol", pprof.Symbol)
	mux.HandleFunc(debugPath+"trace", pprof.Trace)
	for _, name := range debugProfiles {
		mux.Handle(debugPath+name, pprof.Handler(name))
	}
}
