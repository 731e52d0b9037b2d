package utils

import (
	"net/http"
	"strconv"

	"github.com/airenas/go-app/pkg/goapp"

	_ "net/http/pprof"
)

// RunPerfEndpoint serves pprof handlers on port, skips if port <= 0
func RunPerfEndpoint(port int) {
	if port <= 0 {
		goapp.Log.Info().Msgf("no debug.port provided - skip perf")
		return
	}
	goapp.Log.Info().Msgf("Starting Debug http endpoint at [::]:%d", port)
	if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
		goapp.Log.Error().Err(err).Msg("can't start Debug endpoint")
	}
}
