package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storacha/sizetracker/internal/build"
	"github.com/storacha/sizetracker/internal/failure"
)

func (s *Server) getRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "📏 sizetracker %s\n", build.Version)
		fmt.Fprint(w, "- https://github.com/storacha/sizetracker\n")
	}
}

func (s *Server) getMetricsHandler() http.Handler {
	promHandler := promhttp.Handler()
	expected := []byte("Bearer " + s.cfg.metricsEndpointToken)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		promHandler.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response: %s", err)
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	res := failure.NewResponse(err)
	writeJSON(w, failure.HTTPStatus(res.Kind), res)
}
