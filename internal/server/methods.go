package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const maxEventSize = 1 << 20

// postSampleHandler samples the bucket. The body is optional and, when
// present, must be an S3 event notification.
func (s *Server) postSampleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "event notification too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "reading request body", http.StatusBadRequest)
			return
		}

		var ev events.S3Event
		if len(body) > 0 {
			if err := json.Unmarshal(body, &ev); err != nil {
				http.Error(w, "invalid S3 event notification", http.StatusBadRequest)
				return
			}
		}

		res, err := s.handlers.HandleS3Event(r.Context(), ev)
		if err != nil {
			writeFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) getPlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.plotter.RenderPlot(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
