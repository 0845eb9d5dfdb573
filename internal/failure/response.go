package failure

import "net/http"

// Response is the payload reported for a failed invocation.
type Response struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func NewResponse(err error) Response {
	return Response{Kind: KindOf(err), Message: err.Error()}
}

// HTTPStatus maps a kind to a status code. Retryable kinds are 503 so that
// callers and load balancers retry them.
func HTTPStatus(k Kind) int {
	if Retryable(k) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
