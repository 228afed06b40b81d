// Package backendtest provides a backend recording the headers of the
// requests it receives and responding with preset headers.
package backendtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	log "github.com/sirupsen/logrus"
)

type RecordedRequest struct {
	Host   string
	Path   string
	Header http.Header
}

type BackendRecorderHandler struct {
	server          *httptest.Server
	requests        []RecordedRequest
	mutex           sync.RWMutex
	responseHeaders http.Header
}

// NewBackendRecorder starts a backend that responds with 200 and the
// given headers. It needs to be closed.
func NewBackendRecorder(responseHeaders http.Header) *BackendRecorderHandler {
	rec := &BackendRecorderHandler{responseHeaders: responseHeaders.Clone()}
	rec.server = httptest.NewServer(rec)
	return rec
}

func (rec *BackendRecorderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, err := io.Copy(io.Discard, r.Body); err != nil {
		log.Error("backendrecorder: error while reading request body")
	}

	rec.mutex.Lock()
	rec.requests = append(rec.requests, RecordedRequest{
		Host:   r.Host,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
	})
	rec.mutex.Unlock()

	for k, v := range rec.responseHeaders {
		w.Header()[k] = append([]string(nil), v...)
	}

	w.WriteHeader(http.StatusOK)
}

func (rec *BackendRecorderHandler) GetRequests() []RecordedRequest {
	rec.mutex.RLock()
	requests := append([]RecordedRequest(nil), rec.requests...)
	rec.mutex.RUnlock()
	return requests
}

// LastRequest returns the last recorded request, or false if there was
// none.
func (rec *BackendRecorderHandler) LastRequest() (RecordedRequest, bool) {
	rec.mutex.RLock()
	defer rec.mutex.RUnlock()
	if len(rec.requests) == 0 {
		return RecordedRequest{}, false
	}

	return rec.requests[len(rec.requests)-1], true
}

func (rec *BackendRecorderHandler) GetURL() string {
	return rec.server.URL
}

// Address returns the host:port of the backend.
func (rec *BackendRecorderHandler) Address() string {
	return rec.server.Listener.Addr().String()
}

func (rec *BackendRecorderHandler) Close() {
	rec.server.Close()
}
