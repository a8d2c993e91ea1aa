// Package testserver provides a local HTTP server that echoes requests back
// as JSON. It is used by integration tests only.
package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Echo is the JSON document written by the echo endpoints.
type Echo struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Query   map[string]string `json:"query"`
	Payload any               `json:"payload"`
}

// Server is a running echo server.
//
// Routes:
//
//	/status/{code}   replies with the given status and an echo body
//	/redirect        redirects to /redirected with 302
//	/slow?delay=1s   waits before echoing, or until the client goes away
//	/*               echoes the request
type Server struct {
	*httptest.Server
}

// New starts a server on a random local port. Call Close when done.
func New() *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.HandleFunc("/status/{code}", handleStatus)
	r.HandleFunc("/redirect", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/redirected", http.StatusFound)
	})
	r.HandleFunc("/slow", handleSlow)
	r.HandleFunc("/", handleEcho)
	r.HandleFunc("/*", handleEcho)

	return &Server{Server: httptest.NewServer(r)}
}

// URLFor returns the absolute URL of path on this server.
func (s *Server) URLFor(path string) string {
	return s.URL + "/" + strings.TrimLeft(path, "/")
}

func handleEcho(w http.ResponseWriter, r *http.Request) {
	writeEcho(w, r, http.StatusOK)
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	writeEcho(w, r, code)
}

func handleSlow(w http.ResponseWriter, r *http.Request) {
	delay, err := time.ParseDuration(r.URL.Query().Get("delay"))
	if err != nil {
		delay = time.Second
	}

	select {
	case <-time.After(delay):
		writeEcho(w, r, http.StatusOK)
	case <-r.Context().Done():
	}
}

func writeEcho(w http.ResponseWriter, r *http.Request, status int) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	echo := Echo{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: make(map[string]string),
		Query:   firstValues(r.URL.Query()),
		Payload: decodeBody(r.Header.Get("Content-Type"), body),
	}
	for key, values := range r.Header {
		echo.Headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Response", "sttp")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(echo)
}

func decodeBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return string(body)
		}
		return firstValues(values)
	case strings.HasPrefix(contentType, "application/json"):
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			return string(body)
		}
		return payload
	default:
		return string(body)
	}
}

func firstValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}
