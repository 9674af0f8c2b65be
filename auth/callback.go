package auth

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sync"
)

// AuthorizationResult is the single value handed from the redirect listener
// to the waiting flow. Exactly one of Code or Error is set.
type AuthorizationResult struct {
	Code  string
	Error string
}

// newCallbackHandler serves the redirect path. The first request on that
// path produces the result; later ones are rejected with 409.
func newCallbackHandler(path, state string, results chan<- AuthorizationResult) http.Handler {
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		first := false
		once.Do(func() { first = true })
		if !first {
			http.Error(w, "authorization already handled", http.StatusConflict)
			return
		}

		result := parseCallback(r.URL.Query(), state)
		if result.Code != "" {
			writePage(w, "Authorization successful! You can close this tab.")
		} else {
			writePage(w, "Authorization failed: "+result.Error)
		}
		results <- result
	})
	return mux
}

func parseCallback(q url.Values, state string) AuthorizationResult {
	if code := q.Get("code"); code != "" {
		if q.Get("state") != state {
			return AuthorizationResult{Error: "state mismatch"}
		}
		return AuthorizationResult{Code: code}
	}

	reason := q.Get("error")
	if reason == "" {
		reason = "unknown"
	}
	if desc := q.Get("error_description"); desc != "" {
		reason += ": " + desc
	}
	return AuthorizationResult{Error: reason}
}

func writePage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<html><body><h2>%s</h2></body></html>", html.EscapeString(message))
}
