package ports

import "net/http"

// HTTPClient sends requests to the Authorize.net API. *http.Client satisfies it;
// tests substitute a stub.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
