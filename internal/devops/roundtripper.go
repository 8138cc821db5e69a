package devops

import (
	"net/http"

	"golang.org/x/oauth2"
)

// basicAuthRoundTripper attaches a personal access token as a basic
// credential with an empty user name.
type basicAuthRoundTripper struct {
	transport http.RoundTripper
	token     string
}

func newBasicAuthRoundTripper(token string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &basicAuthRoundTripper{
		transport: base,
		token:     token,
	}
}

// RoundTrip implements the http.RoundTripper interface
func (rt *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.SetBasicAuth("", rt.token)
	return rt.transport.RoundTrip(clonedReq)
}

// newBearerRoundTripper attaches token as an OAuth bearer credential.
func newBearerRoundTripper(token string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
}

// headerRoundTripper stamps every request with the client's identity headers.
type headerRoundTripper struct {
	transport http.RoundTripper
	userAgent string
	sessionID string
}

func newHeaderRoundTripper(userAgent, sessionID string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &headerRoundTripper{
		transport: base,
		userAgent: userAgent,
		sessionID: sessionID,
	}
}

// RoundTrip implements the http.RoundTripper interface
func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", rt.userAgent)
	if rt.sessionID != "" {
		clonedReq.Header.Set("X-TFS-Session", rt.sessionID)
	}
	if clonedReq.Header.Get("Accept") == "" {
		clonedReq.Header.Set("Accept", "application/json")
	}
	return rt.transport.RoundTrip(clonedReq)
}
