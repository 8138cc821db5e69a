// Package auth selects how a bearer credential for the Azure DevOps
// organization is obtained.
//
// The set of strategies is closed: interactive browser login, the local Azure
// CLI session, service principal environment variables, a raw token in an
// environment variable, or a personal access token (PAT) supplied by
// configuration. NewTokenProvider dispatches on the strategy once, at startup,
// and returns a TokenProvider that the client factory calls for every client
// it builds.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Strategy names a way of obtaining a credential.
type Strategy string

const (
	Interactive Strategy = "interactive"
	AzureCLI    Strategy = "azcli"
	Env         Strategy = "env"
	EnvVar      Strategy = "envvar"
	PAT         Strategy = "pat"
)

var strategies = []Strategy{Interactive, AzureCLI, Env, EnvVar, PAT}

var (
	// ErrMissingCredential means the chosen strategy has nothing to read.
	ErrMissingCredential = errors.New("missing credential")

	// ErrAuthFailed means the identity provider rejected or could not
	// complete the token request.
	ErrAuthFailed = errors.New("authentication failed")
)

// Strategies returns every supported strategy.
func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

// ParseStrategy validates an operator-supplied strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range strategies {
		if string(s) == name {
			return s, nil
		}
	}
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = string(s)
	}
	return "", fmt.Errorf("unsupported authentication strategy %q (valid options: %s)", name, strings.Join(names, ", "))
}

// DefaultStrategy picks azcli inside GitHub Codespaces, where no browser is
// reachable, and interactive everywhere else.
func DefaultStrategy() Strategy {
	if os.Getenv("CODESPACES") == "true" {
		return AzureCLI
	}
	return Interactive
}

// UsesTenant reports whether the strategy is scoped by a tenant id.
func (s Strategy) UsesTenant() bool {
	return s == Interactive || s == AzureCLI
}

// UsesBasicAuth reports whether tokens from this strategy are attached as a
// PAT-style basic credential rather than a bearer token.
func (s Strategy) UsesBasicAuth() bool {
	return s == PAT
}

func (s Strategy) String() string {
	return string(s)
}
