package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	// Scope is the Azure DevOps resource scope requested from Entra ID.
	Scope = "499b84ac-1321-427f-aa17-267ca6975798/.default"

	// TokenEnvVar holds a raw access token for the envvar strategy.
	TokenEnvVar = "ADO_MCP_AUTH_TOKEN"

	// interactiveClientID is the public client registered for the browser flow.
	interactiveClientID = "0d50963b-7bb9-4fe7-94c7-a99af00b5136"
)

// TokenProvider returns a fresh access token. Calls may block on a browser
// prompt, a CLI subprocess or a network round-trip.
type TokenProvider func(ctx context.Context) (string, error)

// Credential constructors, replaced in tests.
var (
	newInteractiveCredential = func(tenantID string) (azcore.TokenCredential, error) {
		return azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			ClientID: interactiveClientID,
			TenantID: tenantID,
		})
	}

	newAzureCLICredential = func(tenantID string) (azcore.TokenCredential, error) {
		return azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: tenantID,
		})
	}

	newEnvironmentCredential = func() (azcore.TokenCredential, error) {
		return azidentity.NewEnvironmentCredential(nil)
	}
)

// NewTokenProvider builds the TokenProvider for strategy. tenantID is only
// used by interactive and azcli. staticCredential is required for pat, and a
// missing one fails here rather than on first use.
func NewTokenProvider(strategy Strategy, tenantID, staticCredential string) (TokenProvider, error) {
	switch strategy {
	case Interactive:
		cred, err := newInteractiveCredential(tenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: interactive credential: %w", ErrAuthFailed, err)
		}
		return credentialProvider(cred), nil

	case AzureCLI:
		cred, err := newAzureCLICredential(tenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: azure cli credential: %w", ErrAuthFailed, err)
		}
		return credentialProvider(cred), nil

	case Env:
		return environmentProvider, nil

	case EnvVar:
		return envVarProvider, nil

	case PAT:
		if staticCredential == "" {
			return nil, fmt.Errorf("%w: the pat strategy requires a personal access token", ErrMissingCredential)
		}
		return func(context.Context) (string, error) {
			return staticCredential, nil
		}, nil

	default:
		return nil, fmt.Errorf("unsupported authentication strategy %q", strategy)
	}
}

func credentialProvider(cred azcore.TokenCredential) TokenProvider {
	return func(ctx context.Context) (string, error) {
		return getToken(ctx, cred)
	}
}

func getToken(ctx context.Context, cred azcore.TokenCredential) (string, error) {
	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	if tok.Token == "" {
		return "", fmt.Errorf("%w: identity provider returned an empty token", ErrAuthFailed)
	}
	return tok.Token, nil
}

// environmentProvider reads service principal settings on every call so that
// a missing variable surfaces per request instead of at startup.
func environmentProvider(ctx context.Context) (string, error) {
	cred, err := newEnvironmentCredential()
	if err != nil {
		return "", fmt.Errorf("%w: environment credential: %w", ErrMissingCredential, err)
	}
	return getToken(ctx, cred)
}

func envVarProvider(context.Context) (string, error) {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrMissingCredential, TokenEnvVar)
	}
	return token, nil
}
