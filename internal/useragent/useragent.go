// Package useragent composes the User-Agent sent with every Azure DevOps
// request. The peer's identity is only known once the MCP handshake has
// completed, so the composer is a small mutable cell that the handshake hook
// writes and the client factory reads.
package useragent

import (
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Product is the product token at the start of every user agent.
const Product = "AzureDevOps.MCP"

// Composer accumulates the product version and the connected client's
// identity.
type Composer struct {
	version string

	mu         sync.RWMutex
	clientInfo string
}

// New returns a composer for the given product version.
func New(version string) *Composer {
	return &Composer{version: version}
}

// AppendClientInfo records the connected client's name and version. Despite
// the name, a later call replaces the earlier value. A nil or nameless info
// leaves the state untouched.
func (c *Composer) AppendClientInfo(info *mcp.Implementation) {
	if info == nil || info.Name == "" {
		return
	}

	client := info.Name
	if info.Version != "" {
		client = fmt.Sprintf("%s/%s", info.Name, info.Version)
	}

	c.mu.Lock()
	c.clientInfo = client
	c.mu.Unlock()
}

// Current returns the composed user agent.
func (c *Composer) Current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.clientInfo == "" {
		return fmt.Sprintf("%s/%s", Product, c.version)
	}
	return fmt.Sprintf("%s/%s (%s)", Product, c.version, c.clientInfo)
}

// HasClientInfo reports whether the handshake has been observed.
func (c *Composer) HasClientInfo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientInfo != ""
}
