package network

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/samber/lo"
)

// DNSSystem uses the operating system resolver.
const DNSSystem = "system"

// Resolvers maps a DNS choice to the server it queries.
var Resolvers = map[string]string{
	"cloudflare": "1.1.1.1:53",
	"google":     "8.8.8.8:53",
	"quad9":      "9.9.9.9:53",
}

// DNSChoices lists every accepted DNS preference value.
func DNSChoices() []string {
	choices := lo.Keys(Resolvers)
	sort.Strings(choices)
	return append([]string{DNSSystem}, choices...)
}

// ValidDNS reports whether name is an accepted DNS preference value.
func ValidDNS(name string) bool {
	return lo.Contains(DNSChoices(), name)
}

// NewResolver returns the resolver for a DNS choice. Unknown names and the
// system choice return nil, which makes the dialer use the default resolver.
func NewResolver(name string) *net.Resolver {
	server, ok := Resolvers[name]
	if !ok {
		return nil
	}

	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: 5 * time.Second}
			return d.DialContext(ctx, network, server)
		},
	}
}
