package auction

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
)

const (
	codeLength     = 6
	codeGenRetries = 5
)

// codeGenerator produces short public auction codes (e.g. "A7KQ2M") used by
// the router layer instead of database identifiers.
type codeGenerator struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func newCodeGenerator() *codeGenerator {
	return &codeGenerator{used: make(map[string]struct{})}
}

func (g *codeGenerator) next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < codeGenRetries; i++ {
		bytes := make([]byte, 4)
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}

		encoded := base32.StdEncoding.EncodeToString(bytes)
		code := strings.ToUpper(encoded[:codeLength])

		if _, exists := g.used[code]; !exists {
			g.used[code] = struct{}{}
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique auction code after %d attempts", codeGenRetries)
}
