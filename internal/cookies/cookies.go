// Package cookies parses browser-exported cookie JSON and normalizes it
// for CDP injection.
package cookies

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Cookie mirrors the schema produced by common cookie-export extensions.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
	SameSite string  `json:"sameSite"`
	Expires  float64 `json:"expirationDate"`
}

// Parse decodes a cookie export and sanitizes it.
func Parse(data []byte) ([]Cookie, error) {
	var cs []Cookie
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parsing cookies: %w", err)
	}
	return Sanitize(cs), nil
}

// Load reads and parses a cookies.json file.
func Load(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cookies from %s: %w", path, err)
	}
	return Parse(data)
}

// Sanitize normalizes exported cookies to the values CDP accepts. Export
// extensions emit sameSite variants like "no_restriction" or lowercase
// "lax" that the protocol rejects.
func Sanitize(cs []Cookie) []Cookie {
	out := make([]Cookie, len(cs))
	for i, c := range cs {
		switch strings.ToLower(c.SameSite) {
		case "no_restriction":
			c.SameSite = "None"
		case "lax":
			c.SameSite = "Lax"
		case "strict":
			c.SameSite = "Strict"
		case "":
			// absent stays absent
		default:
			c.SameSite = "Lax"
		}
		if c.Path == "" {
			c.Path = "/"
		}
		out[i] = c
	}
	return out
}
