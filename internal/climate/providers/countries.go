package providers

import (
	"strings"

	"github.com/biter777/countries"
)

// Alpha3 converts an ISO 3166 alpha-2 code, alpha-3 code or English country
// name (any case) to the alpha-3 code the World Bank API expects. Anything
// that is not a real country yields "".
func Alpha3(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	c := countries.ByName(code)
	if c == countries.Unknown || !c.IsValid() {
		return ""
	}
	return c.Alpha3()
}
