package geo

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"plastikhb/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// HTTPLocator resolves an IP address to a city through a JSON lookup endpoint
// such as ipapi.co. The endpoint must answer with an object carrying a "city" field.
type HTTPLocator struct {
	urlTemplate string // contains a single %s for the IP
	timeout     time.Duration
}

// NewHTTPLocator returns a locator for urlTemplate, e.g. "https://ipapi.co/%s/json/".
func NewHTTPLocator(urlTemplate string, timeout time.Duration) *HTTPLocator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPLocator{urlTemplate: urlTemplate, timeout: timeout}
}

type lookupResponse struct {
	City  string `json:"city"`
	Error bool   `json:"error"`
}

// Locate returns the city for ip. ok is false whenever the lookup could not produce a city.
func (l *HTTPLocator) Locate(ip string) (string, bool) {
	if net.ParseIP(ip) == nil || !strings.Contains(l.urlTemplate, "%s") {
		return "", false
	}

	agent := fiber.Get(fmt.Sprintf(l.urlTemplate, ip)).Timeout(l.timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		logger.Debug().Errs("errors", errs).Str("ip", ip).Msg("geolocation lookup failed")
		return "", false
	}
	if code != fiber.StatusOK {
		logger.Debug().Int("status", code).Str("ip", ip).Msg("geolocation lookup rejected")
		return "", false
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error {
		return "", false
	}

	city := strings.TrimSpace(resp.City)
	return city, city != ""
}
