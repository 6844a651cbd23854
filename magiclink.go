package totpflow

import (
	"net/http"
	"net/url"
	"strings"
)

// buildMagicLink renders the callback URL embedding the raw code as a query
// parameter. Pure string construction; no network or state effects. Never
// called when magic links are disabled.
func buildMagicLink(cfg MagicLinkConfig, codeParam, code string, r *http.Request) (string, error) {
	base := cfg.HostURL
	if base == "" {
		scheme := "http"
		if r != nil && r.TLS != nil {
			scheme = "https"
		}
		host := ""
		if r != nil {
			host = r.Host
		}
		base = scheme + "://" + host
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + cfg.CallbackPath

	q := u.Query()
	q.Set(codeParam, code)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
