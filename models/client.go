package models

// ClientRegistration mirrors the client record held by the identity
// provider: the gateway consumes it as configuration input and never
// manages it.
type ClientRegistration struct {
	ClientID      string   `json:"client_id"`
	RedirectURIs  []string `json:"redirect_uris"`
	AllowedScopes []string `json:"allowed_scopes"`
}

// AllowsRedirect reports whether uri is one of the registered redirect
// URIs. Matching is exact: no prefix or wildcard semantics.
func (c *ClientRegistration) AllowsRedirect(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}
