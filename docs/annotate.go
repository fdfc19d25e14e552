// Package docs derives each operation's advertised security requirement
// and renders the machine-readable operation catalog the explorer reads.
package docs

import (
	"net/http"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
)

// Annotate enriches every operation with its security requirement against
// the named scheme. The transform is pure and deterministic: the same
// registries always yield the same annotated sequence, and running it
// twice changes nothing.
//
// Anonymous operations pass through untouched. Protected operations gain
// documented 401/403 responses (unless the handler already declares them)
// and a requirement carrying the operation's declared scopes. An operation
// that declares no scopes falls back to the scheme's full scope set; see
// the note on FallbackToAllScopes.
func Annotate(ops []*models.Operation, schemes *registry.SchemeRegistry, schemeName string) ([]*models.AnnotatedOperation, error) {
	scheme, ok := schemes.Get(schemeName)
	if !ok {
		return nil, errors.ErrUnknownScheme
	}

	out := make([]*models.AnnotatedOperation, 0, len(ops))
	for _, op := range ops {
		if op.AllowAnonymous {
			out = append(out, &models.AnnotatedOperation{Operation: op})
			continue
		}

		enriched := op.Clone()
		if enriched.Responses == nil {
			enriched.Responses = make(map[int]string, 2)
		}
		if _, declared := enriched.Responses[http.StatusUnauthorized]; !declared {
			enriched.Responses[http.StatusUnauthorized] = "Unauthorized"
		}
		if _, declared := enriched.Responses[http.StatusForbidden]; !declared {
			enriched.Responses[http.StatusForbidden] = "Forbidden"
		}

		required := append([]string(nil), enriched.Scopes...)
		if len(required) == 0 {
			// FallbackToAllScopes: a protected operation with no declared
			// scopes advertises and enforces the scheme's entire scope
			// set. Declaring scopes explicitly is the safer configuration.
			required = scheme.ScopeNames()
		}

		out = append(out, &models.AnnotatedOperation{
			Operation: enriched,
			Requirement: &models.SecurityRequirement{
				Scheme: scheme.Name,
				Scopes: required,
			},
		})
	}
	return out, nil
}
