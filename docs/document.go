package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/legit-games/apidocs-gateway/models"
)

// Info describes the documented service.
type Info struct {
	Title       string
	Version     string
	Description string
}

// BuildDocument renders the annotated operations into an OpenAPI 3
// document. Iteration is ordered throughout so repeated builds over the
// same registries produce byte-identical output.
func BuildDocument(info Info, annotated []*models.AnnotatedOperation, schemes []*models.SecurityScheme) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			SecuritySchemes: make(openapi3.SecuritySchemes, len(schemes)),
		},
	}

	for _, scheme := range schemes {
		doc.Components.SecuritySchemes[scheme.Name] = &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type: "oauth2",
				Flows: &openapi3.OAuthFlows{
					Implicit: &openapi3.OAuthFlow{
						AuthorizationURL: scheme.AuthorizationURL,
						Scopes:           scheme.Scopes,
					},
				},
			},
		}
	}

	for _, ann := range annotated {
		docPath, params := toDocumentPath(ann.Path)
		item := doc.Paths.Value(docPath)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(docPath, item)
		}

		op := &openapi3.Operation{
			Summary:     ann.Summary,
			Description: ann.Description,
			Tags:        append([]string(nil), ann.Tags...),
			Responses:   renderResponses(ann.Responses),
		}
		for _, name := range params {
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     name,
					In:       openapi3.ParameterInPath,
					Required: true,
					Schema:   openapi3.NewStringSchema().NewRef(),
				},
			})
		}
		if ann.Requirement != nil {
			req := openapi3.NewSecurityRequirement().
				Authenticate(ann.Requirement.Scheme, ann.Requirement.Scopes...)
			op.Security = openapi3.NewSecurityRequirements().With(req)
		}
		item.SetOperation(ann.Method, op)
	}

	return doc, nil
}

// renderResponses converts the declared status->description map into
// openapi3 responses in ascending status order. Every operation documents
// a 200 even when the handler declared nothing.
func renderResponses(declared map[int]string) *openapi3.Responses {
	if len(declared) == 0 {
		declared = map[int]string{200: "OK"}
	}
	codes := make([]int, 0, len(declared))
	for code := range declared {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	responses := &openapi3.Responses{}
	for _, code := range codes {
		desc := declared[code]
		responses.Set(fmt.Sprintf("%d", code), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(desc),
		})
	}
	return responses
}

// toDocumentPath rewrites gin-style ":param" segments into OpenAPI
// "{param}" segments and reports the parameter names in path order.
func toDocumentPath(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			name := seg[1:]
			segments[i] = "{" + name + "}"
			params = append(params, name)
		}
	}
	return strings.Join(segments, "/"), params
}
