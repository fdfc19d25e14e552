package models

import (
	"github.com/gin-gonic/gin"
)

// Operation describes one callable (method, path) pair of the protected
// service, populated at registration time from handler metadata and never
// mutated afterwards.
type Operation struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc

	// Scopes is the set of scopes the operation requires. An empty set on
	// a non-anonymous operation falls back to the scheme's full scope set
	// during annotation.
	Scopes []string

	// AllowAnonymous marks the operation callable without a token. No
	// security requirement or 401/403 responses are documented for it.
	AllowAnonymous bool

	Summary     string
	Description string
	Tags        []string

	// Responses maps documented status codes to their descriptions as
	// declared by the handler. Annotation adds 401/403 entries for
	// protected operations only when the handler did not declare them.
	Responses map[int]string
}

// Key returns the registry identity of the operation.
func (o *Operation) Key() string {
	return o.Method + " " + o.Path
}

// Clone returns a deep copy so annotation never aliases registry state.
func (o *Operation) Clone() *Operation {
	cp := *o
	cp.Scopes = append([]string(nil), o.Scopes...)
	cp.Tags = append([]string(nil), o.Tags...)
	if o.Responses != nil {
		cp.Responses = make(map[int]string, len(o.Responses))
		for code, desc := range o.Responses {
			cp.Responses[code] = desc
		}
	}
	return &cp
}

// SecurityRequirement is the per-operation requirement derived during
// annotation: the scheme to satisfy and the scopes a token must cover.
type SecurityRequirement struct {
	Scheme string   `json:"scheme"`
	Scopes []string `json:"scopes"`
}

// AnnotatedOperation is an Operation enriched with its derived security
// requirement. Requirement is nil exactly when the operation is anonymous.
type AnnotatedOperation struct {
	*Operation
	Requirement *SecurityRequirement
}
