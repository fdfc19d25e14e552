package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
)

// Demo scopes advertised by the sample endpoints.
const (
	ScopeDemoTestAPI = "demo-test-api-scope"
	ScopeDemoAdmin   = "demo-admin-scope"
)

// RegisterDemoOperations registers the sample endpoints the explorer can
// exercise: an anonymous probe, a scope-protected write and an
// admin-scoped read.
func RegisterDemoOperations(ops *registry.OperationRegistry) error {
	demo := []*models.Operation{
		{
			Method:         http.MethodGet,
			Path:           "/demo",
			AllowAnonymous: true,
			Summary:        "Anonymous demo endpoint",
			Tags:           []string{"demo"},
			Responses:      map[int]string{http.StatusOK: "OK"},
			Handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "hello", "time": time.Now().UTC().Format(time.RFC3339)})
			},
		},
		{
			Method:    http.MethodPost,
			Path:      "/demo/post",
			Scopes:    []string{ScopeDemoTestAPI},
			Summary:   "Protected demo write",
			Tags:      []string{"demo"},
			Responses: map[int]string{http.StatusOK: "OK"},
			Handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"message": "authorized write accepted",
					"scopes":  c.GetStringSlice("token_scopes"),
				})
			},
		},
		{
			Method:    http.MethodGet,
			Path:      "/demo/admin",
			Scopes:    []string{ScopeDemoAdmin},
			Summary:   "Admin-scoped demo read",
			Tags:      []string{"demo"},
			Responses: map[int]string{http.StatusOK: "OK"},
			Handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "admin access granted"})
			},
		},
	}
	for _, op := range demo {
		if err := ops.Register(op); err != nil {
			return err
		}
	}
	return nil
}
