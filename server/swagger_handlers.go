package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleDocumentJSON serves the annotated operation catalog rendered at
// startup. The bytes are fixed for the process lifetime.
func (s *Server) HandleDocumentJSON(c *gin.Context) {
	c.Data(http.StatusOK, "application/json;charset=UTF-8", s.documentJSON)
}

// HandleExplorerUI serves a minimal Swagger UI shell that reads
// /swagger.json and runs the implicit flow with the configured client id
// against the gateway's own redirect endpoint.
func (s *Server) HandleExplorerUI(c *gin.Context) {
	html := `<!doctype html><html><head><meta charset="utf-8"/><title>API Explorer</title>
	<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
	</head><body><div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
	<script>window.ui = SwaggerUIBundle({
		url: '/swagger.json',
		dom_id: '#swagger-ui',
		oauth2RedirectUrl: window.location.origin + '` + CallbackPath + `'
	});
	window.ui.initOAuth({ clientId: '` + s.Config.Client.ClientID + `' });</script>
	</body></html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
