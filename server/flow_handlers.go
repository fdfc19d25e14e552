package server

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"

	"github.com/legit-games/apidocs-gateway/errors"
)

// CallbackPath is the fixed redirect target registered with the identity
// provider. The token arrives in the URL fragment, which never reaches
// the server, so the GET page relays it back via POST.
const CallbackPath = "/oauth2/callback"

const flowSessionKey = "flow_id"

// startFlowRequest is the explorer's request to begin an authorization
// attempt.
type startFlowRequest struct {
	Scheme      string   `json:"scheme"`
	RedirectURI string   `json:"redirect_uri"`
	Scopes      []string `json:"scopes"`
}

// HandleStartFlow creates a fresh flow instance and returns the
// authorization URL the browser should navigate to. The instance id is
// also bound to the browser session, so two tabs each get their own
// flow.
func (s *Server) HandleStartFlow(c *gin.Context) {
	var req startFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "malformed flow request body",
		})
		return
	}
	if req.Scheme == "" {
		req.Scheme = s.Config.Scheme.Name
	}
	if req.RedirectURI == "" && len(s.Config.Client.RedirectURIs) > 0 {
		req.RedirectURI = s.Config.Client.RedirectURIs[0]
	}

	auth, err := s.Orchestrator.NewAuthorization(c.Request.Context(), req.Scheme, req.RedirectURI, req.Scopes)
	if err != nil {
		abortWith(c, err)
		return
	}

	if store, serr := session.Start(c.Request.Context(), c.Writer, c.Request); serr != nil {
		log.Printf("[gateway] session start failed, flow %s not bound: %v", auth.FlowID, serr)
	} else {
		store.Set(flowSessionKey, auth.FlowID)
		if serr := store.Save(); serr != nil {
			log.Printf("[gateway] session save failed, flow %s not bound: %v", auth.FlowID, serr)
		}
	}

	c.JSON(http.StatusCreated, auth)
}

// HandleCallbackPage serves the relay page at the provider's redirect
// target. Its only job is to forward the fragment parameters, which the
// server cannot see, to the POST endpoint along with the session's flow
// id.
func (s *Server) HandleCallbackPage(c *gin.Context) {
	html := `<!doctype html><html><head><meta charset="utf-8"/><title>Completing authorization</title></head>
	<body><p>Completing authorization&hellip;</p>
	<script>
	(function() {
		var params = window.location.hash ? window.location.hash.substring(1) : window.location.search.substring(1);
		fetch('` + CallbackPath + `', {
			method: 'POST',
			headers: {'Content-Type': 'application/x-www-form-urlencoded'},
			body: params
		}).then(function(resp) { return resp.json(); }).then(function(body) {
			if (window.opener && window.opener.postMessage) {
				window.opener.postMessage(body, window.location.origin);
			}
			document.body.textContent = body.error ? 'Authorization failed: ' + body.error : 'Authorization complete. You can close this window.';
		});
	})();
	</script></body></html>`
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// HandleCallbackComplete receives the relayed fragment parameters and
// drives the orchestrator. Flow errors surface as a failed authorization
// attempt; the browser retries by starting a new flow. On success the
// token is returned to the browser session and is not retained
// server-side.
func (s *Server) HandleCallbackComplete(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		abortWith(c, errors.ErrMalformedToken)
		return
	}

	flowID := values.Get("flow_id")
	if flowID == "" {
		store, serr := session.Start(c.Request.Context(), c.Writer, c.Request)
		if serr != nil {
			log.Printf("[gateway] session start failed during callback: %v", serr)
		} else if v, ok := store.Get(flowSessionKey); ok {
			flowID, _ = v.(string)
		}
	}
	if flowID == "" {
		abortWith(c, errors.ErrFlowNotFound)
		return
	}

	token, err := s.Orchestrator.ReceiveCallback(c.Request.Context(), flowID, values)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}
