package docs

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/legit-games/apidocs-gateway/models"
)

func buildTestDocument(t *testing.T) map[string]interface{} {
	t.Helper()
	schemes := testSchemes(t)
	ops := []*models.Operation{
		{Method: "GET", Path: "/demo", AllowAnonymous: true, Summary: "Anonymous demo endpoint"},
		{Method: "POST", Path: "/demo/post", Scopes: []string{"demo-test-api-scope"}},
		{Method: "GET", Path: "/items/:id", Scopes: []string{"demo-admin-scope"}},
	}
	annotated, err := Annotate(ops, schemes, "oauth2")
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	doc, err := BuildDocument(Info{Title: "Demo API", Version: "1.0.0"}, annotated, schemes.All())
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return out
}

func lookup(t *testing.T, doc map[string]interface{}, path ...string) interface{} {
	t.Helper()
	var cur interface{} = doc
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			t.Fatalf("lookup %v: %T is not an object", path, cur)
		}
		cur, ok = m[key]
		if !ok {
			t.Fatalf("lookup %v: key %q missing", path, key)
		}
	}
	return cur
}

func TestDocumentSecurityScheme(t *testing.T) {
	doc := buildTestDocument(t)

	implicit := lookup(t, doc, "components", "securitySchemes", "oauth2", "flows", "implicit").(map[string]interface{})
	if implicit["authorizationUrl"] != "https://idp.example.com/oauth/authorize" {
		t.Fatalf("authorizationUrl = %v", implicit["authorizationUrl"])
	}
	scopes := implicit["scopes"].(map[string]interface{})
	if len(scopes) != 2 {
		t.Fatalf("expected 2 published scopes, got %v", scopes)
	}

	schemeType := lookup(t, doc, "components", "securitySchemes", "oauth2", "type")
	if schemeType != "oauth2" {
		t.Fatalf("scheme type = %v", schemeType)
	}
}

func TestDocumentAnonymousOperationHasNoSecurityBlock(t *testing.T) {
	doc := buildTestDocument(t)

	get := lookup(t, doc, "paths", "/demo", "get").(map[string]interface{})
	if _, has := get["security"]; has {
		t.Fatal("anonymous operation must not render a security block")
	}
	responses := get["responses"].(map[string]interface{})
	if _, has := responses["401"]; has {
		t.Fatal("anonymous operation must not document 401")
	}
	if _, has := responses["403"]; has {
		t.Fatal("anonymous operation must not document 403")
	}
}

func TestDocumentProtectedOperationShape(t *testing.T) {
	doc := buildTestDocument(t)

	post := lookup(t, doc, "paths", "/demo/post", "post").(map[string]interface{})

	security := post["security"].([]interface{})
	want := []interface{}{map[string]interface{}{"oauth2": []interface{}{"demo-test-api-scope"}}}
	if !reflect.DeepEqual(security, want) {
		t.Fatalf("security = %v, want %v", security, want)
	}

	responses := post["responses"].(map[string]interface{})
	for _, code := range []string{"200", "401", "403"} {
		if _, has := responses[code]; !has {
			t.Fatalf("protected operation missing documented %s", code)
		}
	}
}

func TestDocumentPathParameters(t *testing.T) {
	doc := buildTestDocument(t)

	get := lookup(t, doc, "paths", "/items/{id}", "get").(map[string]interface{})
	params := get["parameters"].([]interface{})
	param := params[0].(map[string]interface{})
	if param["name"] != "id" || param["in"] != "path" || param["required"] != true {
		t.Fatalf("unexpected path parameter: %v", param)
	}
}

func TestDocumentByteStableAcrossBuilds(t *testing.T) {
	schemes := testSchemes(t)
	ops := []*models.Operation{
		{Method: "GET", Path: "/demo", AllowAnonymous: true},
		{Method: "POST", Path: "/demo/post", Scopes: []string{"demo-test-api-scope"}},
		{Method: "PUT", Path: "/demo/none"},
	}

	render := func() string {
		annotated, err := Annotate(ops, schemes, "oauth2")
		if err != nil {
			t.Fatalf("annotate: %v", err)
		}
		doc, err := BuildDocument(Info{Title: "Demo API", Version: "1.0.0"}, annotated, schemes.All())
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		raw, err := doc.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(raw)
	}

	if render() != render() {
		t.Fatal("document output differs between identical builds")
	}
}
