package openapi

import (
	"fmt"
	"html"
)

// DocsPage returns a Swagger UI page loading the document from specURL.
func DocsPage(specURL string) string {
	return fmt.Sprintf(docsTemplate, html.EscapeString(Title), specURL)
}

const docsTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"});
  </script>
</body>
</html>
`
