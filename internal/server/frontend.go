package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var staticFS embed.FS

var indexTmpl = template.Must(template.ParseFS(staticFS, "static/index.html"))

// registerFrontend mounts the management page. apiBase is the API origin the
// page talks to, empty when both share one listener.
func (s *Server) registerFrontend(e *gin.Engine, apiBase string) {
	e.SetHTMLTemplate(indexTmpl)
	e.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{"APIBase": apiBase})
	})

	if s.StaticDir != "" {
		e.Static("/static", s.StaticDir)
		return
	}

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	e.StaticFS("/static", http.FS(sub))
}
