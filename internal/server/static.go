package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

// mountStatic serves the built frontend with an index.html fallback for client
// routes. Unknown /api paths always get the JSON error envelope.
func (s *Server) mountStatic() {
	var indexPath string
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
	} else if info, err := os.Stat(s.staticDir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
	} else if p := filepath.Join(s.staticDir, "index.html"); !isFile(p) {
		s.logger.Warn("index.html not found", "path", p)
	} else {
		indexPath = p
	}

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || indexPath == "" {
			c.JSON(http.StatusNotFound, apiError{Message: "endpoint not found", Code: "not_found"})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusMethodNotAllowed)
			return
		}
		// Real files win over the SPA fallback.
		rel := filepath.FromSlash(strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/"))
		if candidate := filepath.Join(s.staticDir, rel); rel != "" && isFile(candidate) {
			c.File(candidate)
			return
		}
		c.File(indexPath)
	})

	if indexPath == "" {
		return
	}
	assetsDir := filepath.Join(s.staticDir, "assets")
	if info, err := os.Stat(assetsDir); err == nil && info.IsDir() {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}
}
