package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AssetDir is the directory of each content root whose files are served
// under /assets/. Nothing outside it is reachable.
const AssetDir = "assets"

// sourceExt files are documents, never served as assets.
const sourceExt = ".mdx"

// AssetHandler serves static files (images, downloads) kept in the assets
// directory of the content roots.
type AssetHandler struct {
	dirs []string
}

// NewAssetHandler creates a handler searching the assets directory of each
// content root, in order.
func NewAssetHandler(contentRoots []string) *AssetHandler {
	dirs := make([]string, 0, len(contentRoots))
	for _, root := range contentRoots {
		dirs = append(dirs, filepath.Join(root, AssetDir))
	}
	return &AssetHandler{dirs: dirs}
}

// safePath validates that name stays inside root and returns the absolute
// path.
func safePath(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("asset path is required")
	}
	cleaned := filepath.Clean("/" + filepath.FromSlash(name))
	abs := filepath.Join(root, cleaned)
	// Double-check the resolved path is under the root.
	if !strings.HasPrefix(abs, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes content root")
	}
	return abs, nil
}

// ServeFile handles GET /assets/*.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if strings.HasSuffix(name, sourceExt) || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	for _, dir := range h.dirs {
		abs, err := safePath(dir, name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		info, statErr := os.Stat(abs)
		if statErr != nil || info.IsDir() {
			continue
		}
		http.ServeFile(w, r, abs)
		return
	}
	http.NotFound(w, r)
}
