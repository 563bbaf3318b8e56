package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// fileServer serves the static assets under ui/static.
type fileServer struct {
	root string
	http.Handler
}

func newFileServer() (*fileServer, error) {
	root := filepath.Join(".", "ui", "static")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		var dir string
		if dir, err = findModuleDir(); err != nil {
			return nil, fmt.Errorf("find module dir: %w", err)
		}
		root = filepath.Join(dir, "ui", "static")
	}
	stat, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat file server root: %w", err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("file server root %s is not a directory", root)
	}
	return &fileServer{root: root, Handler: http.FileServer(http.Dir(root))}, nil
}

// handler routes requests for existing files to found and everything else to missing.
func (fs *fileServer) handler(found, missing http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := filepath.Clean(r.URL.Path)
		if strings.Contains(cleanPath, "..") {
			missing.ServeHTTP(w, r)
			return
		}
		stat, err := os.Stat(filepath.Join(fs.root, cleanPath))
		if err != nil || stat.IsDir() {
			missing.ServeHTTP(w, r)
			return
		}
		found.ServeHTTP(w, r)
	})
}
