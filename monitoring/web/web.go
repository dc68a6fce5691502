// Package web holds the page of the monitoring server.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv names the variable that makes the monitor serve the page from
// disk. It is either a boolean, to use the dist directory next to this
// file, or the path of a directory.
const DevModeEnv = "FTTSIM_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// GetAssets returns the files of the page.
func GetAssets() http.FileSystem {
	if dir, ok := devDir(); ok {
		log.Printf("monitor: serving the page from %s", dir)
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func devDir() (string, bool) {
	value := os.Getenv(DevModeEnv)
	if value == "" {
		return "", false
	}

	if on, err := strconv.ParseBool(value); err == nil {
		if !on {
			return "", false
		}

		_, file, _, ok := runtime.Caller(0)
		if !ok {
			panic("monitor: cannot locate the page sources")
		}

		return filepath.Join(filepath.Dir(file), "dist"), true
	}

	if info, err := os.Stat(value); err == nil && info.IsDir() {
		return value, true
	}

	return "", false
}
