// Package cache persists rendered diagram artifacts under XDG_CACHE_HOME.
// Artifacts are keyed on the source content hash, so a diagram seen in an
// earlier session resolves instantly instead of hitting a render backend
// again.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ArtifactTTL bounds how long a cached render is served. Content
	// hashing means artifacts never go stale semantically; the TTL just
	// keeps the cache directory from growing forever.
	ArtifactTTL = 14 * 24 * time.Hour
	cacheDir    = "streamdown"
)

type Artifact struct {
	SVG        string    `json:"svg"`
	Scale      float64   `json:"scale"`
	RenderedAt time.Time `json:"rendered_at"`
}

func getCacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, cacheDir), nil
}

func getArtifactPath(key uint64) (string, error) {
	dir, err := getCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("diagram-%016x.json", key)), nil
}

func ReadArtifact(key uint64) (*Artifact, error) {
	path, err := getArtifactPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// WriteArtifact stores a rendered artifact atomically: written to a temp
// file first, then renamed into place, so a concurrent reader never sees a
// partial file.
func WriteArtifact(key uint64, svg string, scale float64) error {
	dir, err := getCacheDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := getArtifactPath(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Artifact{
		SVG:        svg,
		Scale:      scale,
		RenderedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "diagram-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	renamed = true
	return nil
}

func IsArtifactValid(art *Artifact) bool {
	if art == nil || art.SVG == "" {
		return false
	}
	return time.Since(art.RenderedAt) < ArtifactTTL
}
