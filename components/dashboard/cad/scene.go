// Package cad maps the named meshes of a CAD model to devices and alerts and
// drives the 3D viewer widget's selection, coloring and popups.
package cad

import "sync"

// Scene tracks the model currently loaded and the clickable meshes it exposes.
type Scene struct {
	mu         sync.Mutex
	modelURL   string
	meshes     []string
	discovered bool
}

// LoadModel switches the scene to url. Loading a different model resets
// mesh discovery; reloading the same url is a no-op.
func (s *Scene) LoadModel(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modelURL == url {
		return
	}
	s.modelURL = url
	s.meshes = nil
	s.discovered = false
}

// Discover records the mesh ids of the loaded model. It reports them only on
// the first call per model; later calls return nil and false.
func (s *Scene) Discover(meshIDs []string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discovered {
		return nil, false
	}
	seen := make(map[string]struct{}, len(meshIDs))
	meshes := make([]string, 0, len(meshIDs))
	for _, id := range meshIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		meshes = append(meshes, id)
	}
	s.meshes = meshes
	s.discovered = true
	return append([]string(nil), meshes...), true
}

// Meshes returns the discovered mesh ids.
func (s *Scene) Meshes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.meshes...)
}

// ModelURL is the url of the loaded model.
func (s *Scene) ModelURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelURL
}

// Has reports whether id is a discovered mesh.
func (s *Scene) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meshes {
		if m == id {
			return true
		}
	}
	return false
}
