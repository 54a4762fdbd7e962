// Package render turns a named kustomize overlay into a resource descriptor
// set ready for the cluster client to apply. Rendering failures are always
// fatal for the stage that requested them; the renderer itself never touches
// the cluster.
package render

import (
	"errors"
	"fmt"
	"path/filepath"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/kustomize/api/krusty"
	"sigs.k8s.io/kustomize/kyaml/filesys"
)

// ErrRenderFailed wraps any overlay rendering failure (missing overlay,
// malformed kustomization, bad patch).
var ErrRenderFailed = errors.New("manifest rendering failed")

// Renderer renders overlays found under a fixed root directory.
type Renderer struct {
	root string
	fs   filesys.FileSystem
}

// NewRenderer creates a renderer rooted at the given overlay directory.
func NewRenderer(root string) *Renderer {
	return &Renderer{
		root: root,
		fs:   filesys.MakeFsOnDisk(),
	}
}

// Render builds the named overlay and returns its objects in overlay order.
func (r *Renderer) Render(overlay string) ([]*unstructured.Unstructured, error) {
	path := filepath.Join(r.root, overlay)

	k := krusty.MakeKustomizer(krusty.MakeDefaultOptions())
	resMap, err := k.Run(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: overlay %q: %v", ErrRenderFailed, path, err)
	}

	resources := resMap.Resources()
	objs := make([]*unstructured.Unstructured, 0, len(resources))
	for _, res := range resources {
		m, err := res.Map()
		if err != nil {
			return nil, fmt.Errorf("%w: resource %s in overlay %q: %v", ErrRenderFailed, res.CurId(), path, err)
		}
		objs = append(objs, &unstructured.Unstructured{Object: m})
	}
	return objs, nil
}
