// Package tessellate converts generated snap-fit features into triangle
// meshes for preview. One mesh is produced per feature, named so a
// viewer can tell which joint and which side it belongs to.
package tessellate

import (
	"fmt"

	"github.com/chazu/clasp/pkg/feature"
	"github.com/chazu/clasp/pkg/kernel"
)

// Tessellate meshes every feature in the given results using a kernel
// backend that supports meshing. The tessellator is read-only and never
// mutates the results. Mesh order follows result order, male features
// before female ones within each result.
func Tessellate(results []*feature.Result, m kernel.Mesher) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh

	for i, res := range results {
		if res == nil {
			continue
		}
		collected, err := meshSolids(m, res.MaleFeatures, fmt.Sprintf("snap%d-male", i+1))
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)

		collected, err = meshSolids(m, res.FemaleFeatures, fmt.Sprintf("snap%d-female", i+1))
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// meshSolids meshes a feature group. Groups with a single feature get
// the bare prefix as their name; larger groups get a numeric suffix.
func meshSolids(m kernel.Mesher, solids []kernel.Solid, prefix string) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for j, s := range solids {
		mesh, err := m.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s feature %d: %w", prefix, j+1, err)
		}
		if len(solids) == 1 {
			mesh.FeatureName = prefix
		} else {
			mesh.FeatureName = fmt.Sprintf("%s%d", prefix, j+1)
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
