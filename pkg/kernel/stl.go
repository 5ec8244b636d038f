package kernel

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSTL writes the mesh to w as an ASCII STL solid, one facet per
// triangle. The solid is named after the mesh's feature, or "mesh" when
// the mesh has no name. Facet normals are taken from the stored
// per-vertex normals of each triangle's first vertex, which are flat
// per-face normals in the backends that produce meshes here.
func (m *Mesh) WriteSTL(w io.Writer) error {
	name := m.FeatureName
	if name == "" {
		name = "mesh"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for t := 0; t < m.TriangleCount(); t++ {
		i0 := m.Indices[3*t]
		i1 := m.Indices[3*t+1]
		i2 := m.Indices[3*t+2]
		var nx, ny, nz float32
		if n := int(3*i0) + 2; n < len(m.Normals) {
			nx, ny, nz = m.Normals[3*i0], m.Normals[3*i0+1], m.Normals[3*i0+2]
		}
		fmt.Fprintf(bw, "facet normal %g %g %g\n", nx, ny, nz)
		fmt.Fprintf(bw, "  outer loop\n")
		for _, i := range [3]uint32{i0, i1, i2} {
			fmt.Fprintf(bw, "    vertex %g %g %g\n",
				m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2])
		}
		fmt.Fprintf(bw, "  endloop\n")
		fmt.Fprintf(bw, "endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
