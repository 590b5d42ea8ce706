package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/mesh"
)

// ListArtifacts lists dir newest first. A missing dir yields no entries.
func ListArtifacts(dir string, limit int) ([]artifact.Info, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("artifact dir is empty")
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	st, err := artifact.NewStore(dir)
	if err != nil {
		return nil, err
	}
	list, err := st.List()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ArtifactReport is the geometry summary shown by inspect and the TUI.
type ArtifactReport struct {
	Path      string
	Suffix    string
	Vertices  int
	Triangles int
	Extents   mgl64.Vec3
	Centroid  mgl64.Vec3
	Area      float64
	Valid     error
}

func DescribeArtifact(path string) (ArtifactReport, error) {
	m, err := mesh.ReadSTL(path)
	if err != nil {
		return ArtifactReport{}, err
	}
	return ArtifactReport{
		Path:      path,
		Suffix:    artifact.SuffixOf(path),
		Vertices:  len(m.Vertices),
		Triangles: len(m.Faces),
		Extents:   m.Extents(),
		Centroid:  m.Centroid(),
		Area:      m.Area(),
		Valid:     m.Validate(),
	}, nil
}

func (r ArtifactReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "file:      %s\n", r.Path)
	fmt.Fprintf(&b, "suffix:    %s\n", dash(r.Suffix))
	fmt.Fprintf(&b, "vertices:  %d\n", r.Vertices)
	fmt.Fprintf(&b, "triangles: %d\n", r.Triangles)
	fmt.Fprintf(&b, "extents:   %.3f x %.3f x %.3f\n", r.Extents.X(), r.Extents.Y(), r.Extents.Z())
	fmt.Fprintf(&b, "centroid:  (%.3f, %.3f, %.3f)\n", r.Centroid.X(), r.Centroid.Y(), r.Centroid.Z())
	fmt.Fprintf(&b, "area:      %.3f\n", r.Area)
	if r.Valid != nil {
		fmt.Fprintf(&b, "invalid:   %v\n", r.Valid)
	}
	return b.String()
}
