//go:build !arm64

package vectorstore

import "github.com/viant/vec/search"

// viant/vec exports the magnitude variant under a different name off arm64.
func cosineDistance(a []float32, am float32, b []float32, bm float32) float32 {
	return search.Float32s(a).CosineDistanceWithMagnitudesNeon(b, am, bm)
}
