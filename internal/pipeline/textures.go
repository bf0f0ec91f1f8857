package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

var textureExts = []string{".tga", ".dds", ".tpc", ".png"}

// bitmapRefs returns texture names from "bitmap" and "textureN" rows.
func bitmapRefs(raw string) []string {
	var refs []string
	for _, line := range strings.Split(raw, "\n") {
		f := strings.Fields(line)
		if len(f) < 2 || strings.EqualFold(f[1], "null") {
			continue
		}
		label := strings.ToLower(f[0])
		if label == "bitmap" || strings.HasPrefix(label, "texture") {
			refs = append(refs, f[1])
		}
	}
	return refs
}

// checkTextures warns about bitmap references under root that match no file
// in the model directory or the configured texture paths.
func (c *Converter) checkTextures(sc *scene.Scene, root scene.ObjectID, modelDir string) []error {
	dirs := append([]string{modelDir}, c.cfg.Data.TexturePaths...)
	checked := make(map[string]bool)
	var warnings []error

	sc.Walk(root, func(obj *scene.Object) {
		text, _ := sc.Blobs.Text(obj.GeometryText)
		for _, ref := range bitmapRefs(text) {
			key := strings.ToLower(ref)
			if checked[key] {
				continue
			}
			checked[key] = true
			if !textureExists(dirs, ref) {
				warnings = append(warnings, fmt.Errorf("%w: texture %q of %q not found", formats.ErrIOFailure, ref, obj.Name))
			}
		}
	})
	return warnings
}

func textureExists(dirs []string, name string) bool {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range textureExts {
			candidates = append(candidates, name+ext)
		}
	}
	for _, dir := range dirs {
		for _, c := range candidates {
			if _, err := os.Stat(filepath.Join(dir, c)); err == nil {
				return true
			}
		}
	}
	return false
}
