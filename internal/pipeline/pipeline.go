// Package pipeline runs file-level imports and exports: it reads and writes
// model files and their companions, drives the bridge and reports results.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/internal/bridge"
	"github.com/Faultbox/midgard-mdl/internal/config"
	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/encoding"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

// Result summarizes one import or export.
type Result struct {
	OK         bool
	Path       string
	Root       scene.ObjectID
	Objects    int // objects created or written
	Animations int
	Warnings   formats.Diagnostics
	Skipped    int // nodes that could not be placed
}

// Converter runs imports and exports with one configuration.
type Converter struct {
	cfg *config.Config
	log *zap.Logger
}

// New returns a converter. A nil log discards output.
func New(cfg *config.Config, log *zap.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{cfg: cfg, log: log}
}

func (c *Converter) bridge(sc *scene.Scene) *bridge.Bridge {
	return bridge.New(sc, bridge.Options{
		FPS:        c.cfg.Animation.FPS,
		StartFrame: c.cfg.Animation.StartFrame,
		Padding:    c.cfg.Animation.Padding,
	})
}

// companionPath returns path with its extension replaced by ext.
func companionPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Import reads the model at path into sc. Parse failures of the model file
// itself are fatal; everything else becomes a warning on the result.
func (c *Converter) Import(sc *scene.Scene, path string) (*Result, error) {
	res := &Result{Path: path}
	log := c.log.With(zap.String("file", path))

	var d formats.Decoder
	m, err := formats.ReadModelFile(path, &d)
	res.Warnings = res.Warnings.Append(d.Warnings...)
	if err != nil {
		c.report(log, res)
		return res, fmt.Errorf("importing %s: %w", path, err)
	}

	log.Debug("import options",
		zap.Bool("smooth_groups", c.cfg.Import.SmoothGroups),
		zap.String("material_mode", c.cfg.Import.MaterialMode))

	b := c.bridge(sc)
	before := sc.Len()

	if c.cfg.Import.Geometry {
		res.Root = b.ImportGeometry(m)
	} else {
		res.Root = sc.FindByName(scene.NoObject, m.Name)
		if res.Root == scene.NoObject {
			return res, fmt.Errorf("importing %s: %w: model %q is not in the scene", path, formats.ErrUnresolvedReference, m.Name)
		}
	}

	if c.cfg.Import.Walkmesh {
		c.importWalkmesh(b, res, companionPath(path, ".wok"), log)
	}

	if c.cfg.Import.Animations {
		res.Animations = len(b.ImportAnimations(res.Root, m.Animations))
	}

	if c.cfg.Import.TextureSearch {
		res.Warnings = res.Warnings.Append(c.checkTextures(sc, res.Root, filepath.Dir(path))...)
	}

	res.Warnings = res.Warnings.Append(b.Warnings...)
	res.Skipped = b.Skipped
	res.Objects = sc.Len() - before
	res.OK = true
	c.report(log, res)
	return res, nil
}

func (c *Converter) importWalkmesh(b *bridge.Bridge, res *Result, path string, log *zap.Logger) {
	var d formats.Decoder
	nodes, err := formats.ReadWalkmeshFile(path, &d)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("no walkmesh", zap.String("walkmesh", path))
		return
	}
	res.Warnings = res.Warnings.Append(d.Warnings...)
	if err != nil {
		res.Warnings = res.Warnings.Append(err)
		return
	}
	b.ImportWalkmesh(res.Root, nodes)
}

// Export writes the model under root to path, plus a walkmesh companion
// file when the model has walkmesh objects.
func (c *Converter) Export(sc *scene.Scene, root scene.ObjectID, path string) (*Result, error) {
	res := &Result{Path: path, Root: root}
	log := c.log.With(zap.String("file", path))

	name, _ := encoding.ParseName(c.cfg.Export.Encoding)
	log.Debug("export options",
		zap.String("encoding", string(name)),
		zap.Bool("smooth_groups", c.cfg.Export.SmoothGroups),
		zap.Bool("apply_modifiers", c.cfg.Export.ApplyModifiers))

	b := c.bridge(sc)
	m, err := b.ExportModel(root, c.cfg.Export.Animations)
	if err != nil {
		return res, fmt.Errorf("exporting %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := formats.EncodeModel(&buf, m); err != nil {
		return res, fmt.Errorf("exporting %s: %w", path, err)
	}
	if err := os.WriteFile(path, encoding.EncodeText(buf.String(), name), 0644); err != nil {
		return res, fmt.Errorf("exporting %s: %w", path, err)
	}

	res.Objects = len(m.Geometry)
	res.Animations = len(m.Animations)

	if c.cfg.Export.Walkmesh {
		if nodes := b.ExportWalkmesh(root); len(nodes) > 0 {
			if err := writeWalkmesh(companionPath(path, ".wok"), nodes, name); err != nil {
				res.Warnings = res.Warnings.Append(err)
			}
		}
	}

	res.Warnings = res.Warnings.Append(b.Warnings...)
	res.OK = true
	c.report(log, res)
	return res, nil
}

func writeWalkmesh(path string, nodes []*formats.Node, name encoding.Name) error {
	var buf bytes.Buffer
	if err := formats.EncodeWalkmesh(&buf, nodes); err != nil {
		return fmt.Errorf("%w: %w", formats.ErrIOFailure, err)
	}
	if err := os.WriteFile(path, encoding.EncodeText(buf.String(), name), 0644); err != nil {
		return fmt.Errorf("%w: %w", formats.ErrIOFailure, err)
	}
	return nil
}

// report logs every warning and a one-line summary.
func (c *Converter) report(log *zap.Logger, res *Result) {
	for _, w := range res.Warnings {
		log.Warn(warningKind(w), zap.Error(w))
	}
	log.Info("done",
		zap.Bool("ok", res.OK),
		zap.Int("objects", res.Objects),
		zap.Int("animations", res.Animations),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("skipped", res.Skipped))
}

func warningKind(err error) string {
	switch {
	case errors.Is(err, formats.ErrUnresolvedReference):
		return "unresolved reference"
	case errors.Is(err, formats.ErrUnrecognizedController):
		return "unrecognized controller"
	case errors.Is(err, formats.ErrIOFailure):
		return "companion file"
	case errors.Is(err, formats.ErrMalformedBlock):
		return "malformed block"
	default:
		return "warning"
	}
}
