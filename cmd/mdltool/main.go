// mdltool is a CLI utility for inspecting and converting ASCII MDL models.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/internal/config"
	"github.com/Faultbox/midgard-mdl/internal/logger"
	"github.com/Faultbox/midgard-mdl/internal/pipeline"
	"github.com/Faultbox/midgard-mdl/internal/scene"
	"github.com/Faultbox/midgard-mdl/pkg/formats"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	var code int
	switch command {
	case "info":
		code = cmdInfo(args)
	case "anims":
		code = cmdAnims(args)
	case "nodes", "tree":
		code = cmdNodes(cfg, args)
	case "convert", "roundtrip":
		code = cmdConvert(cfg, args)
	case "layout":
		code = cmdLayout(args)
	case "config":
		code = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}

	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func printUsage() {
	fmt.Println(`mdltool - ASCII MDL model and animation utility

Usage:
  mdltool [global options] <command> [options]

Commands:
  info <file.mdl>                 Show model header and node summary
  anims <file.mdl>                List animations, their nodes and events
  nodes <file.mdl>                Print the imported object hierarchy
  convert <in.mdl> <out.mdl>      Import and export again
  layout <file.lyt>               Show an area layout
  config [path]                   Write the current configuration

Global options:
  -config <file>     Config file (default: ./mdltool.yaml)
  -debug             Debug logging
  -fps <n>           Frames per second for the frame timeline
  -no-anims          Skip animations
  -no-walkmesh       Skip the .wok companion file
  -encoding <name>   Output encoding (utf-8 or cp1252)
  -textures <dir>    Check bitmap references against this directory

Examples:
  mdltool info c_dog.mdl
  mdltool anims -v c_dog.mdl
  mdltool -fps 24 convert c_dog.mdl out/c_dog.mdl`)
}

// readModel parses path and prints any diagnostics to stderr.
func readModel(path string) (*formats.Model, bool) {
	var d formats.Decoder
	m, err := formats.ReadModelFile(path, &d)
	for _, w := range d.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return m, true
}

func cmdInfo(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool info <file.mdl>")
		return 1
	}

	m, ok := readModel(args[0])
	if !ok {
		return 1
	}

	super := m.Supermodel
	if super == "" {
		super = "NULL"
	}
	fmt.Printf("Model:          %s\n", m.Name)
	fmt.Printf("Supermodel:     %s\n", super)
	fmt.Printf("Classification: %s\n", m.Classification)
	fmt.Printf("Anim scale:     %g\n", m.AnimationScale)
	fmt.Printf("Nodes:          %d\n", len(m.Geometry))
	fmt.Printf("Animations:     %d\n", len(m.Animations))

	typeCount := make(map[string]int)
	for _, n := range m.Geometry {
		typeCount[n.Type.String()]++
	}
	types := make([]string, 0, len(typeCount))
	for t := range typeCount {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println()
	fmt.Println("Nodes by type:")
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, typeCount[t])
	}
	return 0
}

func cmdAnims(args []string) int {
	fs := flag.NewFlagSet("anims", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List nodes and their controllers")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool anims [-v] <file.mdl>")
		return 1
	}

	m, ok := readModel(fs.Arg(0))
	if !ok {
		return 1
	}

	for _, a := range m.Animations {
		root := a.Root
		if root == "" {
			root = "UNDEFINED"
		}
		fmt.Printf("%-20s %6.3fs  root=%s  nodes=%d  events=%d\n", a.Name, a.Length, root, len(a.Nodes), len(a.Events))
		for _, ev := range a.Events {
			fmt.Printf("    event %6.3fs %s\n", ev.Time, ev.Name)
		}
		if !*verbose {
			continue
		}
		for _, n := range a.Nodes {
			var names []string
			for _, c := range formats.ControllersFor(n.Type) {
				if t := n.Controllers[formats.ControllerKey(c)]; t != nil {
					names = append(names, fmt.Sprintf("%s(%d)", c.Name, len(t.Keys)))
				}
			}
			fmt.Printf("    %-16s %s\n", n.Name, strings.Join(names, " "))
		}
	}
	return 0
}

func cmdNodes(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool nodes <file.mdl>")
		return 1
	}

	sc := scene.New()
	res, err := pipeline.New(cfg, logger.Log).Import(sc, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var printTree func(id scene.ObjectID, depth int)
	printTree = func(id scene.ObjectID, depth int) {
		obj := sc.Object(id)
		suffix := ""
		if obj.Walkmesh {
			suffix = " (walkmesh)"
		}
		fmt.Printf("%s%s [%s]%s\n", strings.Repeat("  ", depth), obj.Name, obj.Type, suffix)
		for _, c := range sc.Children(id) {
			printTree(c, depth+1)
		}
	}
	printTree(res.Root, 0)

	for _, a := range sc.Animations(res.Root) {
		fmt.Printf("anim %-20s frames %g-%g\n", a.Name, a.FrameStart, a.FrameEnd)
	}
	return 0
}

func cmdConvert(cfg *config.Config, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool convert <in.mdl> <out.mdl>")
		return 1
	}
	in, out := args[0], args[1]

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	conv := pipeline.New(cfg, logger.Log)
	sc := scene.New()
	imported, err := conv.Import(sc, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	exported, err := conv.Export(sc, imported.Root, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info("converted",
		zap.String("from", in),
		zap.String("to", out),
		zap.Int("warnings", len(imported.Warnings)+len(exported.Warnings)))
	fmt.Printf("%s -> %s: %d nodes, %d animations, %d warnings\n",
		in, out, exported.Objects, exported.Animations, len(imported.Warnings)+len(exported.Warnings))
	return 0
}

func cmdLayout(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool layout <file.lyt>")
		return 1
	}

	lyt, err := formats.ParseLYTFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	printRooms := func(title string, rooms []formats.LYTRoom) {
		fmt.Printf("%s: %d\n", title, len(rooms))
		for _, r := range rooms {
			fmt.Printf("  %-20s %8.2f %8.2f %8.2f\n", r.Name, r.Position[0], r.Position[1], r.Position[2])
		}
	}
	printRooms("Rooms", lyt.Rooms)
	printRooms("Tracks", lyt.Tracks)
	printRooms("Obstacles", lyt.Obstacles)

	fmt.Printf("Door hooks: %d\n", len(lyt.DoorHooks))
	for _, h := range lyt.DoorHooks {
		fmt.Printf("  %-20s %-12s %8.2f %8.2f %8.2f\n", h.Room, h.Door, h.Position[0], h.Position[1], h.Position[2])
	}
	return 0
}

func cmdConfig(cfg *config.Config, args []string) int {
	var err error
	path := ""
	if len(args) > 0 {
		path = args[0]
		err = cfg.SaveTo(path)
	} else {
		path = filepath.Join(config.ConfigDir(), "mdltool.yaml")
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Config written to %s\n", path)
	return 0
}
