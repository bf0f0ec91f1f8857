package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flag.String("log", "", "Write logs to this file")
	flagFPS        = flag.Float64("fps", 0, "Animation frames per second")
	flagStartFrame = flag.Float64("start-frame", -1, "First frame of the first animation")
	flagNoAnims    = flag.Bool("no-anims", false, "Skip animations on import and export")
	flagNoWalkmesh = flag.Bool("no-walkmesh", false, "Skip the walkmesh companion file")
	flagEncoding   = flag.String("encoding", "", "Output text encoding (utf-8 or cp1252)")
	flagTextures   = flag.String("textures", "", "Texture directory to check bitmap references against")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagFPS > 0 {
		cfg.Animation.FPS = *flagFPS
	}
	if *flagStartFrame >= 0 {
		cfg.Animation.StartFrame = *flagStartFrame
	}
	if *flagNoAnims {
		cfg.Import.Animations = false
		cfg.Export.Animations = false
	}
	if *flagNoWalkmesh {
		cfg.Import.Walkmesh = false
		cfg.Export.Walkmesh = false
	}
	if *flagEncoding != "" {
		cfg.Export.Encoding = *flagEncoding
	}
	if *flagTextures != "" {
		cfg.Import.TextureSearch = true
		cfg.Data.TexturePaths = append(cfg.Data.TexturePaths, *flagTextures)
	}
}
