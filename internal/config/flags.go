package config

import "flag"

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config    string
	Debug     bool
	MaxJoints int
	SkinSpace string
	Mode      string
	Speed     float64
	LogFile   string
}

// BindFlags registers the shared flags on fs. Each CLI subcommand owns its
// own FlagSet and calls this before Parse.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.MaxJoints, "max-joints", 0, "Joint matrices per skin")
	fs.StringVar(&f.SkinSpace, "skin-space", "", "Joint reference space: root or node")
	fs.StringVar(&f.Mode, "mode", "", "Playback mode: loop, once or pingpong")
	fs.Float64Var(&f.Speed, "speed", 0, "Playback speed multiplier")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file (rotated)")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.MaxJoints > 0 {
		cfg.Animation.MaxJoints = f.MaxJoints
	}
	if f.SkinSpace != "" {
		cfg.Animation.SkinSpace = f.SkinSpace
	}
	if f.Mode != "" {
		cfg.Animation.PlaybackMode = f.Mode
	}
	if f.Speed > 0 {
		cfg.Animation.Speed = float32(f.Speed)
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
