// animtool is a CLI utility for inspecting and playing skinned glTF models.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/assets"
	"github.com/Faultbox/rigging/internal/assets/watch"
	"github.com/Faultbox/rigging/internal/config"
	"github.com/Faultbox/rigging/internal/engine/animation"
	"github.com/Faultbox/rigging/internal/engine/model"
	"github.com/Faultbox/rigging/internal/engine/scene"
	"github.com/Faultbox/rigging/internal/engine/skin"
	"github.com/Faultbox/rigging/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "play":
		err = cmdPlay(args)
	case "watch":
		err = cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skinned glTF model utility

Usage:
  animtool <command> [options] <file>

Commands:
  info <file.glb>              Show nodes, skins, clips and load diagnostics
  play <file.glb> [more.glb]   Step playback and print joint positions
  watch <file.glb>             Reload and reprint info whenever the file changes

Options (all commands):
  -config <path>      Config file (default ./rigging.yaml or the user config dir)
  -debug              Enable debug logging
  -max-joints <n>     Joint matrices per skin
  -skin-space <s>     Joint reference space: root or node
  -log-file <path>    Write logs to a rotated file

Play options:
  -clip <name>        Clip to play (default: first)
  -mode <m>           loop, once or pingpong
  -speed <x>          Playback speed multiplier
  -fps <n>            Frames per simulated second
  -seconds <s>        Simulated duration

Examples:
  animtool info fox.glb
  animtool play -clip Walk -fps 5 -seconds 2 fox.glb
  animtool watch -debug fox.glb`)
}

// setup parses the shared flags, loads configuration and starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, model.Options, error) {
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, model.Options{}, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, model.Options{}, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, model.Options{}, fmt.Errorf("initializing logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	opts, err := modelOptions(cfg)
	return cfg, opts, err
}

// modelOptions maps validated configuration onto model load options.
func modelOptions(cfg *config.Config) (model.Options, error) {
	mode, err := animation.ParsePlaybackMode(cfg.Animation.PlaybackMode)
	if err != nil {
		return model.Options{}, err
	}
	space, err := skin.ParseSpace(cfg.Animation.SkinSpace)
	if err != nil {
		return model.Options{}, err
	}
	return model.Options{
		MaxJoints:     cfg.Animation.MaxJoints,
		SkinSpace:     space,
		Mode:          mode,
		Speed:         cfg.Animation.Speed,
		Autoplay:      cfg.Animation.Autoplay,
		Normalize:     cfg.Model.Normalize,
		NormalizeSize: cfg.Model.NormalizeSize,
	}, nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	_, opts, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: animtool info [options] <file.glb>")
	}

	mgr := assets.NewManager(nil)
	defer mgr.Close()

	m, err := mgr.Model(fs.Arg(0), opts)
	if err != nil {
		return err
	}
	printInfo(os.Stdout, fs.Arg(0), m)
	return nil
}

func cmdPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	clipName := fs.String("clip", "", "Clip to play (default: first)")
	fps := fs.Int("fps", 10, "Frames per simulated second")
	seconds := fs.Float64("seconds", 2, "Simulated duration")
	cfg, opts, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: animtool play [options] <file.glb> [more.glb ...]")
	}
	if *fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *fps)
	}

	mgr := assets.NewManager(nil)
	defer mgr.Close()

	reg := scene.New(scene.Config{Workers: cfg.Scene.Workers})
	for _, path := range fs.Args() {
		m, err := mgr.Model(path, opts)
		if err != nil {
			return err
		}
		if *clipName != "" {
			i := m.AnimationIndex(*clipName)
			if i < 0 {
				return fmt.Errorf("%s: no clip named %q (have %v)", path, *clipName, m.AnimationNames())
			}
			m.SetCurrentAnimation(i)
			m.PlayAnimation()
		}
		reg.Add(path, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dt := 1 / float32(*fps)
	frames := int(*seconds * float64(*fps))
	for frame := 1; frame <= frames; frame++ {
		changed, err := reg.UpdateAll(ctx, dt)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			continue
		}
		fmt.Printf("frame %d t=%.3fs\n", frame, float32(frame)*dt)
		for _, id := range changed {
			in, ok := reg.Get(id)
			if !ok {
				continue
			}
			in.With(func(m *model.Model) { printJoints(os.Stdout, in.Name, m) })
		}
	}
	return nil
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	_, opts, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: animtool watch [options] <file.glb>")
	}
	path := fs.Arg(0)

	mgr := assets.NewManager(nil)
	defer mgr.Close()

	show := func(out io.Writer) {
		m, err := mgr.Model(path, opts)
		if err != nil {
			logger.Error("reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		printInfo(out, path, m)
	}
	show(os.Stdout)

	w, err := watch.New(path, func(string) {
		mgr.Invalidate(path)
		fmt.Println()
		show(os.Stdout)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("watching for changes", zap.String("path", w.Path()))
	return w.Run(ctx)
}
