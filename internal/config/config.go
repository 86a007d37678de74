// Package config handles animation runtime configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all runtime settings.
type Config struct {
	Animation AnimationConfig `yaml:"animation"`
	Model     ModelConfig     `yaml:"model"`
	Scene     SceneConfig     `yaml:"scene"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AnimationConfig holds playback and skinning settings.
type AnimationConfig struct {
	MaxJoints    int     `yaml:"max_joints"`    // Joint matrices per skin (uniform capacity)
	PlaybackMode string  `yaml:"playback_mode"` // loop, once or pingpong
	Speed        float32 `yaml:"speed"`
	SkinSpace    string  `yaml:"skin_space"` // root or node
	Autoplay     bool    `yaml:"autoplay"`
}

// ModelConfig holds load-time model settings.
type ModelConfig struct {
	Normalize     bool    `yaml:"normalize"`
	NormalizeSize float32 `yaml:"normalize_size"` // Side of the cube the model is fitted into
}

// SceneConfig holds settings for updating many models at once.
type SceneConfig struct {
	Workers int `yaml:"workers"` // 0 means GOMAXPROCS
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Animation: AnimationConfig{
			MaxJoints:    128,
			PlaybackMode: "loop",
			Speed:        1,
			SkinSpace:    "root",
			Autoplay:     true,
		},
		Model: ModelConfig{
			Normalize:     true,
			NormalizeSize: 10,
		},
		Scene: SceneConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Validate checks values that the engine cannot recover from.
func (c *Config) Validate() error {
	var errs []error
	if c.Animation.MaxJoints <= 0 {
		errs = append(errs, fmt.Errorf("%w: animation.max_joints must be positive, got %d", ErrInvalid, c.Animation.MaxJoints))
	}
	switch c.Animation.PlaybackMode {
	case "loop", "once", "pingpong":
	default:
		errs = append(errs, fmt.Errorf("%w: animation.playback_mode %q", ErrInvalid, c.Animation.PlaybackMode))
	}
	switch c.Animation.SkinSpace {
	case "root", "node":
	default:
		errs = append(errs, fmt.Errorf("%w: animation.skin_space %q", ErrInvalid, c.Animation.SkinSpace))
	}
	if !(c.Animation.Speed > 0) {
		errs = append(errs, fmt.Errorf("%w: animation.speed must be positive, got %v", ErrInvalid, c.Animation.Speed))
	}
	if c.Model.Normalize && c.Model.NormalizeSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: model.normalize_size must be positive", ErrInvalid))
	}
	if c.Scene.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: scene.workers must not be negative", ErrInvalid))
	}
	return errors.Join(errs...)
}
