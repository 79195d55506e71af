//go:build linux

// Package config declares the CLI surface parsed by kong.
package config

import "github.com/jpe230/trimui-joypadd/internal/cmd"

// LogOptions is shared by every command.
type LogOptions struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)" enum:"trace,debug,info,warn,error" default:"info" env:"JOYPADD_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of the console" env:"JOYPADD_LOG_FILE"`
	RawFile string `help:"Write raw serial frame dumps to this file" env:"JOYPADD_LOG_RAW_FILE"`
}

// CLI is the root command tree.
type CLI struct {
	Config string     `help:"Path to a config file (JSON, YAML or TOML)" type:"path" env:"JOYPADD_CONFIG"`
	Log    LogOptions `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" default:"withargs" help:"Bond both half-pads into one virtual joystick (default)"`
	Calibrate cmd.Calibrate     `cmd:"" help:"Interactively calibrate one half-pad's analog stick"`
	Cfg       cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
}
