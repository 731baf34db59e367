// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"os"

	"barvis/internal/config"
	"barvis/pkg/build"

	"github.com/spf13/cobra"
)

// Commands that run instead of a render.
const (
	CommandWindows = "windows"
	CommandStyles  = "styles"
)

// Options holds the raw command line before it is merged into the config.
type Options struct {
	ConfigPath string
	Paths      config.Paths
	Verbose    bool
	NoVideo    bool
	TUI        bool
	FramesDir  string
	Style      string
	FFTWindow  string
	Command    string
}

// ParseArgs parses os.Args and returns the merged configuration.
func ParseArgs() (*config.Config, error) {
	return Parse(os.Args[1:])
}

// Parse parses args, loads the config file and applies flag overrides.
// It returns (nil, nil) when cobra handled the invocation itself (--help,
// --version).
func Parse(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var opts Options
	ran := false

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Paths.Input == "" {
				return errors.New("required flag \"input\" not set")
			}
			ran = true
			return nil
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// One-off commands
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandWindows,
		Short: "List FFT window functions",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandWindows
			ran = true
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandStyles,
		Short: "List bar styles",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandStyles
			ran = true
		},
	})

	// Paths
	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Paths.Input, "input", "i", "",
		"Input audio file (wav, mp3, flac, ogg)")
	flags.StringVarP(&opts.Paths.Temp, "temp", "t", "",
		"Path of the intermediate silent video. Default is a temp file next to the output")
	flags.StringVarP(&opts.Paths.Output, "output", "o", "",
		"Path of the final video with the input audio muxed in")
	flags.StringVar(&opts.FramesDir, "frames-dir", "",
		"Write PNG frames to this directory instead of encoding a video")

	// Rendering
	flags.BoolVar(&opts.NoVideo, "no-video", false,
		"Analyze only; render no frames")
	flags.StringVar(&opts.Style, "style", "",
		"Bar style (see 'styles' command)")
	flags.StringVar(&opts.FFTWindow, "window", "",
		"FFT window function (see 'windows' command)")

	// Configuration & Debug
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"YAML configuration file. Default is ./config.yaml if present")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"Show verbose output")
	flags.BoolVar(&opts.TUI, "tui", false,
		"Show progress in a terminal UI")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if !ran {
		return nil, nil
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := requireDestination(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requireDestination checks that a render has somewhere to write, once the
// config file and flags are merged.
func requireDestination(cfg *config.Config) error {
	if cfg.Command != "" || !cfg.Video.Enabled || cfg.Video.FramesDir != "" {
		return nil
	}
	if cfg.Paths.Output == "" {
		return errors.New("one of --output, --frames-dir or --no-video is required")
	}
	return nil
}

// apply overrides config values with the flags that were given.
func (o *Options) apply(cfg *config.Config) {
	cfg.Command = o.Command
	cfg.Paths = o.Paths
	if o.Verbose {
		cfg.Debug = true
	}
	if o.NoVideo {
		cfg.Video.Enabled = false
	}
	if o.FramesDir != "" {
		cfg.Video.FramesDir = o.FramesDir
	}
	if o.Style != "" {
		cfg.Video.Style = o.Style
	}
	if o.FFTWindow != "" {
		cfg.Analysis.FFTWindow = o.FFTWindow
	}
	if o.TUI {
		cfg.Progress.Mode = config.ProgressTUI
	}
}
