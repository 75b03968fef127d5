package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

var DefaultConfig = &Config{}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global logger. Pretty format is for interactive console
// sessions; the default is JSON on stdout.
func Init(opts ...Config) {
	conf := safe(opts...)

	var w io.Writer = os.Stdout
	if conf.PrettyFormat {
		w = zerolog.NewConsoleWriter()
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}
