package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT,default=15s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharacterReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

// WordList splits the comma-separated censored words, dropping empties.
func (c Config) WordList() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// ReplacementRune validates that CHARACTER_REPLACEMENT is a single character.
func (c Config) ReplacementRune() (rune, error) {
	r := []rune(c.CharacterReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharacterReplacement,
		)
	}
	return r[0], nil
}
