package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	RedisAddr         string        `env:"REDIS_ADDR,required=true"`
	ChannelPrefix     string        `env:"CHANNEL_PREFIX"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	TokenSecret       string        `env:"TOKEN_SECRET,required=true"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,required=true"`
	DebugPort         int           `env:"DEBUG_PORT"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
