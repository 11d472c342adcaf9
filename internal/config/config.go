// Package config parses command-line flags. Every flag defaults from a
// LOSTFOUND_* environment variable, which may be set in a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DBPath      string
	Addr        string
	AdminEmail  string
	LogPath     string
	MediaDir    string
	NATSURL     string
	CORSOrigins []string
}

// Defaults.
const (
	DefaultDBPath     = "lostfound.sqlite3"
	DefaultAddr       = ":8080"
	DefaultAdminEmail = "admin@lostfound.local"
	DefaultMediaDir   = "media"
)

const usage = `Usage: lostfound [flags]

Flags:
  -d, -db <path>          SQLite database path (default: lostfound.sqlite3, env LOSTFOUND_DB)
  -a, -addr <host:port>   listen address (default: :8080, env LOSTFOUND_ADDR)
  -u, -admin <email>      staff account email on first run (env LOSTFOUND_ADMIN)
  -l, -log <path>         log file path (default: stdout/stderr only, env LOSTFOUND_LOG)
  -m, -media <dir>        uploaded file directory (default: media, env LOSTFOUND_MEDIA)
  -n, -nats <url>         NATS server for claim events (default: disabled, env LOSTFOUND_NATS_URL)
  -c, -cors <origins>     comma-separated allowed CORS origins (env LOSTFOUND_CORS_ORIGINS)
  -h, -help               show this help and exit
`

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Parse parses args (without the program name). getenv supplies the flag
// defaults. flag.ErrHelp is returned when help was requested.
func Parse(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	fs := flag.NewFlagSet("lostfound", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	var cfg Config
	var cors string

	stringFlag(fs, &cfg.DBPath, "db", "d", env("LOSTFOUND_DB", DefaultDBPath))
	stringFlag(fs, &cfg.Addr, "addr", "a", env("LOSTFOUND_ADDR", DefaultAddr))
	stringFlag(fs, &cfg.AdminEmail, "admin", "u", env("LOSTFOUND_ADMIN", DefaultAdminEmail))
	stringFlag(fs, &cfg.LogPath, "log", "l", env("LOSTFOUND_LOG", ""))
	stringFlag(fs, &cfg.MediaDir, "media", "m", env("LOSTFOUND_MEDIA", DefaultMediaDir))
	stringFlag(fs, &cfg.NATSURL, "nats", "n", env("LOSTFOUND_NATS_URL", ""))
	stringFlag(fs, &cors, "cors", "c", env("LOSTFOUND_CORS_ORIGINS", ""))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg.CORSOrigins = splitList(cors)
	return &cfg, nil
}

func stringFlag(fs *flag.FlagSet, p *string, long, short, value string) {
	fs.StringVar(p, long, value, "")
	fs.StringVar(p, short, value, "")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
