package config

import (
	"flag"
	"io"
)

type flagValues struct {
	cfg        Config
	configPath string
	set        map[string]bool
}

// parseFlags parses args over a copy of base. Only flags present in args are
// later applied, so JSON values survive unless overridden explicitly.
func parseFlags(args []string, base Config) (*flagValues, error) {
	fv := &flagValues{cfg: base, set: map[string]bool{}}
	c := &fv.cfg

	fs := flag.NewFlagSet("vault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&fv.configPath, "config", "", "path to JSON config file")
	fs.StringVar(&fv.configPath, "c", "", "path to JSON config file (short)")
	fs.StringVar(&c.Backend, "backend", c.Backend, "storage backend: file or postgres")
	fs.StringVar(&c.DataFile, "data", c.DataFile, "path to the JSON data file")
	fs.StringVar(&c.DSN, "dsn", c.DSN, "postgres DSN")
	fs.StringVar(&c.Salt, "salt", c.Salt, "application-wide KDF salt")
	fs.IntVar(&c.KDFIterations, "kdf-iter", c.KDFIterations, "PBKDF2 iteration count")
	fs.IntVar(&c.LockoutThreshold, "lockout-threshold", c.LockoutThreshold, "failed logins before lockout")
	fs.DurationVar(&c.LockoutDuration, "lockout-duration", c.LockoutDuration, "lockout duration")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&c.Dev, "dev", c.Dev, "development logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { fv.set[f.Name] = true })
	return fv, nil
}

func (fv *flagValues) apply(dst *Config) {
	src := &fv.cfg
	if fv.set["backend"] {
		dst.Backend = src.Backend
	}
	if fv.set["data"] {
		dst.DataFile = src.DataFile
	}
	if fv.set["dsn"] {
		dst.DSN = src.DSN
	}
	if fv.set["salt"] {
		dst.Salt = src.Salt
	}
	if fv.set["kdf-iter"] {
		dst.KDFIterations = src.KDFIterations
	}
	if fv.set["lockout-threshold"] {
		dst.LockoutThreshold = src.LockoutThreshold
	}
	if fv.set["lockout-duration"] {
		dst.LockoutDuration = src.LockoutDuration
	}
	if fv.set["log-level"] {
		dst.LogLevel = src.LogLevel
	}
	if fv.set["dev"] {
		dst.Dev = src.Dev
	}
}
