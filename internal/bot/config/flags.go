package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/fsubgate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   storage backend ("sqlite" or "mongo")
//	-f string   sqlite database path
//	-m string   mongo connection URI
//	-n string   mongo database name
//	-l int      short-code length
//
// Credentials and chat ids deliberately have no flags; they come from the
// environment so they never end up in shell history or process listings.
// The function filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config JSON flags.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-f", "-m", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	backend := fs.String("s", config.StorageBackend, "storage backend: sqlite or mongo")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "sqlite database path")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongo connection URI")
	fs.StringVar(&config.MongoDB, "n", config.MongoDB, "mongo database name")
	fs.IntVar(&config.CodeLength, "l", config.CodeLength, "short code length")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StorageBackend = strings.ToLower(*backend)
}
