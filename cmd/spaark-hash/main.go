// Command spaark-hash hashes and verifies passwords with the Spaark and
// Argon2 drivers.
//
//	spaark-hash hash [--driver spaark|argon2i|argon2id] < password
//	spaark-hash verify --hash HASH < password
//	spaark-hash info --hash HASH
//	spaark-hash needs-rehash --hash HASH
//	spaark-hash generate-salt [--bytes N]
//
// The password is the first line of stdin. Settings come from --config and
// SPAARK_* environment variables; hashing.app_salt is required.
//
// Exit status is 0 on success or match, 1 on mismatch and 2 on usage,
// configuration or hash errors.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hasbyte1/go-spaark-utils/auth"
	"github.com/hasbyte1/go-spaark-utils/config"
	"github.com/hasbyte1/go-spaark-utils/hashing"
	"github.com/hasbyte1/go-spaark-utils/log"
)

const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

const usage = `usage: spaark-hash <command> [flags]

commands:
  hash           hash the password read from stdin
  verify         check the password read from stdin against --hash
  info           print the parameters encoded in --hash
  needs-rehash   report whether --hash should be replaced
  generate-salt  print a random base64: application salt
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type command struct {
	needsHash     bool
	needsPassword bool
	standalone    bool // runs without configuration
	exec          func(env *cmdEnv) int
}

var commands = map[string]command{
	"hash":          {needsPassword: true, exec: runHash},
	"verify":        {needsHash: true, needsPassword: true, exec: runVerify},
	"info":          {needsHash: true, exec: runInfo},
	"needs-rehash":  {needsHash: true, exec: runNeedsRehash},
	"generate-salt": {standalone: true, exec: runGenerateSalt},
}

type cmdEnv struct {
	manager  *hashing.Manager
	logger   *zap.Logger
	driver   string
	hash     string
	bytes    int
	password string
	stdout   io.Writer
	stderr   io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitError
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "spaark-hash: unknown command %q\n\n%s", name, usage)
		return exitError
	}

	fs := pflag.NewFlagSet("spaark-hash "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.StringP("config", "c", "", "YAML configuration file")
	hash := fs.String("hash", "", "stored hash")
	driver := fs.String("driver", "", "driver for new hashes (default: hashing.driver)")
	size := fs.IntP("bytes", "n", 32, "random bytes in a generated salt")
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if cmd.standalone {
		return cmd.exec(&cmdEnv{bytes: *size, stdout: stdout, stderr: stderr})
	}
	if cmd.needsHash && *hash == "" {
		fmt.Fprintf(stderr, "spaark-hash %s: --hash is required\n", name)
		return exitError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "spaark-hash: %v\n", err)
		return exitError
	}
	logger, err := log.Init(cfg.Logger.ZapConfig())
	if err != nil {
		fmt.Fprintf(stderr, "spaark-hash: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	manager, err := cfg.Hashing.NewManager(logger)
	if err != nil {
		fmt.Fprintf(stderr, "spaark-hash: %v\n", err)
		return exitError
	}

	env := &cmdEnv{
		manager: manager,
		logger:  logger,
		driver:  *driver,
		hash:    *hash,
		stdout:  stdout,
		stderr:  stderr,
	}
	if cmd.needsPassword {
		env.password, err = readPassword(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "spaark-hash %s: %v\n", name, err)
			return exitError
		}
	}
	return cmd.exec(env)
}

// readPassword returns the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("no password on stdin")
	}
	return strings.TrimSuffix(sc.Text(), "\r"), nil
}

func runHash(env *cmdEnv) int {
	name := hashing.DriverName(env.driver)
	if name == "" {
		name = env.manager.DefaultDriver()
	}
	h, err := env.manager.Driver(name)
	if err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash hash: %v\n", err)
		return exitError
	}
	hash, err := h.Make(env.password)
	if err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash hash: %v\n", err)
		return exitError
	}
	fmt.Fprintln(env.stdout, hash)
	return exitOK
}

func runVerify(env *cmdEnv) int {
	a := auth.NewAuthenticator(env.manager, auth.WithLogger(env.logger))
	res, err := a.Attempt(env.password, env.hash)
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		fmt.Fprintln(env.stdout, "mismatch")
		return exitMismatch
	case err != nil:
		fmt.Fprintf(env.stderr, "spaark-hash verify: %v\n", err)
		return exitError
	}
	fmt.Fprintln(env.stdout, "match")
	if res.Rehashed() {
		fmt.Fprintf(env.stdout, "upgraded %s\n", res.Upgraded)
	}
	return exitOK
}

func runInfo(env *cmdEnv) int {
	info, err := env.manager.InfoWithDetect(env.hash)
	if err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash info: %v\n", err)
		return exitError
	}
	enc := json.NewEncoder(env.stdout)
	if err := enc.Encode(map[string]any{"driver": info.Driver, "params": info.Params}); err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash info: %v\n", err)
		return exitError
	}
	return exitOK
}

func runNeedsRehash(env *cmdEnv) int {
	needs, err := env.manager.NeedsRehash(env.hash)
	if err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash needs-rehash: %v\n", err)
		return exitError
	}
	fmt.Fprintln(env.stdout, needs)
	return exitOK
}

func runGenerateSalt(env *cmdEnv) int {
	secret, err := config.GenerateSecret(env.bytes)
	if err != nil {
		fmt.Fprintf(env.stderr, "spaark-hash generate-salt: %v\n", err)
		return exitError
	}
	fmt.Fprintln(env.stdout, secret)
	return exitOK
}
