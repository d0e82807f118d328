// Command expensectl is a terminal client for the expense tracker API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"expense-tracker-client/internal/common"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errMissingCommand = errors.New("missing command")

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("expensectl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", common.DefaultConfigPath(), "Path to config file")
	envFile := fs.String("env", ".env", "Path to .env file (empty to skip)")
	apiURL := fs.String("api", "", "API base URL (overrides config)")
	dbPath := fs.String("db", "", "Session database path (overrides config)")
	jsonOut := fs.Bool("json", false, "Print JSON instead of tables")
	verbose := fs.Bool("v", false, "Enable debug logging")

	fs.Usage = func() {
		printUsage(stderr)
		fmt.Fprintln(stderr, "\nGlobal flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stdout)
		return errMissingCommand
	}

	name := rest[0]
	switch name {
	case "help":
		printUsage(stdout)
		return nil
	case "version":
		fmt.Fprintf(stdout, "expensectl %s\n", common.GetFullVersion())
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	if *envFile != "" {
		// A missing .env file is not an error
		_ = godotenv.Load(*envFile)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := common.NewLogger(cfg.Logging.Level, cfg.Logging.Format, stderr)

	a, err := newApp(cfg, logger, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()
	a.json = *jsonOut

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return a.execute(ctx, cmd, rest[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: expensectl [global flags] <command> [args]")
	fmt.Fprintln(w, "\nCommands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "  %-12s %s\n", "version", "Print version information")
	fmt.Fprintf(w, "  %-12s %s\n", "help", "Show this help")
}

// prompter reads answers from stdin, switching to no-echo input for secrets on a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

func (p *prompter) askSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	password, err := p.readPassword()
	fmt.Fprintln(p.out) // Print newline after password input
	return password, err
}

func (p *prompter) readPassword() (string, error) {
	// Check if stdin is a terminal
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	return p.readLine()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
