package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tempo/compiler-go/pkg/dl"
	"tempo/compiler-go/pkg/driver"
	"tempo/compiler-go/pkg/typecheck"
)

const cliToolVersion = "tempo-cli 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage(stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(stdout, cliToolVersion)
		return 0
	case "types":
		return runTypes(args[1:], stdout, stderr)
	case "describe":
		return runDescribe(args[1:], stdout, stderr)
	case "extensions":
		return runExtensions(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `usage: tempo <command> [options]

commands:
  types [--manifest session.yml]            list the known types
  describe <Type> [--manifest session.yml]  describe a type and its members
  extensions                                list the registered native extensions
  version                                   print the tool version`)
}

// sessionEnv boots a type environment and applies the manifest the options
// name, if any.
func sessionEnv(args []string, stderr io.Writer) (*typecheck.Env, []string, error) {
	var manifestPath string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--manifest":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--manifest requires a path")
			}
			i++
			manifestPath = args[i]
		case strings.HasPrefix(args[i], "--manifest="):
			manifestPath = strings.TrimPrefix(args[i], "--manifest=")
		default:
			rest = append(rest, args[i])
		}
	}

	carrier := &typecheck.Carrier{}
	env, err := typecheck.Init(carrier)
	if err != nil {
		return nil, nil, err
	}
	if manifestPath != "" {
		m, err := driver.LoadManifest(manifestPath)
		if err != nil {
			return nil, nil, err
		}
		if err := m.Apply(env); err != nil {
			return nil, nil, err
		}
	}
	return env, rest, nil
}

func runTypes(args []string, stdout, stderr io.Writer) int {
	env, rest, err := sessionEnv(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if len(rest) != 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(rest, " "))
		return 1
	}
	names := make([]string, 0)
	for _, t := range env.Global().GetTypes() {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return 0
}

func runDescribe(args []string, stdout, stderr io.Writer) int {
	env, rest, err := sessionEnv(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "describe requires exactly one type name")
		return 1
	}
	t, ok := env.FindType(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown type %q\n", rest[0])
		return 1
	}
	fmt.Fprint(stdout, t.Apropos())
	return 0
}

func runExtensions(stdout io.Writer) int {
	for _, name := range dl.Names() {
		fmt.Fprintln(stdout, name)
	}
	return 0
}
