package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "edit":
		err = Edit(args)
	case "serve":
		err = Serve(args)
	case "connect":
		err = Connect(args)
	case "tree":
		err = Tree(os.Stdout, args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("svginspect version %s\n", version)
	if info, ok := debug.ReadBuildInfo(); ok {
		rev := commit
		if rev == "unknown" {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					rev = setting.Value
				}
			}
		}
		if len(rev) > 12 {
			rev = rev[:12]
		}
		fmt.Printf("commit: %s\n", rev)
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println(`svginspect - inspect and rearrange SVG documents

Usage:
  svginspect <command> [flags] [arguments]

Commands:
  edit <file.svg>        Open a file in the terminal inspector
  serve <file.svg>       Share a file with remote inspectors over a websocket
  connect <ws-url>       Inspect a document served by "svginspect serve"
  tree <file.svg>        Print the element tree with paths
  version                Show version information
  help                   Show this help

Flags:
  -config <path>         Config file (default ~/.config/svginspect/config.yaml)
  -compact               Write documents without formatting whitespace
  -addr <host:port>      Listen address for serve`)
}
