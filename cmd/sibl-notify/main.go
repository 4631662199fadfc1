// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

// Sibl-notify sends a script path to a running sibl-bridge the way sIBL
// GUI does: connect, write the path, close. Useful for testing a bridge
// without sIBL GUI and for scripting loads.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/jedfrechette/sibl-gui-for-blender/bridge"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/process"
	"github.com/jedfrechette/sibl-gui-for-blender/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, output io.Writer) error {
	var host string
	var port int
	var timeout time.Duration
	var raw bool
	var showVersion bool

	flagSet := pflag.NewFlagSet("sibl-notify", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVar(&host, "host", bridge.DefaultHost, "bridge host")
	flagSet.IntVar(&port, "port", bridge.DefaultPort, "bridge port")
	flagSet.DurationVar(&timeout, "timeout", 5*time.Second, "connect and write timeout")
	flagSet.BoolVar(&raw, "raw", false, "send PATH as given instead of making it absolute")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(output, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(output, flagSet)
		return nil
	}
	if showVersion {
		version.Fprint(output, "sibl-notify")
		return nil
	}
	if flagSet.NArg() != 1 {
		printUsage(output, flagSet)
		return fmt.Errorf("expected exactly one PATH argument, got %d", flagSet.NArg())
	}

	path := flagSet.Arg(0)
	if !raw {
		absolute, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
		path = absolute
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return bridge.Notify(ctx, net.JoinHostPort(host, strconv.Itoa(port)), path)
}

func printUsage(output io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(output, `sibl-notify - send a script path to sibl-bridge

USAGE
    sibl-notify [flags] PATH

FLAGS
`)
	flagSet.PrintDefaults()
}
