// Copyright 2024 ctfmeta authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctfreader/ctfmeta"
	"github.com/ctfreader/ctfmeta/log"
)

var (
	varPath   string
	paramPath string
	format    string
)

func newLogger() log.Logger {
	stdlog := log.NewStdLogger(os.Stdout)
	return log.NewFilter(stdlog, log.FilterLevel(log.LevelError))
}

func runDumpMeta(cmd *cobra.Command, args []string) error {
	m, err := ctf.NewDemoMeta()
	if err != nil {
		return fmt.Errorf("instantiating demo metadata: %w", err)
	}

	v, err := m.FindVar("trace.packet.header")
	if err != nil {
		return fmt.Errorf("resolving trace.packet.header: %w", err)
	}
	printVarTree(m, v, "")
	return nil
}

func printVarTree(m *ctf.Meta, v *ctf.Var, indent string) {
	name := v.Name()
	if name == "" {
		name = "(root)"
	}
	fmt.Printf("%s%s\n", indent, name)
	for c := m.FirstChild(v); c != nil; c = m.NextSibling(c) {
		printVarTree(m, c, indent+"  ")
	}
}

func runReadVar(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("read-var requires exactly one stream file argument")
	}
	if varPath == "" && paramPath == "" {
		return fmt.Errorf("one of --var or --param is required")
	}

	m, err := ctf.NewDemoMeta()
	if err != nil {
		return fmt.Errorf("instantiating demo metadata: %w", err)
	}

	if paramPath != "" {
		val, err := m.FindParam(paramPath)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", paramPath, err)
		}
		fmt.Printf("%s: %s\n", paramPath, val)
		if varPath == "" {
			return nil
		}
	}

	src, err := ctf.NewMmapByteSource(args[0], &ctf.Options{Logger: newLogger()})
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer src.Close()

	v, err := m.FindVar(varPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", varPath, err)
	}

	header, err := m.FindVar("trace.packet.header")
	if err != nil {
		return fmt.Errorf("resolving trace.packet.header: %w", err)
	}
	ctx, err := m.CreateTopContext(header, src, nil, 0)
	if err != nil {
		return fmt.Errorf("creating top context: %w", err)
	}

	val, insufficient, err := m.GetUint64(v, ctx)
	if err != nil {
		return fmt.Errorf("reading %s: %w", varPath, err)
	}
	if insufficient {
		fmt.Printf("%s: insufficient context\n", varPath)
		return nil
	}

	switch format {
	case "hex":
		fmt.Printf("%s: 0x%x\n", varPath, val)
	default:
		fmt.Printf("%s: %d\n", varPath, val)
	}
	return nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "ctfdump",
		Short: "A Common Trace Format metadata reader",
		Long:  "ctfdump builds and reads Common Trace Format metadata, built for tracing tooling in mind",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ctfdump version 0.1.0")
		},
	}

	var dumpMetaCmd = &cobra.Command{
		Use:   "dump-meta",
		Short: "Dump the variable tree of the built-in demo metadata",
		RunE:  runDumpMeta,
	}

	var readVarCmd = &cobra.Command{
		Use:   "read-var <stream-file>",
		Short: "Read a variable's value from a stream file, against the built-in demo metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runReadVar,
	}
	readVarCmd.Flags().StringVar(&varPath, "var", "", "dotted variable path, e.g. trace.packet.header.second")
	readVarCmd.Flags().StringVar(&paramPath, "param", "", "dotted top-scope parameter path, e.g. trace.byte_order")
	readVarCmd.Flags().StringVar(&format, "format", "dec", "output format: dec or hex")

	rootCmd.AddCommand(versionCmd, dumpMetaCmd, readVarCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
