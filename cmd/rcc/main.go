// Command rcc compiles a subset of C directly to x86-64 AT&T assembly,
// one translation unit at a time.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/logutils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcc-lang/rcc/internal/compiler"
	"github.com/rcc-lang/rcc/internal/logio"
)

var log logio.Logger

func main() {
	log.SetOutput(noopCloser{os.Stderr})
	defer os.Exit(log.ExitCode())

	if err := newRootCmd().Execute(); err != nil {
		log.ErrorIf(err)
	}
}

type noopCloser struct{ io.Writer }

func (noopCloser) Close() error { return nil }

// logLevels enumerates every level cmd/rcc writes, from most to least
// verbose: the ascending-severity order logutils.LevelFilter expects, so
// MinLevel drops every level listed before it.
var logLevels = []logutils.LogLevel{"TRACE", "DUMP", "ERROR"}

// applyLogLevel rewraps the logger's output through a logutils.LevelFilter
// gating on the bracketed "[LEVEL]" prefix Leveledf is called with below.
func applyLogLevel(level string) {
	log.SetOutput(noopCloser{&logutils.LevelFilter{
		Levels:   logLevels,
		MinLevel: logutils.LogLevel(strings.ToUpper(level)),
		Writer:   os.Stderr,
	}})
}

func bracketed(level string) string { return "[" + level + "]" }

func newRootCmd() *cobra.Command {
	var (
		trace       bool
		asmComments bool
		atomLimit   int
		includeDirs []string
		outDir      string
		logLevel    string
	)

	root := &cobra.Command{
		Use:           "rcc [files...]",
		Short:         "compile a C subset to x86-64 assembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(logLevel)
			var logf func(string, ...interface{})
			if trace {
				logf = log.Leveledf(bracketed("TRACE"))
			}
			if asmComments {
				log.Leveledf(bracketed("DUMP"))("annotating emitted assembly with atom indices")
			}
			return compileFiles(cmd.Context(), args, outDir, logf, includeDirs, atomLimit, asmComments)
		},
	}

	root.PersistentFlags().BoolVar(&trace, "trace", false, "enable trace logging")
	root.PersistentFlags().BoolVar(&asmComments, "dump", false, "annotate emitted assembly with atom indices")
	root.PersistentFlags().IntVar(&atomLimit, "atom-limit", 0, "override the per-unit atom pool limit (0 = default)")
	root.PersistentFlags().StringArrayVar(&includeDirs, "include", nil, "add a directory to the #include search path")
	root.PersistentFlags().StringVarP(&outDir, "o", "o", "", "output directory for .s files (default: alongside each source)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "ERROR", "minimum log level to print: ERROR, DUMP, or TRACE")

	root.AddCommand(newTokensCmd())
	root.AddCommand(newAtomsCmd())
	return root
}

// compileFiles compiles each file as an independent translation unit,
// concurrently, since units share no mutable state.
func compileFiles(ctx context.Context, files []string, outDir string, logf func(string, ...interface{}), includeDirs []string, atomLimit int, asmComments bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			return compileOne(ctx, file, outDir, logf, includeDirs, atomLimit, asmComments)
		})
	}
	return g.Wait()
}

func compileOne(ctx context.Context, file, outDir string, logf func(string, ...interface{}), includeDirs []string, atomLimit int, asmComments bool) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	outPath := outputPathFor(file, outDir)
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := []compiler.Option{compiler.WithOutput(f)}
	if logf != nil {
		opts = append(opts, compiler.WithLogf(logf))
	}
	if atomLimit > 0 {
		opts = append(opts, compiler.WithAtomLimit(atomLimit))
	}
	if len(includeDirs) > 0 {
		opts = append(opts, compiler.WithIncludeDirs(includeDirs...))
	}
	if asmComments {
		opts = append(opts, compiler.WithAsmComments())
	}

	u := compiler.New(file, opts...)
	if err := u.Compile(ctx, body); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("rcc: %w", err)
	}
	return nil
}

func outputPathFor(src, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".s"
	if outDir == "" {
		return filepath.Join(filepath.Dir(src), base)
	}
	return filepath.Join(outDir, base)
}
