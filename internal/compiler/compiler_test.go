package compiler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/compiler"
)

func TestCompileSimpleFunction(t *testing.T) {
	var buf bytes.Buffer
	u := compiler.New("add.c", compiler.WithOutput(&buf))

	err := u.Compile(context.Background(), []byte(`
		int add(int a, int b) {
			return a + b;
		}
	`))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), ".globl\tadd")
	assert.Contains(t, buf.String(), "ret")
}

func TestCompileUndeclaredIdentifierFails(t *testing.T) {
	var buf bytes.Buffer
	u := compiler.New("bad.c", compiler.WithOutput(&buf))

	err := u.Compile(context.Background(), []byte(`
		int f() {
			return nope;
		}
	`))
	require.Error(t, err)

	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "bad.c", cerr.Unit)
}

func TestCompileRespectsCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	u := compiler.New("cancelled.c", compiler.WithOutput(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := u.Compile(ctx, []byte(`int f() { return 0; }`))
	require.Error(t, err)
}

func TestCompileLogsTrace(t *testing.T) {
	var buf bytes.Buffer
	var logged []string
	u := compiler.New("traced.c",
		compiler.WithOutput(&buf),
		compiler.WithLogf(func(format string, args ...interface{}) {
			logged = append(logged, format)
		}),
	)

	err := u.Compile(context.Background(), []byte(`int f() { return 0; }`))
	require.NoError(t, err)
	assert.NotEmpty(t, logged)
}

func TestCompileTeesOutput(t *testing.T) {
	var buf, tee bytes.Buffer
	u := compiler.New("teed.c", compiler.WithOutput(&buf), compiler.WithTee(&tee))

	err := u.Compile(context.Background(), []byte(`int f() { return 0; }`))
	require.NoError(t, err)
	assert.Equal(t, buf.String(), tee.String())
	assert.NotEmpty(t, buf.String())
}

func TestCompileMissingIncludeFails(t *testing.T) {
	var buf bytes.Buffer
	u := compiler.New("inc.c", compiler.WithOutput(&buf), compiler.WithIncludeDirs(t.TempDir()))

	err := u.Compile(context.Background(), []byte(`#include "missing.h"
int f() { return 0; }`))
	require.Error(t, err)
}
