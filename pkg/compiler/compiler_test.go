package compiler

import (
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileValidProgram(t *testing.T) {
	col := gc.New()
	c := New(col)
	fn, err := c.Compile(`
		var x = 1;
		func add(a, b) {
			return a + b;
		}
		print(add(x, 2));
	`, "test.slo")
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Greater(t, len(fn.Chunk.Code), 0)
}

func TestCompileSyntaxErrorReportsLineAndCollects(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile("var x = ;", "test.slo")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	require.NotEmpty(t, compileErr.Messages)
	assert.Contains(t, compileErr.Messages[0], "[line 1]")
}

func TestCompileAccumulatesMultipleErrors(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile("var ; var ;", "test.slo")
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.GreaterOrEqual(t, len(compileErr.Messages), 2)
}

func TestFinalGlobalReassignmentIsCompileError(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile(`
		final var pi = 3;
		pi = 4;
	`, "test.slo")
	require.Error(t, err)
}

func TestFinalGlobalPersistsAcrossRepeatedCompiles(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile(`final var answer = 42;`, "")
	require.NoError(t, err)

	// A later, separate top-level compile against the same Compiler (the
	// REPL's usage pattern) must still see answer as final.
	_, err = c.Compile(`answer = 43;`, "")
	require.Error(t, err)
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile(`break;`, "test.slo")
	require.Error(t, err)
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	col := gc.New()
	c := New(col)
	_, err := c.Compile(`return 1;`, "test.slo")
	require.Error(t, err)
}
