package vm

import (
	"bytes"
	"testing"

	"github.com/ESloman/cslo/pkg/compiler"
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, source string) (string, error) {
	t.Helper()
	col := gc.New()
	c := compiler.New(col)
	fn, err := c.Compile(source, "test.slo")
	require.NoError(t, err, "source failed to compile")

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	interp := New(col, log)
	var out bytes.Buffer
	interp.Stdout = &out
	interp.SetSource(source)
	runErr := interp.Interpret(fn)
	return out.String(), runErr
}

func TestArithmeticAndPrint(t *testing.T) {
	out, err := runSource(t, `print(1 + 2 * 3);`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out, err := runSource(t, `
		func makeCounter() {
			var n = 0;
			func increment() {
				n = n + 1;
				return n;
			}
			return increment;
		}
		var counter = makeCounter();
		print(counter());
		print(counter());
		print(counter());
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestClassInheritanceAndSuper(t *testing.T) {
	out, err := runSource(t, `
		class Animal {
			func __init__(name) {
				self.name = name;
			}
			func speak() {
				return self.name + " makes a sound";
			}
		}
		class Dog extends Animal {
			func speak() {
				return super.speak() + " (a bark)";
			}
		}
		var d = Dog("Rex");
		print(d.speak());
	`)
	require.NoError(t, err)
	assert.Equal(t, "Rex makes a sound (a bark)\n", out)
}

func TestListIndexAndForIn(t *testing.T) {
	out, err := runSource(t, `
		var items = [10, 20, 30];
		var total = 0;
		for (var item in items) {
			total = total + item;
		}
		print(total);
		print(items[1]);
	`)
	require.NoError(t, err)
	assert.Equal(t, "60\n20\n", out)
}

func TestDictHasAndIndex(t *testing.T) {
	out, err := runSource(t, `
		var d = {"a": 1, "b": 2};
		print(d["a"]);
		print(d has "b");
		print(d has not "c");
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\ntrue\ntrue\n", out)
}

func TestListPushPopAndLength(t *testing.T) {
	out, err := runSource(t, `
		var items = [1, 2];
		items.push(3);
		print(items.length);
		print(items.pop());
		print(items.length);
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n3\n2\n", out)
}

func TestStringUpperLower(t *testing.T) {
	out, err := runSource(t, `
		var s = "Hello";
		print(s.upper());
		print(s.lower());
	`)
	require.NoError(t, err)
	assert.Equal(t, "HELLO\nhello\n", out)
}

func TestDictRemoveAndLength(t *testing.T) {
	out, err := runSource(t, `
		var d = {"a": 1, "b": 2};
		d.remove("a");
		print(d has "a");
		print(d.length);
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\n1\n", out)
}

func TestImportMathModule(t *testing.T) {
	out, err := runSource(t, `
		import math;
		print(math.sqrt(9));
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestImportAsAlias(t *testing.T) {
	out, err := runSource(t, `
		import random as rnd;
		rnd.seed(1);
		print(type(rnd.number()));
	`)
	require.NoError(t, err)
	assert.Equal(t, "number\n", out)
}

func TestEnumMembers(t *testing.T) {
	out, err := runSource(t, `
		enum Color { Red, Green, Blue }
		print(Color.Green);
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestStringInterpolation(t *testing.T) {
	out, err := runSource(t, `
		var name = "world";
		print("hello ${name}!");
	`)
	require.NoError(t, err)
	assert.Equal(t, "hello world!\n", out)
}

func TestAssertFailureRaisesRuntimeError(t *testing.T) {
	_, err := runSource(t, `assert 1 == 2;`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "AssertionException", rerr.Kind)
}

func TestDivisionByZeroRaisesRuntimeError(t *testing.T) {
	_, err := runSource(t, `print(1 / 0);`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Error(), rerr.Kind)
}

func TestUndefinedGlobalRaisesNameError(t *testing.T) {
	_, err := runSource(t, `print(doesNotExist);`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "NameException", rerr.Kind)
}

func TestArithmeticOperandMismatchRaisesTypeError(t *testing.T) {
	_, err := runSource(t, `print(1 + "a");`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "TypeException", rerr.Kind)
}

func TestArityMismatchRaisesTypeError(t *testing.T) {
	_, err := runSource(t, `
		func add(a, b) {
			return a + b;
		}
		add(1);
	`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "TypeException", rerr.Kind)
}

func TestCallingNonCallableRaisesTypeError(t *testing.T) {
	_, err := runSource(t, `
		var x = 1;
		x();
	`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "TypeException", rerr.Kind)
}

func TestListIndexOutOfRangeRaisesIndexError(t *testing.T) {
	_, err := runSource(t, `
		var items = [1, 2, 3];
		print(items[10]);
	`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "IndexException", rerr.Kind)
}

func TestDictMissingKeyOnSubscriptRaisesIndexError(t *testing.T) {
	_, err := runSource(t, `
		var d = {"a": 1};
		print(d["missing"]);
	`)
	require.Error(t, err)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "IndexException", rerr.Kind)
}

func TestStackTraceReportsCallChain(t *testing.T) {
	_, err := runSource(t, `
		func inner() {
			return 1 / 0;
		}
		func outer() {
			return inner();
		}
		outer();
	`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.NotEmpty(t, rerr.Frames)
}
