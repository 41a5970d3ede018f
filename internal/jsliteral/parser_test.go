package jsliteral

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, v *Value)
	}{
		{
			name: "double quoted string",
			src:  `"hello"`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, StringKind, v.Kind())
				assert.Equal(t, "hello", v.Str())
			},
		},
		{
			name: "single quoted string",
			src:  `'single \'quoted\''`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, StringKind, v.Kind())
				assert.Equal(t, "single 'quoted'", v.Str())
			},
		},
		{
			name: "escapes",
			src:  `"a\n\tA\x42\q"`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, "a\n\tABq", v.Str())
			},
		},
		{
			name: "integer",
			src:  `42`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, NumberKind, v.Kind())
				assert.True(t, v.IsWhole())
				assert.Equal(t, int64(42), v.Int())
			},
		},
		{
			name: "negative float",
			src:  `-1.5e2`,
			check: func(t *testing.T, v *Value) {
				assert.False(t, v.IsWhole())
				assert.InDelta(t, -150.0, v.Float(), 1e-9)
			},
		},
		{
			name: "true",
			src:  `true`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, BoolKind, v.Kind())
				assert.True(t, v.Bool())
			},
		},
		{
			name: "null",
			src:  `null`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, NullKind, v.Kind())
			},
		},
		{
			name: "undefined normalizes to null",
			src:  `undefined`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, NullKind, v.Kind())
			},
		},
		{
			name: "regex literal",
			src:  `/^[a-z/0-9]+$/i`,
			check: func(t *testing.T, v *Value) {
				assert.Equal(t, RegexKind, v.Kind())
				assert.Equal(t, `^[a-z/0-9]+$`, v.Str())
				assert.Equal(t, "i", v.RegexFlags())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestParse_ObjectForms(t *testing.T) {
	src := []byte(`{
		// node description
		path: "version",
		'text': 'version',
		leaf: 1,
		info: {
			GET: {
				description: "API version details",
				permissions: { user: 'world' },
				returns: { type: "object", },
			},
		}, /* trailing comma above is fine */
	}`)
	v, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, ObjectKind, v.Kind())
	assert.Equal(t, []string{"path", "text", "leaf", "info"}, v.Object().Keys())

	path, ok := v.Get("path")
	require.True(t, ok)
	assert.Equal(t, "version", path.Str())

	leaf, ok := v.Get("leaf")
	require.True(t, ok)
	assert.True(t, leaf.Truthy())

	info, ok := v.Get("info")
	require.True(t, ok)
	get, ok := info.Get("GET")
	require.True(t, ok)
	ret, ok := get.Get("returns")
	require.True(t, ok)
	typ, ok := ret.Get("type")
	require.True(t, ok)
	assert.Equal(t, "object", typ.Str())
}

func TestParse_StringWithSlashesIsNotRegex(t *testing.T) {
	// A '/' inside a string value must never be lexed as a regex start,
	// and a string that looks like a regex stays a string.
	v, err := Parse([]byte(`{ url: "/nodes/{node}/qemu", fake: "/not-a-regex/" }`))
	require.NoError(t, err)
	u, _ := v.Get("url")
	assert.Equal(t, StringKind, u.Kind())
	assert.Equal(t, "/nodes/{node}/qemu", u.Str())
	f, _ := v.Get("fake")
	assert.Equal(t, StringKind, f.Kind())
}

func TestParse_ArrayTrailingComma(t *testing.T) {
	v, err := Parse([]byte(`[1, 2, 3,]`))
	require.NoError(t, err)
	require.Equal(t, ArrayKind, v.Kind())
	require.Len(t, v.Items(), 3)
	assert.Equal(t, int64(3), v.Items()[2].Int())
}

func TestParseOne_IgnoresTrailingScript(t *testing.T) {
	src := []byte(`[ { path: "a" } ];
var somethingElse = 5;`)
	v, end, err := ParseOne(src)
	require.NoError(t, err)
	assert.Equal(t, ArrayKind, v.Kind())
	assert.Equal(t, byte(';'), src[end])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bare identifier value", `{ a: frobnicate }`, "unexpected identifier"},
		{"missing colon", `{ a "b" }`, "expected ':'"},
		{"unterminated object", `{ a: 1`, "unterminated object"},
		{"unterminated string", `{ a: "b`, "unterminated string"},
		{"unterminated regex", "{ a: /ab\n }", "unterminated regex"},
		{"trailing garbage", `[1] extra`, "trailing content"},
		{"unterminated comment", `[1, /* nope`, "unterminated block comment"},
		{"function call", `{ a: f(1) }`, "unexpected identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Contains(t, se.Msg, tt.want)
			assert.GreaterOrEqual(t, se.Offset, 0)
			assert.NotEmpty(t, se.Context)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse([]byte("{\n  a: 1,\n  b: @\n}"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Line)
	assert.Equal(t, 15, se.Offset)
}

func TestValue_Interface(t *testing.T) {
	v, err := Parse([]byte(`{ n: 3, f: 1.5, s: "x", ok: true, none: null, re: /ab/i, list: [1] }`))
	require.NoError(t, err)
	got := v.Interface().(map[string]any)
	assert.Equal(t, int64(3), got["n"])
	assert.Equal(t, 1.5, got["f"])
	assert.Equal(t, "x", got["s"])
	assert.Equal(t, true, got["ok"])
	assert.Nil(t, got["none"])
	assert.Equal(t, "/ab/i", got["re"])
	assert.Equal(t, []any{int64(1)}, got["list"])
}
