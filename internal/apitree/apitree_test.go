package apitree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxdocs/apidoc2openapi/internal/jsliteral"
)

func mustParse(t *testing.T, src string) *jsliteral.Value {
	t.Helper()
	v, err := jsliteral.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

func TestDecode_ArrayShape(t *testing.T) {
	v := mustParse(t, `[
		{
			path: "/nodes",
			text: "nodes",
			info: { GET: { description: "Cluster node index." } },
			children: [
				{
					path: "/{node}",
					text: "{node}",
					children: [
						{ path: "/status", info: {
							GET: { description: "Read node status" },
							POST: { description: "Reboot or shutdown a node." },
						} },
					],
				},
			],
		},
		{ path: "/version", leaf: 1, info: { GET: { description: "API version." } } },
	]`)

	nodes, err := Decode(v)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "/nodes", nodes[0].Path)
	assert.False(t, nodes[0].Leaf)
	assert.True(t, nodes[1].Leaf)
	require.Len(t, nodes[0].Children, 1)
	require.Len(t, nodes[0].Children[0].Children, 1)

	recs := Flatten(nodes)
	require.Len(t, recs, 4)
	assert.Equal(t, "/nodes", recs[0].Path)
	assert.Equal(t, "GET", recs[0].Spec.Method)
	assert.Equal(t, "/nodes/{node}/status", recs[1].Path)
	assert.Equal(t, "GET", recs[1].Spec.Method)
	assert.Equal(t, "POST", recs[2].Spec.Method)
	assert.Equal(t, "/version", recs[3].Path)
}

func TestDecode_RootObjectShape(t *testing.T) {
	v := mustParse(t, `{
		text: "root",
		children: [
			{ path: "/access", info: { GET: { description: "index" } } },
		],
	}`)
	nodes, err := Decode(v)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "", nodes[0].Path)

	recs := Flatten(nodes)
	require.Len(t, recs, 1)
	assert.Equal(t, "/access", recs[0].Path)
}

func TestDecode_DirectMethodKeys(t *testing.T) {
	v := mustParse(t, `[
		{ path: "/ping", GET: { description: "liveness" } },
	]`)
	nodes, err := Decode(v)
	require.NoError(t, err)
	recs := Flatten(nodes)
	require.Len(t, recs, 1)
	assert.Equal(t, "GET", recs[0].Spec.Method)
	assert.Equal(t, "liveness", recs[0].Spec.Description)
}

func TestFlatten_CountsEveryMethodEntry(t *testing.T) {
	// Record count must equal method entries regardless of nesting.
	v := mustParse(t, `[
		{ path: "/a", info: { GET: {}, POST: {}, DELETE: {} }, children: [
			{ path: "/b", children: [
				{ path: "/c", info: { PUT: {} } },
			] },
		] },
	]`)
	nodes, err := Decode(v)
	require.NoError(t, err)
	recs := Flatten(nodes)
	assert.Len(t, recs, 4)
	// Nodes with no info contribute prefix only.
	assert.Equal(t, "/a/b/c", recs[3].Path)
}

func TestDecode_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"scalar top level", `"nope"`, "top level must be"},
		{"object without children", `{ path: "/x" }`, "no children key"},
		{"node missing path", `[ { info: { GET: {} } } ]`, "lacks a path segment"},
		{"info not object", `[ { path: "/a", info: 5 } ]`, "info block must be an object"},
		{"children not array", `[ { path: "/a", children: "kids" } ]`, "children must be an array"},
		{"node not object", `[ 42 ]`, "node must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(mustParse(t, tt.src))
			require.Error(t, err)
			var se *ShapeError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Msg, tt.want)
		})
	}
}

func TestDecode_FieldSpecs(t *testing.T) {
	v := mustParse(t, `[
		{ path: "/vms", info: { POST: {
			description: "Create VM",
			permissions: { check: ["perm", "/vms", ["VM.Allocate"]] },
			parameters: {
				type: "object",
				properties: {
					vmid: { type: "integer", minimum: 1, maximum: 999999999 },
					name: { type: "string", pattern: /^[a-z]+$/, optional: 1, maxLength: 64 },
					start: { type: "boolean", optional: true, default: false },
					tags: { type: "array", optional: 1, items: { type: "string" } },
					mode: { type: "string", enum: ["snapshot", "suspend"], default: "snapshot" },
				},
			},
			returns: { type: "object", properties: { upid: { type: "string" } } },
		} } },
	]`)
	nodes, err := Decode(v)
	require.NoError(t, err)
	op := nodes[0].Ops[0]

	require.Len(t, op.Parameters, 5)
	assert.Equal(t, []string{"vmid", "name", "start", "tags", "mode"}, paramNames(op.Parameters))

	vmid := op.Parameters[0]
	assert.False(t, vmid.Optional)
	require.NotNil(t, vmid.Minimum)
	assert.Equal(t, 1.0, *vmid.Minimum)
	require.NotNil(t, vmid.Maximum)

	name := op.Parameters[1]
	assert.True(t, name.Optional)
	assert.Equal(t, "^[a-z]+$", name.Pattern)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, uint64(64), *name.MaxLength)

	start := op.Parameters[2]
	assert.Equal(t, false, start.Default)
	assert.True(t, start.HasDefault)

	tags := op.Parameters[3]
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)

	mode := op.Parameters[4]
	assert.Equal(t, []any{"snapshot", "suspend"}, mode.Enum)
	assert.Equal(t, "snapshot", mode.Default)

	require.NotNil(t, op.Returns)
	require.Len(t, op.Returns.Properties, 1)
	assert.Equal(t, "upid", op.Returns.Properties[0].Name)

	perms, ok := op.Permissions.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, perms, "check")
}

func TestDecode_NullDefaultSurvives(t *testing.T) {
	v := mustParse(t, `[
		{ path: "/a", info: { GET: {
			parameters: { type: "object", properties: {
				cidr: { type: "string", optional: 1, default: null },
				mtu: { type: "integer", optional: 1 },
			} },
		} } },
	]`)
	nodes, err := Decode(v)
	require.NoError(t, err)

	op := nodes[0].Ops[0]
	require.Len(t, op.Parameters, 2)

	cidr := op.Parameters[0]
	assert.True(t, cidr.HasDefault)
	assert.Nil(t, cidr.Default)

	mtu := op.Parameters[1]
	assert.False(t, mtu.HasDefault)
}

func paramNames(fields []FieldSpec) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
