package apitree

// Flatten walks the forest depth-first in source order and returns one
// record per method entry. The traversal is deterministic: repeated
// runs over the same tree yield the same sequence.
func Flatten(nodes []*Node) []Record {
	var out []Record
	flattenInto(nodes, "", &out)
	return out
}

func flattenInto(nodes []*Node, prefix string, out *[]Record) {
	for _, n := range nodes {
		cur := prefix + n.Path
		for _, op := range n.Ops {
			*out = append(*out, Record{Path: cur, Text: n.Text, Spec: op})
		}
		flattenInto(n.Children, cur, out)
	}
}
