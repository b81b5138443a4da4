package ir_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/gqlc/internal/ir"
	"github.com/stretchr/testify/require"
)

func TestPrintRoundTrip(t *testing.T) {
	sch := mustLoadSchema(t)
	docs, err := loadFiles(t, sch, filepath.Join("testdata", "documents"))
	require.NoError(t, err)

	printed := ir.PrintAll(docs)
	again := mustBuild(t, sch, printed)
	if diff := cmp.Diff(docs, again, ignoreLocations); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, printed, ir.PrintAll(again))
}

func TestPrintConditionsAndArguments(t *testing.T) {
	sch := mustLoadSchema(t)
	docs := mustBuild(t, sch, `
query Q($a: Boolean!, $s: Int) {
  user(id: "1") @include(if: $a) {
    ...F @arguments(size: $s) @skip(if: $a)
  }
}
fragment F on User @argumentDefinitions(size: {type: "Int"}) { avatar(size: $size) }
`)

	root := ir.Print(docs[0])
	require.True(t, strings.HasPrefix(root, "query Q"), root)
	require.Contains(t, root, "$a: Boolean!")
	require.Contains(t, root, "$s: Int")
	require.Contains(t, root, "@include(if: $a)")
	skip := strings.Index(root, "@skip(if: $a)")
	args := strings.Index(root, "@arguments(size: $s)")
	require.True(t, skip >= 0 && args > skip, root)

	frag := ir.Print(docs[1])
	require.True(t, strings.HasPrefix(frag, "fragment F on User"), frag)
	require.Contains(t, frag, "@argumentDefinitions(size:")
	require.Contains(t, frag, `"Int"`)

	// printing is stable through a rebuild
	again := mustBuild(t, sch, ir.PrintAll(docs))
	if diff := cmp.Diff(docs, again, ignoreLocations); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintAllEmpty(t *testing.T) {
	require.Equal(t, "", ir.PrintAll(nil))
}
