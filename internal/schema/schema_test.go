package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/gqlc/internal/language"
	"github.com/stretchr/testify/require"
)

func TestLoadBaseSchema(t *testing.T) {
	sch, err := Load(filepath.Join("testdata", "base.graphql"))
	require.NoError(t, err, "failed to load schema")

	require.Equal(t, "Query", sch.QueryType)
	require.Equal(t, "Mutation", sch.MutationType)
	require.Empty(t, sch.SubscriptionType)
	require.Nil(t, sch.GetSubscriptionType())

	require.Same(t, sch.GetQueryType(), sch.RootType(language.Query))
	require.Same(t, sch.GetMutationType(), sch.RootType(language.Mutation))
	require.Nil(t, sch.RootType(language.Subscription))

	users := sch.FieldOf("Query", "users")
	require.NotNil(t, users)
	require.Equal(t, "[User!]!", users.Type.String())
	require.Equal(t, "User", users.Type.GetNamedType())
	require.True(t, users.Type.IsList())
	require.Equal(t, "10", users.Arguments[0].DefaultValue)

	legacy := sch.FieldOf("User", "legacyName")
	require.True(t, legacy.IsDeprecated)
	require.Equal(t, "use name", legacy.DeprecationReason)

	require.Nil(t, sch.FieldOf("User", "missing"))
	require.Nil(t, sch.FieldOf("Missing", "id"))
}

func TestTypenameOnCompositeTypes(t *testing.T) {
	sch := mustBuild(t)
	for _, name := range []string{"Query", "Node", "SearchResult"} {
		f := sch.FieldOf(name, "__typename")
		require.NotNil(t, f, name)
		require.Equal(t, "String!", f.Type.String())
	}
	require.Nil(t, sch.FieldOf("Order", "__typename"))
}

func TestPossibleTypesSorted(t *testing.T) {
	sch := mustBuild(t)
	if diff := cmp.Diff([]string{"Post", "User"}, sch.Type("SearchResult").PossibleTypes); diff != "" {
		t.Fatalf("possible types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Post", "User"}, sch.Type("Node").PossibleTypes); diff != "" {
		t.Fatalf("implementations mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilerDirectivesMerged(t *testing.T) {
	sch := mustBuild(t)
	require.Contains(t, sch.Directives, "arguments")
	require.Contains(t, sch.Directives, "argumentDefinitions")
	require.Contains(t, sch.Directives, "include")
	require.Equal(t, []string{"FRAGMENT_SPREAD"}, sch.Directives["arguments"].Locations)
}

func TestBuildFromSDLInvalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { a: Missing }`)
	require.Error(t, err)
}

func TestLoadRequiresPaths(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "nope.graphql"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestTypeRefFromAST(t *testing.T) {
	for _, src := range []string{"ID", "ID!", "[ID]", "[ID!]!", "[[Int]!]"} {
		doc, err := language.ParseQuery("q.graphql", "query Q($v: "+src+") { a }")
		require.NoError(t, err)
		ref := FromAST(doc.Operations[0].VariableDefinitions[0].Type)
		require.Equal(t, src, ref.String())
	}
}

func mustBuild(t *testing.T) *Schema {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", "base.graphql"))
	require.NoError(t, err)
	sch, err := BuildFromSDL(string(content))
	require.NoError(t, err)
	return sch
}
