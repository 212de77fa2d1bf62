package config

import (
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dbdrill/internal/jsonpath"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

const sampleTOML = `
[user]
name = "User"

[user.search.id]
query = "SELECT id, name FROM users WHERE id = $1"
params = [{ name = "id", type = "integer" }]

[user.search.all]
query = "SELECT id, name FROM users ORDER BY id"

[user.links.blogs]
kind = "blog"
search = "editor"
search_params = ["id"]

[blog]
name = "Blog"

[blog.search.editor]
query = "SELECT id, title, posts FROM blogs WHERE editor_id = $1 ORDER BY id"
params = [{ name = "editor", type = "integer" }]

[blog.links.posts]
kind = "post"
search = "ids"
search_params = [{ json_path = ["posts", "$[*].postId"] }]
when = "size(_.posts) > 0"

[blog.links.editor]
kind = "user"
search = "id"
search_params = ["editor_id"]
if = { eq = ["kind", "personal"] }

[post]
name = "Post"

[post.search.ids]
query = "SELECT id, title FROM posts WHERE id = ANY($1) ORDER BY id"
params = [{ name = "ids", type = "integer[]" }]
`

func parseDoc(t *testing.T, src string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, toml.Unmarshal([]byte(src), &doc))
	return doc
}

func TestLoadSample(t *testing.T) {
	m, err := Load(parseDoc(t, sampleTOML))
	require.NoError(t, err)

	var names []string
	for _, e := range m.Entities() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Blog", "Post", "User"}, names)

	user, ok := m.Entity("user")
	require.True(t, ok)
	assert.Equal(t, "user", user.ID())

	searches := user.Searches()
	require.Len(t, searches, 2)
	assert.Equal(t, "all", searches[0].Name())
	assert.Equal(t, "id", searches[1].Name())
	assert.Empty(t, searches[0].Params())
	assert.Equal(t, []ParamSpec{{Name: "id", Type: value.TypeInteger}}, searches[1].Params())

	blogs, ok := user.Link("blogs")
	require.True(t, ok)
	assert.Equal(t, "user", blogs.Source())
	assert.Equal(t, "blog", blogs.Target())
	assert.Equal(t, "editor", blogs.TargetSearch())
	assert.Equal(t, []Binding{ColumnBinding{Column: "id"}}, blogs.Bindings())
	_, hasCond := blogs.Condition()
	assert.False(t, hasCond)
	assert.Nil(t, blogs.When())

	blog, _ := m.Entity("blog")
	posts, ok := blog.Link("posts")
	require.True(t, ok)
	require.Len(t, posts.Bindings(), 1)
	pb, ok := posts.Bindings()[0].(PathBinding)
	require.True(t, ok)
	assert.Equal(t, "posts", pb.Column)
	assert.Equal(t, jsonpath.Path{jsonpath.Wildcard{}, jsonpath.Field{Name: "postId"}}, pb.Path)
	assert.Equal(t, "posts[*].postId", pb.String())
	require.NotNil(t, posts.When())

	editor, _ := blog.Link("editor")
	cond, ok := editor.Condition()
	require.True(t, ok)
	assert.Equal(t, ColumnBinding{Column: "kind"}, cond.Binding)
	assert.Equal(t, "personal", cond.Equals)

	links := blog.Links()
	require.Len(t, links, 2)
	assert.Equal(t, "editor", links[0].Name())
	assert.Equal(t, "posts", links[1].Name())
}

func TestLoadModelIsNotAliased(t *testing.T) {
	m, err := Load(parseDoc(t, sampleTOML))
	require.NoError(t, err)

	user, _ := m.Entity("user")
	s, _ := user.Search("id")
	params := s.Params()
	params[0].Type = value.TypeText
	assert.Equal(t, value.TypeInteger, s.Params()[0].Type)

	ents := m.Entities()
	ents[0] = nil
	assert.NotNil(t, m.Entities()[0])
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind ErrorKind
		path string
	}{
		{
			name: "unknown param type",
			doc: `[user]
name = "User"
[user.search.id]
query = "q"
params = [{ name = "id", type = "money" }]`,
			kind: ErrUnknownParamType,
			path: "user.search.id.params[0].type",
		},
		{
			name: "link to missing entity",
			doc: `[user]
name = "User"
[user.links.blogs]
kind = "blog"
search = "editor"
search_params = ["id"]`,
			kind: ErrUnknownEntity,
			path: "user.links.blogs.kind",
		},
		{
			name: "link to missing search",
			doc: `[user]
name = "User"
[user.search.id]
query = "q"
[user.links.self]
kind = "user"
search = "nope"`,
			kind: ErrUnknownSearch,
			path: "user.links.self.search",
		},
		{
			name: "binding count mismatch",
			doc: `[user]
name = "User"
[user.search.id]
query = "q"
params = [{ name = "id", type = "integer" }]
[user.links.self]
kind = "user"
search = "id"
search_params = ["id", "name"]`,
			kind: ErrBindingCount,
			path: "user.links.self.search_params",
		},
		{
			name: "duplicate display name",
			doc: `[a]
name = "Thing"
[b]
name = "Thing"`,
			kind: ErrDuplicateName,
			path: "b.name",
		},
		{
			name: "empty display name",
			doc: `[a]
name = ""`,
			kind: ErrEmptyIdentifier,
			path: "a.name",
		},
		{
			name: "duplicate param",
			doc: `[a]
name = "A"
[a.search.s]
query = "q"
params = [{ name = "x" }, { name = "x" }]`,
			kind: ErrDuplicateName,
			path: "a.search.s.params[1].name",
		},
		{
			name: "unknown key",
			doc: `[a]
name = "A"
[a.searches.s]
query = "q"`,
			kind: ErrMalformed,
			path: "a",
		},
		{
			name: "bad json path",
			doc: `[a]
name = "A"
[a.search.s]
query = "q"
params = [{ name = "x" }]
[a.links.l]
kind = "a"
search = "s"
search_params = [{ json_path = ["doc", "$["] }]`,
			kind: ErrInvalidPath,
			path: "a.links.l.search_params[0].json_path",
		},
		{
			name: "json path without expression",
			doc: `[a]
name = "A"
[a.search.s]
query = "q"
params = [{ name = "x" }]
[a.links.l]
kind = "a"
search = "s"
search_params = [{ json_path = ["doc"] }]`,
			kind: ErrInvalidBinding,
			path: "a.links.l.search_params[0].json_path",
		},
		{
			name: "bad condition",
			doc: `[a]
name = "A"
[a.search.s]
query = "q"
[a.links.l]
kind = "a"
search = "s"
if = { ne = ["x", "y"] }`,
			kind: ErrInvalidCondition,
			path: "a.links.l.if",
		},
		{
			name: "non boolean when",
			doc: `[a]
name = "A"
[a.search.s]
query = "q"
[a.links.l]
kind = "a"
search = "s"
when = "'text'"`,
			kind: ErrInvalidCondition,
			path: "a.links.l.when",
		},
		{
			name: "entity not a table",
			doc:  `a = 3`,
			kind: ErrMalformed,
			path: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(parseDoc(t, tt.doc))
			require.Error(t, err)
			assert.Nil(t, m)

			var cerr *Error
			require.True(t, errors.As(err, &cerr), "expected *config.Error, got %T", err)
			assert.Equal(t, tt.kind, cerr.Kind, cerr.Error())
			assert.Equal(t, tt.path, cerr.Path)
		})
	}
}

// Breaking any one of target entity, target search or binding count must fail the whole load.
func TestLoadConsistencyIsAllOrNothing(t *testing.T) {
	mutations := map[string]func(doc map[string]any){
		"target entity": func(doc map[string]any) {
			link(doc, "user", "blogs")["kind"] = "nobody"
		},
		"target search": func(doc map[string]any) {
			link(doc, "user", "blogs")["search"] = "nothing"
		},
		"binding count": func(doc map[string]any) {
			link(doc, "user", "blogs")["search_params"] = []any{"id", "id"}
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			doc := parseDoc(t, sampleTOML)
			_, err := Load(doc)
			require.NoError(t, err)

			mutate(doc)
			m, err := Load(doc)
			require.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

func link(doc map[string]any, entity, name string) map[string]any {
	return doc[entity].(map[string]any)["links"].(map[string]any)[name].(map[string]any)
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: ErrUnknownSearch, Path: "user.links.blogs.search", Err: errors.New("boom")}
	assert.Equal(t, "user.links.blogs.search: unknown search: boom", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
