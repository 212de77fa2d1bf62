package nav

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/internal/value"
	"github.com/oakwood-commons/dbdrill/pkg/loader"
)

const sampleResources = "../../examples/sample/resources.toml"

func loadSample(t *testing.T) *config.Model {
	t.Helper()
	doc, err := loader.LoadDocument(sampleResources)
	require.NoError(t, err)
	model, err := config.Load(doc)
	require.NoError(t, err)
	return model
}

type call struct {
	query string
	args  []value.Value
}

// fakeDB answers the sample searches from in-memory tables.
type fakeDB struct {
	handlers map[string]func(args []value.Value) []value.Row
	calls    []call
	err      error
}

func newFakeDB(t *testing.T, model *config.Model) *fakeDB {
	t.Helper()
	f := &fakeDB{handlers: map[string]func([]value.Value) []value.Row{}}
	on := func(entity, search string, h func([]value.Value) []value.Row) {
		f.handlers[mustSearch(t, model, entity, search)] = h
	}
	on("user", "id", func(args []value.Value) []value.Row {
		return filter(sampleUsers(), "id", args[0])
	})
	on("user", "all", func([]value.Value) []value.Row { return sampleUsers() })
	on("blog", "editor", func(args []value.Value) []value.Row {
		return filter(sampleBlogs(t), "editor_id", args[0])
	})
	on("blog", "id", func(args []value.Value) []value.Row {
		return filter(sampleBlogs(t), "id", args[0])
	})
	on("post", "ids", func(args []value.Value) []value.Row {
		var out []value.Row
		for _, id := range args[0].(value.IntegerArray) {
			out = append(out, filter(samplePosts(), "id", value.Integer(id))...)
		}
		return out
	})
	return f
}

func (f *fakeDB) Execute(_ context.Context, query string, args []value.Value) ([]value.Row, error) {
	f.calls = append(f.calls, call{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.handlers[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	return h(args), nil
}

func (f *fakeDB) last() call { return f.calls[len(f.calls)-1] }

func filter(rows []value.Row, col string, want value.Value) []value.Row {
	var out []value.Row
	for _, r := range rows {
		if v, ok := r.Get(col); ok && v == want {
			out = append(out, r)
		}
	}
	return out
}

func sampleUsers() []value.Row {
	user := func(id int64, name string, email value.Value) value.Row {
		return value.MustRow(
			value.Col("id", value.Integer(id)),
			value.Col("name", value.Text(name)),
			value.Col("email", email),
		)
	}
	return []value.Row{
		user(1, "Ada", value.Text("ada@example.com")),
		user(2, "Grace", value.Text("grace@example.com")),
		user(3, "Linus", value.Text("linus@example.com")),
		user(4, "Margaret", value.Null{}),
	}
}

func sampleBlogs(t *testing.T) []value.Row {
	blog := func(id, editor int64, title, meta, posts string) value.Row {
		m, err := value.DecodeJSON([]byte(meta))
		require.NoError(t, err)
		p, err := value.DecodeJSON([]byte(posts))
		require.NoError(t, err)
		return value.MustRow(
			value.Col("id", value.Integer(id)),
			value.Col("title", value.Text(title)),
			value.Col("editor_id", value.Integer(editor)),
			value.Col("meta", value.JSON{Tree: m}),
			value.Col("posts", value.JSON{Tree: p}),
		)
	}
	return []value.Row{
		blog(1, 3, "Kernel notes", `{"visibility":"public"}`, `[{"postId":1},{"postId":2}]`),
		blog(2, 3, "Git internals", `{"visibility":"draft"}`, `[{"postId":3}]`),
		blog(3, 2, "Compilers", `{"visibility":"public"}`, `[]`),
	}
}

func samplePosts() []value.Row {
	post := func(id, author int64, title string) value.Row {
		return value.MustRow(
			value.Col("id", value.Integer(id)),
			value.Col("title", value.Text(title)),
			value.Col("author_id", value.Integer(author)),
		)
	}
	return []value.Row{
		post(1, 3, "Scheduling"),
		post(2, 3, "Memory"),
		post(3, 3, "Packfiles"),
		post(4, 2, "Parsing"),
	}
}

// press dispatches keys in order, failing the test on any query error.
func press(t *testing.T, m *Machine, exec Executor, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, m.Dispatch(context.Background(), exec, k), "key %s", k)
	}
}

func kinds(m *Machine) []Kind {
	stack := m.Stack()
	out := make([]Kind, len(stack))
	for i, v := range stack {
		out[i] = v.Kind()
	}
	return out
}

func ids(t *testing.T, rows []value.Row) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		v, ok := r.Get("id")
		require.True(t, ok)
		out[i] = int64(v.(value.Integer))
	}
	return out
}

func mustSearch(t *testing.T, model *config.Model, entity, search string) string {
	t.Helper()
	e, ok := model.Entity(entity)
	require.True(t, ok, entity)
	s, ok := e.Search(search)
	require.True(t, ok, search)
	return s.Query()
}
