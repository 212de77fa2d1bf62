package nav

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dbdrill/internal/mnemonic"
	"github.com/oakwood-commons/dbdrill/internal/resolve"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

func TestInitialView(t *testing.T) {
	m := New(loadSample(t))
	ep, ok := m.Top().(*EntityPicker)
	require.True(t, ok)
	assert.Equal(t, []string{"Blog", "Post", "User"}, ep.Labels())
	assert.Equal(t, []mnemonic.Mnemonic{{Key: 'b', Pos: 0}, {Key: 'p', Pos: 0}, {Key: 'u', Pos: 0}}, ep.Mnemonics())
	assert.False(t, m.Busy())
	assert.False(t, m.Quitting())
}

func TestDrillDownUserBlogs(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)

	press(t, m, db, Rune('u'))
	sp, ok := m.Top().(*SearchPicker)
	require.True(t, ok)
	assert.Equal(t, []string{"all", "id", "ids", "name"}, sp.Labels())

	press(t, m, db, Rune('i'))
	pe, ok := m.Top().(*ParamEntry)
	require.True(t, ok)
	assert.Equal(t, "id", pe.Search.Name())

	press(t, m, db, Rune('3'), Press(KeyEnter))
	assert.Equal(t, []Kind{KindEntityPicker, KindSearchPicker, KindResultList}, kinds(m))
	users := m.Top().(*ResultList)
	assert.Equal(t, "User / id (id=3)", users.Title())
	assert.Equal(t, []int64{3}, ids(t, users.Rows))
	assert.Equal(t, []value.Value{value.Integer(3)}, db.last().args)

	press(t, m, db, Rune('l'))
	lp, ok := m.Top().(*LinkPicker)
	require.True(t, ok)
	assert.Equal(t, []string{"blogs", "posts"}, lp.Labels())

	press(t, m, db, Rune('b'))
	assert.Equal(t, []Kind{KindEntityPicker, KindSearchPicker, KindResultList, KindResultList}, kinds(m))
	blogs := m.Top().(*ResultList)
	assert.Equal(t, "blog", blogs.Entity.ID())
	assert.Equal(t, "User (id=3) → blogs", blogs.Title())
	assert.Equal(t, []int64{1, 2}, ids(t, blogs.Rows))

	for range 3 {
		press(t, m, db, Press(KeyEscape))
	}
	assert.Equal(t, []Kind{KindEntityPicker}, kinds(m))

	press(t, m, db, Press(KeyEscape))
	assert.Equal(t, []Kind{KindEntityPicker}, kinds(m))
	assert.Equal(t, 1, m.Depth())
}

func TestBlogPostsFollowJSONPath(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)

	press(t, m, db, Rune('b'), Rune('i'), Rune('1'), Press(KeyEnter), Rune('l'))
	lp := m.Top().(*LinkPicker)
	assert.Equal(t, []string{"editor", "posts", "public_posts"}, lp.Labels())
	assert.Equal(t, []mnemonic.Mnemonic{{Key: 'e', Pos: 0}, {Key: 'p', Pos: 0}, {Key: 'u', Pos: 1}}, lp.Mnemonics())

	press(t, m, db, Rune('p'))
	posts := m.Top().(*ResultList)
	assert.Equal(t, []int64{1, 2}, ids(t, posts.Rows))
	assert.Equal(t, []value.Value{value.IntegerArray{1, 2}}, db.last().args)
	assert.Equal(t, "Blog (posts[*].postId=[1, 2]) → posts", posts.Title())
}

func TestLinkConditionsFilterPicker(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)

	tests := []struct {
		blog string
		want []string
	}{
		{"1", []string{"editor", "posts", "public_posts"}},
		{"2", []string{"editor", "posts"}},
		{"3", []string{"editor", "public_posts"}},
	}
	for _, tt := range tests {
		t.Run("blog "+tt.blog, func(t *testing.T) {
			m := New(model)
			press(t, m, db, Rune('b'), Rune('i'))
			press(t, m, db, Keys(tt.blog)...)
			press(t, m, db, Press(KeyEnter), Rune('l'))
			lp, ok := m.Top().(*LinkPicker)
			require.True(t, ok)
			assert.Equal(t, tt.want, lp.Labels())
		})
	}
}

func TestSearchWithoutParamsPushesResult(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)

	press(t, m, db, Rune('u'), Rune('a'))
	assert.Equal(t, []Kind{KindEntityPicker, KindSearchPicker, KindResultList}, kinds(m))
	rl := m.Top().(*ResultList)
	assert.Equal(t, "User / all", rl.Title())
	assert.Len(t, rl.Rows, 4)
	assert.Empty(t, db.last().args)
}

func TestExecutionErrorKeepsView(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)
	press(t, m, db, Rune('u'), Rune('i'), Rune('3'))

	boom := errors.New("connection refused")
	db.err = boom
	err := m.Dispatch(context.Background(), db, Press(KeyEnter))
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, KindParamEntry, m.Top().Kind())
	assert.False(t, m.Busy())
	assert.Equal(t, StatusError, m.Status().Kind)
	assert.Contains(t, m.Status().Text, "connection refused")

	db.err = nil
	press(t, m, db, Press(KeyEnter))
	assert.Equal(t, KindResultList, m.Top().Kind())
	assert.Equal(t, StatusNone, m.Status().Kind)
}

func TestBindErrorKeepsLinkPicker(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	db.handlers[mustSearch(t, model, "user", "all")] = func([]value.Value) []value.Row {
		return []value.Row{value.MustRow(value.Col("name", value.Text("Ada")))}
	}
	nm := New(model)
	press(t, nm, db, Rune('u'), Rune('a'), Rune('l'), Rune('b'))

	assert.Equal(t, KindLinkPicker, nm.Top().Kind())
	assert.False(t, nm.Busy())
	assert.Equal(t, StatusError, nm.Status().Kind)
	assert.Contains(t, nm.Status().Text, resolve.MissingColumn.String())
}

func TestParamValidation(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)
	press(t, m, db, Rune('u'), Rune('i'), Rune('x'), Press(KeyEnter))

	pe := m.Top().(*ParamEntry)
	assert.NotEmpty(t, pe.Errors[0])
	assert.Equal(t, StatusError, m.Status().Kind)
	assert.Empty(t, db.calls)

	press(t, m, db, Press(KeyBackspace))
	assert.Empty(t, pe.Inputs[0])
	assert.Empty(t, pe.Errors[0])

	press(t, m, db, Rune('q'), Press(KeyBackspace), Rune('4'), Press(KeyEnter))
	assert.False(t, m.Quitting(), "q is text inside ParamEntry")
	assert.Equal(t, []int64{4}, ids(t, m.Top().(*ResultList).Rows))
}

func TestParamEntryEscapeDiscardsInput(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)
	press(t, m, db, Rune('u'), Rune('i'), Rune('7'), Press(KeyEscape))
	assert.Equal(t, KindSearchPicker, m.Top().Kind())

	press(t, m, db, Rune('i'))
	assert.Equal(t, []string{""}, m.Top().(*ParamEntry).Inputs)
}

func TestBusyDiscardsKeys(t *testing.T) {
	model := loadSample(t)
	m := New(model)
	m.HandleKey(Rune('u'))
	req := m.HandleKey(Rune('a'))
	require.NotNil(t, req)
	assert.True(t, m.Busy())
	assert.Same(t, req, m.Pending())

	assert.Nil(t, m.HandleKey(Press(KeyEscape)))
	assert.Nil(t, m.HandleKey(Rune('a')))
	assert.Equal(t, KindSearchPicker, m.Top().Kind())

	assert.False(t, m.Complete(req.ID+1, nil, nil), "stale completion")
	assert.True(t, m.Busy())

	assert.True(t, m.Complete(req.ID, sampleUsers(), nil))
	assert.False(t, m.Busy())
	assert.Equal(t, KindResultList, m.Top().Kind())
	assert.False(t, m.Complete(req.ID, nil, nil), "duplicate completion")
	assert.Equal(t, 3, m.Depth())
}

func TestQuitKeys(t *testing.T) {
	model := loadSample(t)

	m := New(model)
	m.HandleKey(Rune('q'))
	assert.True(t, m.Quitting())
	assert.Nil(t, m.HandleKey(Rune('u')))
	assert.Equal(t, 1, m.Depth())

	m = New(model)
	m.HandleKey(Rune('u'))
	m.HandleKey(Rune('i'))
	m.HandleKey(Press(KeyInterrupt))
	assert.True(t, m.Quitting())

	m = New(model)
	m.HandleKey(Rune('u'))
	require.NotNil(t, m.HandleKey(Rune('a')))
	m.HandleKey(Press(KeyInterrupt))
	assert.True(t, m.Quitting(), "interrupt works while busy")
}

func TestMovementIsClamped(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)

	ep := m.Top().(*EntityPicker)
	press(t, m, db, Press(KeyUp))
	assert.Equal(t, 0, ep.Selected())
	press(t, m, db, Press(KeyDown), Press(KeyDown), Press(KeyDown), Press(KeyDown))
	assert.Equal(t, 2, ep.Selected())
	press(t, m, db, Press(KeyHome))
	assert.Equal(t, 0, ep.Selected())
	press(t, m, db, Press(KeyEnd), Press(KeyEnter))
	assert.Equal(t, "User", m.Top().(*SearchPicker).Entity.Name())

	press(t, m, db, Rune('a'))
	rl := m.Top().(*ResultList)
	press(t, m, db, Rune('G'))
	assert.Equal(t, 3, rl.Selected())
	press(t, m, db, Rune('j'))
	assert.Equal(t, 3, rl.Selected())
	press(t, m, db, Rune('k'), Rune('k'))
	assert.Equal(t, 1, rl.Selected())
	press(t, m, db, Press(KeyPageUp))
	assert.Equal(t, 0, rl.Selected())
	m.SetPageSize(2)
	press(t, m, db, Press(KeyPageDown))
	assert.Equal(t, 2, rl.Selected())
	press(t, m, db, Rune('g'))
	assert.Equal(t, 0, rl.Selected())
}

func TestDetailPopup(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	var copied []string
	m := New(model, WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	}))

	press(t, m, db, Rune('u'), Rune('a'), Rune('j'), Rune('d'))
	dp, ok := m.Top().(*DetailPopup)
	require.True(t, ok)
	assert.Equal(t, "User / row 2", dp.Title())

	press(t, m, db, Rune('j'), Rune('y'))
	assert.Equal(t, []string{"Grace"}, copied)
	assert.Equal(t, StatusInfo, m.Status().Kind)

	press(t, m, db, Press(KeyEscape), Press(KeyEnter))
	assert.Equal(t, KindDetailPopup, m.Top().Kind())
}

func TestDetailPopupCopyFailures(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)

	m := New(model)
	press(t, m, db, Rune('u'), Rune('a'), Rune('d'), Rune('y'))
	assert.Equal(t, StatusError, m.Status().Kind)

	m = New(model, WithClipboard(func(string) error { return errors.New("no display") }))
	press(t, m, db, Rune('u'), Rune('a'), Rune('d'), Rune('y'))
	assert.Equal(t, StatusError, m.Status().Kind)
	assert.Contains(t, m.Status().Text, "no display")
}

func TestRefreshReplacesRows(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)
	press(t, m, db, Rune('u'), Rune('a'), Rune('G'))
	rl := m.Top().(*ResultList)
	require.Equal(t, 3, rl.Selected())

	db.handlers[mustSearch(t, model, "user", "all")] = func([]value.Value) []value.Row {
		return sampleUsers()[:2]
	}
	press(t, m, db, Rune('r'))
	assert.Same(t, rl, m.Top())
	assert.Equal(t, 3, m.Depth())
	assert.Len(t, rl.Rows, 2)
	assert.Equal(t, 1, rl.Selected())
	assert.Equal(t, StatusInfo, m.Status().Kind)
	assert.Equal(t, "refreshed, 2 rows", m.Status().Text)
}

func TestEmptyResult(t *testing.T) {
	model := loadSample(t)
	db := newFakeDB(t, model)
	m := New(model)
	press(t, m, db, Rune('u'), Rune('i'), Rune('9'), Press(KeyEnter))

	rl := m.Top().(*ResultList)
	assert.Empty(t, rl.Rows)
	assert.Equal(t, "no rows", m.Status().Text)

	press(t, m, db, Rune('l'))
	assert.Equal(t, KindResultList, m.Top().Kind())
	press(t, m, db, Rune('d'))
	assert.Equal(t, KindResultList, m.Top().Kind())
}

func TestWordStartPolicy(t *testing.T) {
	m := New(loadSample(t), WithPolicy(mnemonic.WordStart))
	ep := m.Top().(*EntityPicker)
	assert.Equal(t, 'b', ep.Mnemonics()[0].Key)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "x", Rune('x').String())
	assert.Equal(t, "esc", Press(KeyEscape).String())
	assert.Equal(t, "shift+tab", Press(KeyShiftTab).String())
	assert.Len(t, Keys("abc"), 3)
}
