// Package nav implements the drill-down navigation state machine: a stack of
// views driven by discrete key presses.
package nav

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/internal/mnemonic"
	"github.com/oakwood-commons/dbdrill/internal/resolve"
	"github.com/oakwood-commons/dbdrill/internal/value"
	"github.com/oakwood-commons/dbdrill/pkg/logger"
)

// QuitKey quits from every view except ParamEntry and is never assigned as a mnemonic.
const QuitKey = 'q'

// DefaultPageSize is the PageUp/PageDown step until the terminal reports its size.
const DefaultPageSize = 10

// Executor runs one query with positional arguments.
type Executor interface {
	Execute(ctx context.Context, query string, args []value.Value) ([]value.Row, error)
}

// StatusKind classifies the status line.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusInfo
	StatusError
)

// Status is the message shown under the current view.
type Status struct {
	Kind StatusKind
	Text string
}

// Machine owns the view stack. It is not safe for concurrent use; every
// method must be called from the single input-handling loop.
type Machine struct {
	model     *config.Model
	engine    *resolve.Engine
	policy    mnemonic.Policy
	log       logr.Logger
	clipboard func(string) error
	pageSize  int

	stack    []View
	pending  *Request
	seq      uint64
	status   Status
	quitting bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithPolicy selects the mnemonic assignment policy.
func WithPolicy(p mnemonic.Policy) Option {
	return func(m *Machine) { m.policy = p }
}

// WithLogger sets the logger for transitions and failures.
func WithLogger(l logr.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithClipboard sets the function used by the DetailPopup copy key.
func WithClipboard(write func(string) error) Option {
	return func(m *Machine) { m.clipboard = write }
}

// New returns a Machine showing the EntityPicker.
func New(model *config.Model, opts ...Option) *Machine {
	m := &Machine{
		model:    model,
		log:      *logger.GetNoopLogger(),
		pageSize: DefaultPageSize,
	}
	for _, o := range opts {
		o(m)
	}
	m.engine = resolve.New(model, resolve.WithLogger(m.log))
	m.stack = []View{m.entityPicker()}
	return m
}

// Top returns the interactive view.
func (m *Machine) Top() View { return m.stack[len(m.stack)-1] }

// Stack returns a copy of the view stack, root first.
func (m *Machine) Stack() []View {
	out := make([]View, len(m.stack))
	copy(out, m.stack)
	return out
}

// Depth is the number of views on the stack.
func (m *Machine) Depth() int { return len(m.stack) }

// Busy reports whether a query is in flight.
func (m *Machine) Busy() bool { return m.pending != nil }

// Pending returns the in-flight request, nil when idle.
func (m *Machine) Pending() *Request { return m.pending }

// Quitting reports whether the session has ended.
func (m *Machine) Quitting() bool { return m.quitting }

// Status returns the current status message.
func (m *Machine) Status() Status { return m.status }

// SetPageSize sets the PageUp/PageDown step, typically the visible list height.
func (m *Machine) SetPageSize(n int) {
	if n > 0 {
		m.pageSize = n
	}
}

// HandleKey applies one key press to the top view. When the transition needs
// rows it returns a Request and the machine stays busy until Complete is called
// with that request's ID. Keys received while busy are discarded, except the
// interrupt key.
func (m *Machine) HandleKey(k Key) *Request {
	if m.quitting {
		return nil
	}
	if k.Code == KeyInterrupt {
		m.quit()
		return nil
	}
	if m.pending != nil {
		m.log.V(2).Info("discarding key while busy", "key", k.String())
		return nil
	}
	m.status = Status{}

	if k.Code == KeyEscape {
		m.pop()
		return nil
	}

	switch v := m.Top().(type) {
	case *EntityPicker:
		return m.handleEntityPicker(v, k)
	case *SearchPicker:
		return m.handleSearchPicker(v, k)
	case *ParamEntry:
		return m.handleParamEntry(v, k)
	case *ResultList:
		return m.handleResultList(v, k)
	case *LinkPicker:
		return m.handleLinkPicker(v, k)
	case *DetailPopup:
		m.handleDetailPopup(v, k)
		return nil
	default:
		panic(fmt.Sprintf("nav: unexpected view %T", v))
	}
}

// Complete folds the outcome of a request back into the stack. It returns false
// for a completion that does not match the in-flight request.
func (m *Machine) Complete(id uint64, rows []value.Row, err error) bool {
	req := m.pending
	if req == nil || req.ID != id {
		m.log.V(1).Info("ignoring stale completion", "request", id)
		return false
	}
	m.pending = nil

	lgr := m.log.WithValues(logger.EntityKey, req.Entity.ID(), logger.SearchKey, req.Search.Name())
	if err != nil {
		lgr.Info("query failed", "error", err.Error())
		m.fail(err)
		return true
	}
	lgr.V(1).Info("query completed", logger.RowsKey, len(rows))

	if req.action == actionRefresh {
		if rl, ok := m.Top().(*ResultList); ok && rl == req.refresh {
			rl.Rows = rows
			rl.set(rl.pos, len(rows))
		}
		m.status = Status{Kind: StatusInfo, Text: fmt.Sprintf("refreshed, %s", rowCount(len(rows)))}
		return true
	}

	list := &ResultList{
		Entity: req.Entity,
		Search: req.Search,
		Args:   req.Args,
		Rows:   rows,
		title:  req.Title,
	}
	switch req.action {
	case actionReplace, actionPopPush:
		m.stack = m.stack[:len(m.stack)-1]
	}
	m.push(list)
	if len(rows) == 0 {
		m.status = Status{Kind: StatusInfo, Text: "no rows"}
	}
	return true
}

// Dispatch handles k and, when it yields a request, executes it synchronously
// and completes it. The request error, if any, is returned after being folded
// into the status line.
func (m *Machine) Dispatch(ctx context.Context, exec Executor, k Key) error {
	req := m.HandleKey(k)
	if req == nil {
		return nil
	}
	rows, err := exec.Execute(ctx, req.Query, req.Args)
	m.Complete(req.ID, rows, err)
	return err
}

func (m *Machine) quit() {
	m.log.V(1).Info("quitting", "depth", len(m.stack))
	m.quitting = true
}

func (m *Machine) push(v View) {
	m.stack = append(m.stack, v)
	m.log.V(1).Info("push view", "view", v.Kind().String(), "title", v.Title(), "depth", len(m.stack))
}

func (m *Machine) pop() {
	if len(m.stack) == 1 {
		return
	}
	top := m.Top()
	m.stack = m.stack[:len(m.stack)-1]
	m.log.V(1).Info("pop view", "view", top.Kind().String(), "depth", len(m.stack))
}

func (m *Machine) fail(err error) {
	m.status = Status{Kind: StatusError, Text: err.Error()}
}

func (m *Machine) info(format string, args ...any) {
	m.status = Status{Kind: StatusInfo, Text: fmt.Sprintf(format, args...)}
}

func (m *Machine) request(r *Request) *Request {
	m.seq++
	r.ID = m.seq
	m.pending = r
	m.log.V(1).Info("executing search",
		logger.EntityKey, r.Entity.ID(),
		logger.SearchKey, r.Search.Name(),
		"args", len(r.Args))
	return r
}

func (m *Machine) assign(labels []string) []mnemonic.Mnemonic {
	return mnemonic.Assign(labels, mnemonic.WithPolicy(m.policy), mnemonic.WithReserved(QuitKey))
}

func (m *Machine) entityPicker() *EntityPicker {
	v := &EntityPicker{Entities: m.model.Entities()}
	v.mnemonics = m.assign(v.Labels())
	return v
}

// moveKey applies list movement keys. vim adds j/k/g/G.
func (m *Machine) moveKey(c *cursor, n int, k Key, vim bool) bool {
	switch {
	case k.Code == KeyUp, vim && k.is('k'):
		c.move(-1, n)
	case k.Code == KeyDown, vim && k.is('j'):
		c.move(1, n)
	case k.Code == KeyHome, vim && k.is('g'):
		c.set(0, n)
	case k.Code == KeyEnd, vim && k.is('G'):
		c.set(n-1, n)
	case k.Code == KeyPageUp:
		c.move(-m.pageSize, n)
	case k.Code == KeyPageDown:
		c.move(m.pageSize, n)
	default:
		return false
	}
	return true
}

// pick resolves a picker key to an index: Enter selects the highlight, a rune its mnemonic.
func pick(p Picker, k Key) (int, bool) {
	n := len(p.Labels())
	switch k.Code {
	case KeyEnter:
		if n == 0 {
			return -1, false
		}
		return p.Selected(), true
	case KeyRune:
		if i := mnemonic.Lookup(p.Mnemonics(), k.Rune); i >= 0 {
			return i, true
		}
	}
	return -1, false
}

func (m *Machine) handleEntityPicker(v *EntityPicker, k Key) *Request {
	if k.is(QuitKey) {
		m.quit()
		return nil
	}
	if m.moveKey(&v.cursor, len(v.Entities), k, false) {
		return nil
	}
	i, ok := pick(v, k)
	if !ok {
		return nil
	}
	v.set(i, len(v.Entities))
	e := v.Entities[i]
	sp := &SearchPicker{Entity: e, Searches: e.Searches()}
	sp.mnemonics = m.assign(sp.Labels())
	m.push(sp)
	if len(sp.Searches) == 0 {
		m.info("%s has no searches", e.Name())
	}
	return nil
}

func (m *Machine) handleSearchPicker(v *SearchPicker, k Key) *Request {
	if k.is(QuitKey) {
		m.quit()
		return nil
	}
	if m.moveKey(&v.cursor, len(v.Searches), k, false) {
		return nil
	}
	i, ok := pick(v, k)
	if !ok {
		return nil
	}
	v.set(i, len(v.Searches))
	s := v.Searches[i]
	params := s.Params()
	if len(params) == 0 {
		return m.request(&Request{
			Entity: v.Entity,
			Search: s,
			Query:  s.Query(),
			Title:  SearchTitle(v.Entity, s, nil),
			action: actionPush,
		})
	}
	m.push(&ParamEntry{
		Entity: v.Entity,
		Search: s,
		Params: params,
		Inputs: make([]string, len(params)),
		Errors: make([]string, len(params)),
	})
	return nil
}

func (m *Machine) handleParamEntry(v *ParamEntry, k Key) *Request {
	last := len(v.Params) - 1
	switch k.Code {
	case KeyRune:
		v.Inputs[v.Focus] += string(k.Rune)
		v.Errors[v.Focus] = ""
	case KeyBackspace:
		if in := []rune(v.Inputs[v.Focus]); len(in) > 0 {
			v.Inputs[v.Focus] = string(in[:len(in)-1])
		}
		v.Errors[v.Focus] = ""
	case KeyTab, KeyDown:
		if v.Focus < last {
			v.Focus++
		}
	case KeyShiftTab, KeyUp:
		if v.Focus > 0 {
			v.Focus--
		}
	case KeyEnter:
		p := v.Params[v.Focus]
		if _, err := value.ParseInput(v.Inputs[v.Focus], p.Type); err != nil {
			v.Errors[v.Focus] = err.Error()
			m.fail(fmt.Errorf("%s: %w", p.Name, err))
			return nil
		}
		v.Errors[v.Focus] = ""
		if v.Focus < last {
			v.Focus++
			return nil
		}
		args, bad, err := v.Values()
		if err != nil {
			v.Focus = bad
			v.Errors[bad] = err.Error()
			m.fail(fmt.Errorf("%s: %w", v.Params[bad].Name, err))
			return nil
		}
		return m.request(&Request{
			Entity: v.Entity,
			Search: v.Search,
			Query:  v.Search.Query(),
			Args:   args,
			Title:  SearchTitle(v.Entity, v.Search, args),
			action: actionReplace,
		})
	}
	return nil
}

func (m *Machine) handleResultList(v *ResultList, k Key) *Request {
	if k.is(QuitKey) {
		m.quit()
		return nil
	}
	if m.moveKey(&v.cursor, len(v.Rows), k, true) {
		return nil
	}
	switch {
	case k.Code == KeyEnter, k.is('d'):
		row, ok := v.Current()
		if !ok {
			m.info("no rows")
			return nil
		}
		m.push(&DetailPopup{Entity: v.Entity, Row: row, Index: v.pos})
	case k.is('l'):
		row, ok := v.Current()
		if !ok {
			m.info("no rows")
			return nil
		}
		links := m.engine.VisibleLinks(v.Entity, row)
		if len(links) == 0 {
			m.info("no links for this row")
			return nil
		}
		lp := &LinkPicker{Entity: v.Entity, Row: row, Links: links}
		lp.mnemonics = m.assign(lp.Labels())
		m.push(lp)
	case k.is('r'):
		return m.request(&Request{
			Entity:  v.Entity,
			Search:  v.Search,
			Query:   v.Search.Query(),
			Args:    v.Args,
			Title:   v.title,
			action:  actionRefresh,
			refresh: v,
		})
	}
	return nil
}

func (m *Machine) handleLinkPicker(v *LinkPicker, k Key) *Request {
	if k.is(QuitKey) {
		m.quit()
		return nil
	}
	if m.moveKey(&v.cursor, len(v.Links), k, false) {
		return nil
	}
	i, ok := pick(v, k)
	if !ok {
		return nil
	}
	v.set(i, len(v.Links))
	link := v.Links[i]
	res, err := m.engine.Resolve(link, v.Row)
	if err != nil {
		m.log.Info("link resolution failed", logger.LinkKey, link.Name(), "error", err.Error())
		m.fail(err)
		return nil
	}
	return m.request(&Request{
		Entity: res.Entity,
		Search: res.Search,
		Query:  res.Search.Query(),
		Args:   res.Args,
		Title:  resolve.Title(v.Entity.Name(), res),
		Link:   link,
		action: actionPopPush,
	})
}

func (m *Machine) handleDetailPopup(v *DetailPopup, k Key) {
	if k.is(QuitKey) {
		m.quit()
		return
	}
	if m.moveKey(&v.cursor, v.Row.Len(), k, true) {
		return
	}
	if !k.is('y') {
		return
	}
	col, ok := v.Current()
	if !ok {
		return
	}
	if m.clipboard == nil {
		m.fail(errors.New("clipboard unavailable"))
		return
	}
	if err := m.clipboard(col.Value.String()); err != nil {
		m.fail(fmt.Errorf("copy %s: %w", col.Name, err))
		return
	}
	m.info("copied %s", col.Name)
}

// SearchTitle renders "Entity / search (p1=v1, p2=v2)".
func SearchTitle(e *config.Entity, s *config.Search, args []value.Value) string {
	title := e.Name() + " / " + s.Name()
	if len(args) == 0 {
		return title
	}
	params := s.Params()
	pairs := make([]string, len(args))
	for i, a := range args {
		pairs[i] = params[i].Name + "=" + a.String()
	}
	return title + " (" + strings.Join(pairs, ", ") + ")"
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
