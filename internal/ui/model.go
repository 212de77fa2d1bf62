// Package ui renders the navigation machine as a full-screen terminal program.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/dbdrill/internal/mnemonic"
	"github.com/oakwood-commons/dbdrill/internal/nav"
	"github.com/oakwood-commons/dbdrill/internal/ui/table"
	"github.com/oakwood-commons/dbdrill/internal/value"
	"github.com/oakwood-commons/dbdrill/pkg/logger"
)

// chromeLines is the height taken by the title, rule, status and footer lines.
const chromeLines = 5

// queryDoneMsg carries the outcome of a request back to the update loop.
type queryDoneMsg struct {
	id      uint64
	rows    []value.Row
	err     error
	elapsed time.Duration
}

// resultRow is one rendered ResultList line.
type resultRow struct {
	n     int
	cells []string
}

// Model adapts a nav.Machine to the bubbletea program loop. Queries run in
// tea.Cmd goroutines; their results re-enter through Update.
type Model struct {
	ctx     context.Context
	machine *nav.Machine
	exec    nav.Executor
	theme   Theme
	styles  styles
	noColor bool
	spinner spinner.Model
	width   int
	height  int
	started time.Time
	elapsed time.Duration
}

// NewModel returns a Model driving machine with queries sent to exec.
func NewModel(ctx context.Context, machine *nav.Machine, exec nav.Executor, theme Theme, noColor bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	st := newStyles(theme, noColor)
	s.Style = st.spinner
	return Model{
		ctx:     ctx,
		machine: machine,
		exec:    exec,
		theme:   theme,
		styles:  st,
		noColor: noColor,
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Machine returns the navigation machine.
func (m Model) Machine() *nav.Machine { return m.machine }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.machine.SetPageSize(m.bodyHeight() - 2)
		return m, nil

	case tea.KeyPressMsg:
		var cmds []tea.Cmd
		for _, k := range translateKey(msg) {
			if req := m.machine.HandleKey(k); req != nil {
				m.started = time.Now()
				cmds = append(cmds, m.execute(req), m.spinner.Tick)
			}
		}
		if m.machine.Quitting() {
			return m, tea.Quit
		}
		return m, tea.Batch(cmds...)

	case queryDoneMsg:
		if m.machine.Complete(msg.id, msg.rows, msg.err) {
			m.elapsed = msg.elapsed
		}
		return m, nil

	case spinner.TickMsg:
		if !m.machine.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// execute runs req off the update loop.
func (m Model) execute(req *nav.Request) tea.Cmd {
	ctx, exec, started := m.ctx, m.exec, m.started
	return func() tea.Msg {
		rows, err := exec.Execute(ctx, req.Query, req.Args)
		elapsed := time.Since(started)
		logger.FromContext(ctx).V(1).Info("request finished",
			logger.EntityKey, req.Entity.ID(),
			logger.SearchKey, req.Search.Name(),
			logger.DurationKey, elapsed.String())
		return queryDoneMsg{id: req.ID, rows: rows, err: err, elapsed: elapsed}
	}
}

// View implements tea.Model.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	top := m.machine.Top()
	var b strings.Builder
	b.WriteString(m.styles.title.Render(top.Title()))
	b.WriteString("\n")
	b.WriteString(m.styles.crumbs.Render(m.breadcrumbs()))
	b.WriteString("\n")
	b.WriteString(m.styles.separator.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")
	b.WriteString(m.body(top))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(hints(top)))
	return b.String()
}

func (m Model) bodyHeight() int {
	return max(m.height-chromeLines, 3)
}

func (m Model) breadcrumbs() string {
	stack := m.machine.Stack()
	parts := make([]string, len(stack))
	for i, v := range stack {
		parts[i] = v.Title()
	}
	return strings.Join(parts, " › ")
}

func (m Model) body(top nav.View) string {
	switch v := top.(type) {
	case *nav.ParamEntry:
		return m.renderParams(v)
	case *nav.ResultList:
		return m.renderResults(v)
	case *nav.DetailPopup:
		return m.renderDetail(v)
	case nav.Picker:
		return m.renderPicker(v)
	default:
		return ""
	}
}

func (m Model) renderPicker(p nav.Picker) string {
	labels := p.Labels()
	if len(labels) == 0 {
		return m.styles.muted.Render("(nothing to choose)")
	}
	ms := p.Mnemonics()
	first, last := window(p.Selected(), len(labels), m.bodyHeight())
	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		var mn mnemonic.Mnemonic
		if i < len(ms) {
			mn = ms[i]
		} else {
			mn = mnemonic.Mnemonic{Pos: -1}
		}
		line := m.highlight(labels[i], mn)
		if i == p.Selected() {
			line = m.styles.selected.Render("› ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// highlight styles the mnemonic character of label. Labels without one render plainly.
func (m Model) highlight(label string, mn mnemonic.Mnemonic) string {
	runes := []rune(label)
	if !mn.OK() || mn.Pos >= len(runes) {
		return label
	}
	return string(runes[:mn.Pos]) + m.styles.mnemonic.Render(string(runes[mn.Pos])) + string(runes[mn.Pos+1:])
}

func (m Model) renderParams(v *nav.ParamEntry) string {
	lines := make([]string, 0, len(v.Params)*2)
	for i, p := range v.Params {
		marker := "  "
		if i == v.Focus {
			marker = m.styles.selected.Render("› ")
		}
		input := v.Inputs[i]
		if i == v.Focus {
			input += "█"
		}
		lines = append(lines, fmt.Sprintf("%s%s %s: %s",
			marker, m.styles.label.Render(p.Name), m.styles.muted.Render("("+p.Type.String()+")"), input))
		if v.Errors[i] != "" {
			lines = append(lines, "    "+m.styles.err.Render(v.Errors[i]))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderResults(v *nav.ResultList) string {
	if len(v.Rows) == 0 {
		return m.styles.muted.Render("(no rows)")
	}
	headers := v.Rows[0].Names()
	rows := make([]resultRow, len(v.Rows))
	cells := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		cells[i] = rowCells(r)
		rows[i] = resultRow{n: i, cells: cells[i]}
	}
	cols := table.FitColumns(headers, cells, table.MaxColumnWidth)
	t := table.NewModel(cols, func(r resultRow) table.Row {
		return table.IndexedRow(r.n, r.cells, cols)
	})
	t.SetNoColor(m.noColor)
	if !m.noColor {
		t.SetColors(m.theme.HeaderFG, nil, m.theme.SelectedFG, m.theme.SelectedBG)
	}
	t.SetSize(m.width, m.bodyHeight())
	t.SetRows(rows)
	t.SetCursor(v.Selected())
	return t.View()
}

func rowCells(r value.Row) []string {
	out := make([]string, r.Len())
	for i := range out {
		out[i] = oneLine(r.At(i).Value.String())
	}
	return out
}

func (m Model) renderDetail(v *nav.DetailPopup) string {
	n := v.Row.Len()
	if n == 0 {
		return m.styles.muted.Render("(no columns)")
	}
	width := 0
	for _, name := range v.Row.Names() {
		width = max(width, lipgloss.Width(name))
	}
	first, last := window(v.Selected(), n, m.bodyHeight())
	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		col := v.Row.At(i)
		name := m.styles.label.Render(fmt.Sprintf("%-*s", width, col.Name))
		val := table.Clip(oneLine(col.Value.String()), max(m.width-width-5, 8))
		if _, isNull := col.Value.(value.Null); isNull {
			val = m.styles.muted.Render(val)
		}
		line := name + "  " + val
		if i == v.Selected() {
			line = m.styles.selected.Render("› ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	if m.machine.Busy() {
		return m.spinner.View() + " " + m.styles.muted.Render("running "+m.machine.Pending().Title+"…")
	}
	st := m.machine.Status()
	switch st.Kind {
	case nav.StatusError:
		return m.styles.err.Render(oneLine(st.Text))
	case nav.StatusInfo:
		return m.styles.info.Render(st.Text)
	}
	if rl, ok := m.machine.Top().(*nav.ResultList); ok {
		return m.styles.muted.Render(fmt.Sprintf("row %d of %d · %s", min(rl.Selected()+1, len(rl.Rows)), len(rl.Rows), m.elapsed.Round(time.Millisecond)))
	}
	return ""
}

func hints(top nav.View) string {
	switch top.(type) {
	case *nav.EntityPicker:
		return "letter/enter: open · ↑↓: move · q: quit"
	case *nav.SearchPicker:
		return "letter/enter: run · ↑↓: move · esc: back · q: quit"
	case *nav.ParamEntry:
		return "type value · tab: next field · enter: run · esc: cancel"
	case *nav.ResultList:
		return "l: links · d/enter: details · r: refresh · esc: back · q: quit"
	case *nav.LinkPicker:
		return "letter/enter: follow · ↑↓: move · esc: back · q: quit"
	case *nav.DetailPopup:
		return "y: copy value · ↑↓: move · esc: close · q: quit"
	default:
		return ""
	}
}

// window returns the [first, last) slice of n items of height lines that keeps sel visible.
func window(sel, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	first := max(sel-height+1, 0)
	return first, min(first+height, n)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
