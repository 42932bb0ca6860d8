package list

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/vlist/internal/virtual"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/zeebo/xxh3"
)

// Item is a single entry of the list.
type Item interface {
	ID() string
	// Render returns the item's view at width. The number of lines in the
	// view is reported to the engine as the item's extent.
	Render(width int) string
}

const (
	ItemNotFound              = -1
	ViewportDefaultScrollSize = 2

	// maxMeasurePasses bounds how often a render re-measures after the
	// measurements themselves moved the rendered range.
	maxMeasurePasses = 4
)

// EndReachedMsg asks the host for more items.
type EndReachedMsg struct {
	ItemCount int
}

// RangeChangedMsg reports a new rendered range.
type RangeChangedMsg struct {
	Visible  virtual.Range
	Rendered virtual.Range
}

// ScrollStateMsg reports the start and the end of a scroll burst.
type ScrollStateMsg struct {
	Scrolling bool
}

// CopiedMsg reports the result of copying the selected item.
type CopiedMsg struct {
	Text string
	Err  error
}

type Styles struct {
	Item     lipgloss.Style
	Selected lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Item: lipgloss.NewStyle().PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			PaddingLeft(1).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(charmtone.Charple).
			Foreground(charmtone.Salt),
	}
}

type confOptions struct {
	width, height int
	gap           int
	columns       int
	// if you are at the last item and go down it will wrap to the top
	wrap        bool
	keyMap      KeyMap
	styles      Styles
	focused     bool
	enableMouse bool
	engineOpts  []virtual.Option
}

// List is a bubbletea model that materializes only the items in the
// engine's rendered range. Rendered items are measured and reported back,
// so item heights may vary and change.
type List[T Item] struct {
	*confOptions

	engine *virtual.Engine
	sched  *tickScheduler

	items    []T
	selected int

	viewCache   map[uint64]string
	outbox      []tea.Msg
	unsubscribe []func()
	rendered    string
}

type ListOption func(*confOptions)

// WithSize sets the size of the list.
func WithSize(width, height int) ListOption {
	return func(l *confOptions) {
		l.width = width
		l.height = height
	}
}

// WithGap sets the gap between items in the list.
func WithGap(gap int) ListOption {
	return func(l *confOptions) {
		l.gap = gap
	}
}

// WithColumns lays the items out in a grid.
func WithColumns(columns int) ListOption {
	return func(l *confOptions) {
		l.columns = columns
	}
}

func WithKeyMap(keyMap KeyMap) ListOption {
	return func(l *confOptions) {
		l.keyMap = keyMap
	}
}

func WithStyles(styles Styles) ListOption {
	return func(l *confOptions) {
		l.styles = styles
	}
}

func WithWrapNavigation() ListOption {
	return func(l *confOptions) {
		l.wrap = true
	}
}

func WithFocus(focus bool) ListOption {
	return func(l *confOptions) {
		l.focused = focus
	}
}

func WithEnableMouse() ListOption {
	return func(l *confOptions) {
		l.enableMouse = true
	}
}

// WithEngineOptions passes extra options to the virtualization engine.
func WithEngineOptions(opts ...virtual.Option) ListOption {
	return func(l *confOptions) {
		l.engineOpts = append(l.engineOpts, opts...)
	}
}

func New[T Item](items []T, opts ...ListOption) (*List[T], error) {
	conf := &confOptions{
		keyMap:  DefaultKeyMap(),
		styles:  DefaultStyles(),
		focused: true,
	}
	for _, opt := range opts {
		opt(conf)
	}

	l := &List[T]{
		confOptions: conf,
		sched:       newTickScheduler(),
		items:       items,
		selected:    ItemNotFound,
		viewCache:   make(map[uint64]string),
	}
	engineOpts := append([]virtual.Option{
		virtual.WithScheduler(l.sched),
		virtual.WithEstimatedExtent(1),
		virtual.WithGap(float64(max(conf.gap, 0))),
		virtual.WithColumns(max(conf.columns, 0)),
		virtual.WithContainerSize(float64(max(conf.height, 0))),
	}, conf.engineOpts...)

	engine, err := virtual.New(len(items), engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create list engine: %w", err)
	}
	l.engine = engine
	l.unsubscribe = []func(){
		engine.OnRangeChanged(func(c virtual.RangeChange) {
			l.outbox = append(l.outbox, RangeChangedMsg{Visible: c.Visible, Rendered: c.Rendered})
		}),
		engine.OnEndReached(func(e virtual.EndReached) {
			l.outbox = append(l.outbox, EndReachedMsg{ItemCount: e.ItemCount})
		}),
		engine.OnScrollStateChanged(func(s virtual.ScrollState) {
			l.outbox = append(l.outbox, ScrollStateMsg{Scrolling: s.Scrolling})
		}),
	}
	if len(items) > 0 {
		l.selected = 0
	}
	return l, nil
}

// Init implements tea.Model.
func (l *List[T]) Init() tea.Cmd {
	if l.width <= 0 || l.height <= 0 {
		return nil
	}
	l.resize()
	l.render()
	return l.flush()
}

// Update implements tea.Model.
func (l *List[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settleMsg:
		if l.sched.fire(msg.id) {
			return l, l.flush()
		}
		return l, nil
	case tea.MouseWheelMsg:
		if l.enableMouse {
			return l.handleMouseWheel(msg)
		}
		return l, nil
	case tea.KeyPressMsg:
		if !l.focused {
			return l, nil
		}
		switch {
		case key.Matches(msg, l.keyMap.Down):
			return l, l.SelectItemBelow()
		case key.Matches(msg, l.keyMap.Up):
			return l, l.SelectItemAbove()
		case key.Matches(msg, l.keyMap.Right):
			if l.columns > 0 {
				return l, l.selectBy(1)
			}
		case key.Matches(msg, l.keyMap.Left):
			if l.columns > 0 {
				return l, l.selectBy(-1)
			}
		case key.Matches(msg, l.keyMap.HalfPageDown):
			return l, l.MoveDown(l.height / 2)
		case key.Matches(msg, l.keyMap.HalfPageUp):
			return l, l.MoveUp(l.height / 2)
		case key.Matches(msg, l.keyMap.PageDown):
			return l, l.MoveDown(l.height)
		case key.Matches(msg, l.keyMap.PageUp):
			return l, l.MoveUp(l.height)
		case key.Matches(msg, l.keyMap.End):
			return l, l.GoToBottom()
		case key.Matches(msg, l.keyMap.Home):
			return l, l.GoToTop()
		case key.Matches(msg, l.keyMap.Copy):
			return l, l.CopySelected()
		}
	}
	return l, nil
}

func (l *List[T]) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Button {
	case tea.MouseWheelDown:
		cmd = l.MoveDown(ViewportDefaultScrollSize)
	case tea.MouseWheelUp:
		cmd = l.MoveUp(ViewportDefaultScrollSize)
	}
	return l, cmd
}

// View implements tea.Model.
func (l *List[T]) View() string {
	if l.height <= 0 || l.width <= 0 {
		return ""
	}
	return l.rendered
}

// flush turns the engine events and timers collected since the last call
// into commands.
func (l *List[T]) flush() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(l.outbox))
	for _, msg := range l.outbox {
		cmds = append(cmds, func() tea.Msg { return msg })
	}
	l.outbox = nil
	cmds = append(cmds, l.sched.drain()...)
	return tea.Batch(cmds...)
}

func (l *List[T]) resize() {
	if err := l.engine.Resize(float64(max(l.height, 0))); err != nil {
		slog.Error("Failed to resize list", "height", l.height, "error", err)
	}
}

// clampScroll pulls the viewport back inside the content after the content
// shrank or the container grew.
func (l *List[T]) clampScroll() {
	vp := l.engine.Viewport()
	clamped := vp.Clamp(l.engine.TotalExtent())
	if clamped.ScrollOffset != vp.ScrollOffset {
		_ = l.engine.Scroll(clamped.ScrollOffset)
	}
}

func (l *List[T]) cellWidth() int {
	if l.columns > 0 {
		return l.width / l.columns
	}
	return l.width
}

func (l *List[T]) innerWidth() int {
	frame := max(l.styles.Item.GetHorizontalFrameSize(), l.styles.Selected.GetHorizontalFrameSize())
	return max(l.cellWidth()-frame, 1)
}

func (l *List[T]) itemView(index int) string {
	item := l.items[index]
	width := l.innerWidth()
	k := viewKey(item.ID(), width)
	view, ok := l.viewCache[k]
	if !ok {
		view = item.Render(width)
		l.viewCache[k] = view
	}
	if index == l.selected && l.focused {
		return l.styles.Selected.Render(view)
	}
	return l.styles.Item.Render(view)
}

func viewKey(id string, width int) uint64 {
	return xxh3.HashString(fmt.Sprintf("%s\x00%d", id, width))
}

// pruneViews drops cached views of items outside the rendered range.
func (l *List[T]) pruneViews() {
	r := l.engine.RenderedRange()
	if len(l.viewCache) <= r.Len() {
		return
	}
	width := l.innerWidth()
	keep := make(map[uint64]string, r.Len())
	for i := r.Start; i < r.End && i < len(l.items); i++ {
		k := viewKey(l.items[i].ID(), width)
		if view, ok := l.viewCache[k]; ok {
			keep[k] = view
		}
	}
	l.viewCache = keep
}

// render measures the items in the rendered range until the range is
// stable, then composes the visible lines.
func (l *List[T]) render() {
	if l.width <= 0 || l.height <= 0 || len(l.items) == 0 {
		l.rendered = ""
		return
	}
	for range maxMeasurePasses {
		before := l.engine.RenderedRange()
		for i := before.Start; i < before.End; i++ {
			height := lipgloss.Height(l.itemView(i))
			if err := l.engine.ReportMeasuredExtent(i, float64(height)); err != nil {
				slog.Error("Failed to report item height", "index", i, "error", err)
			}
		}
		l.clampScroll()
		if l.engine.RenderedRange() == before {
			break
		}
	}
	l.rendered = l.compose()
	l.pruneViews()
}

func (l *List[T]) compose() string {
	total := l.engine.TotalExtent()
	vp := l.engine.Viewport().Clamp(total)
	top := int(vp.ScrollOffset)

	// Content that fits the viewport is not padded.
	lines := make([]string, min(l.height, int(total)))
	r := l.engine.RenderedRange()
	step := max(l.columns, 1)
	for start := r.Start; start < r.End; start += step {
		off, err := l.engine.OffsetFor(start)
		if err != nil {
			continue
		}
		var view string
		if l.columns > 0 {
			view = l.rowView(start, min(start+step, r.End))
		} else {
			view = l.itemView(start)
		}
		place(lines, int(off)-top, view)
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, l.width, "")
	}
	return strings.Join(lines, "\n")
}

func (l *List[T]) rowView(start, end int) string {
	cell := lipgloss.NewStyle().Width(l.cellWidth())
	cells := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		cells = append(cells, cell.Render(l.itemView(i)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func place(lines []string, y int, view string) {
	for k, line := range strings.Split(view, "\n") {
		if row := y + k; row >= 0 && row < len(lines) {
			lines[row] = line
		}
	}
}

func (l *List[T]) scrollBy(delta int) bool {
	vp := l.engine.Viewport()
	next := virtual.Viewport{
		ScrollOffset:  vp.ScrollOffset + float64(delta),
		ContainerSize: vp.ContainerSize,
	}.Clamp(l.engine.TotalExtent())
	if next.ScrollOffset == vp.ScrollOffset {
		return false
	}
	_ = l.engine.Scroll(next.ScrollOffset)
	return true
}

// followScroll keeps the selection inside the visible range after the
// viewport moved without it.
func (l *List[T]) followScroll() bool {
	visible := l.engine.VisibleRange()
	if visible.Empty() || l.selected == ItemNotFound {
		return false
	}
	switch {
	case l.selected < visible.Start:
		l.selected = visible.Start
	case l.selected >= visible.End:
		l.selected = visible.End - 1
	default:
		return false
	}
	return true
}

func (l *List[T]) move(delta int) tea.Cmd {
	if !l.scrollBy(delta) {
		return nil
	}
	l.render()
	if l.followScroll() {
		l.rendered = l.compose()
	}
	return l.flush()
}

// MoveDown scrolls down by n lines.
func (l *List[T]) MoveDown(n int) tea.Cmd {
	return l.move(n)
}

// MoveUp scrolls up by n lines.
func (l *List[T]) MoveUp(n int) tea.Cmd {
	return l.move(-n)
}

func (l *List[T]) rowStep() int {
	return max(l.columns, 1)
}

// SelectItemBelow selects the next item, or the item in the next row of a
// grid.
func (l *List[T]) SelectItemBelow() tea.Cmd {
	return l.selectBy(l.rowStep())
}

// SelectItemAbove selects the previous item, or the item in the previous row
// of a grid.
func (l *List[T]) SelectItemAbove() tea.Cmd {
	return l.selectBy(-l.rowStep())
}

func (l *List[T]) selectBy(delta int) tea.Cmd {
	n := len(l.items)
	if n == 0 {
		return nil
	}
	next := l.selected + delta
	switch {
	case next >= n && l.wrap && l.selected == n-1:
		next = 0
	case next >= n:
		next = n - 1
	case next < 0 && l.wrap && l.selected == 0:
		next = n - 1
	case next < 0:
		next = 0
	}
	if next == l.selected {
		return nil
	}
	return l.scrollToIndex(next, virtual.AlignAuto)
}

// Select selects index and scrolls it into view.
func (l *List[T]) Select(index int) tea.Cmd {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	return l.scrollToIndex(index, virtual.AlignAuto)
}

func (l *List[T]) scrollToIndex(index int, align virtual.Align) tea.Cmd {
	l.selected = index
	if err := l.engine.ScrollToIndex(index, align); err != nil {
		slog.Error("Failed to scroll to item", "index", index, "error", err)
	}
	l.render()
	return l.flush()
}

// GoToTop selects the first item.
func (l *List[T]) GoToTop() tea.Cmd {
	if len(l.items) == 0 {
		return nil
	}
	return l.scrollToIndex(0, virtual.AlignStart)
}

// GoToBottom selects the last item.
func (l *List[T]) GoToBottom() tea.Cmd {
	if len(l.items) == 0 {
		return nil
	}
	return l.scrollToIndex(len(l.items)-1, virtual.AlignEnd)
}

// CopySelected copies the selected item's text, without styles, to the
// system clipboard.
func (l *List[T]) CopySelected() tea.Cmd {
	item, ok := l.SelectedItem()
	if !ok {
		return nil
	}
	text := ansi.Strip(item.Render(l.innerWidth()))
	return func() tea.Msg {
		return CopiedMsg{Text: text, Err: clipboard.WriteAll(text)}
	}
}

// SetSize resizes the list. A new width re-measures the rendered items.
func (l *List[T]) SetSize(width, height int) tea.Cmd {
	l.width = width
	l.height = height
	l.resize()
	l.clampScroll()
	l.render()
	return l.flush()
}

// GetSize returns the list size.
func (l *List[T]) GetSize() (int, int) {
	return l.width, l.height
}

// Focus shows the selection.
func (l *List[T]) Focus() tea.Cmd {
	l.focused = true
	l.render()
	return nil
}

// Blur hides the selection and ignores keys.
func (l *List[T]) Blur() tea.Cmd {
	l.focused = false
	l.render()
	return nil
}

func (l *List[T]) IsFocused() bool {
	return l.focused
}

// SetItems replaces the items with a new sequence.
func (l *List[T]) SetItems(items []T) tea.Cmd {
	l.items = items
	l.viewCache = make(map[uint64]string)
	l.selected = ItemNotFound
	if len(items) > 0 {
		l.selected = 0
	}
	if err := l.engine.Reset(len(items)); err != nil {
		slog.Error("Failed to reset list", "error", err)
	}
	if err := l.engine.Scroll(0); err != nil {
		slog.Error("Failed to reset list scroll", "error", err)
	}
	l.render()
	return l.flush()
}

// AppendItems adds items to the end of the current sequence, keeping every
// measurement.
func (l *List[T]) AppendItems(items ...T) tea.Cmd {
	if len(items) == 0 {
		return nil
	}
	l.items = append(l.items, items...)
	if l.selected == ItemNotFound {
		l.selected = 0
	}
	if err := l.engine.SetItemCount(len(l.items)); err != nil {
		slog.Error("Failed to grow list", "error", err)
	}
	l.render()
	return l.flush()
}

// UpdateItem replaces the item at index and re-measures it when rendered.
func (l *List[T]) UpdateItem(index int, item T) tea.Cmd {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	l.items[index] = item
	for k := range l.viewCache {
		delete(l.viewCache, k)
	}
	l.render()
	return l.flush()
}

// SetColumns switches between list and grid layout.
func (l *List[T]) SetColumns(columns int) tea.Cmd {
	columns = max(columns, 0)
	if columns == l.columns {
		return nil
	}
	l.columns = columns
	if err := l.engine.SetColumns(columns); err != nil {
		slog.Error("Failed to set list columns", "columns", columns, "error", err)
	}
	l.clampScroll()
	if l.selected != ItemNotFound {
		return l.scrollToIndex(l.selected, virtual.AlignAuto)
	}
	l.render()
	return l.flush()
}

func (l *List[T]) Items() []T {
	return l.items
}

func (l *List[T]) Len() int {
	return len(l.items)
}

// SelectedIndex returns the selected index or ItemNotFound.
func (l *List[T]) SelectedIndex() int {
	return l.selected
}

func (l *List[T]) SelectedItem() (T, bool) {
	var zero T
	if l.selected < 0 || l.selected >= len(l.items) {
		return zero, false
	}
	return l.items[l.selected], true
}

// State returns the engine state.
func (l *List[T]) State() virtual.State {
	return l.engine.Snapshot()
}

// Tune applies engine settings while the list is running.
func (l *List[T]) Tune(overscan int, threshold float64) tea.Cmd {
	if err := l.engine.SetOverscan(overscan); err != nil {
		slog.Warn("Ignoring overscan", "overscan", overscan, "error", err)
	}
	if err := l.engine.SetEndReachedThreshold(threshold); err != nil {
		slog.Warn("Ignoring end reached threshold", "threshold", threshold, "error", err)
	}
	l.render()
	return l.flush()
}

// Close releases the engine subscriptions and timers.
func (l *List[T]) Close() {
	for _, unsubscribe := range l.unsubscribe {
		unsubscribe()
	}
	l.engine.Close()
}
