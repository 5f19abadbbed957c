package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/article"
	"github.com/abelbrown/pubtrend/internal/otel"
	"github.com/abelbrown/pubtrend/internal/poller"
)

// headerLines is the number of lines above the viewport: the input row
// and the sort row.
const headerLines = 2

// AppConfig holds the dependencies for App.
type AppConfig struct {
	// CheckStatus returns a Cmd performing one status check for a poll
	// sequence. The Cmd must answer with StatusChecked.
	CheckStatus func(ctx context.Context, seqID string, attempt int, q api.Query) tea.Cmd

	// Schedule returns a Cmd delivering msg after d. Defaults to tea.Tick.
	Schedule func(d time.Duration, msg tea.Msg) tea.Cmd

	// DefaultMaxResults is used when the max-results input is empty.
	DefaultMaxResults int

	Logger *otel.Logger
	Ring   *otel.RingBuffer
}

// App is the root Bubble Tea model. It is the search controller: it owns
// the held results, routes the query input and the trigger through one
// submit path, and drives the active poller.Session with tea commands.
//
// App does NOT hold the HTTP client. Status checks go through
// AppConfig.CheckStatus and come back as messages.
type App struct {
	checkStatus func(ctx context.Context, seqID string, attempt int, q api.Query) tea.Cmd
	schedule    func(d time.Duration, msg tea.Msg) tea.Cmd
	defaultMax  int
	logger      *otel.Logger
	ring        *otel.RingBuffer

	query      textinput.Model
	maxResults textinput.Model
	focus      field
	spinner    spinner.Model
	viewport   viewport.Model
	impactBar  progress.Model

	panel *controls
	res   *results

	// Active poll sequence. Messages for any other sequence are stale.
	session   *poller.Session
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time

	alert     string
	width     int
	height    int
	ready     bool
	showDebug bool
}

// NewApp creates an App.
func NewApp(cfg AppConfig) App {
	defaultMax := cfg.DefaultMaxResults
	if defaultMax <= 0 {
		defaultMax = api.DefaultMaxResults
	}

	q := textinput.New()
	q.Prompt = ""
	q.Placeholder = "e.g. breast cancer immunotherapy"
	q.CharLimit = 512
	q.Width = 40
	q.Focus()

	m := textinput.New()
	m.Prompt = ""
	m.Placeholder = strconv.Itoa(defaultMax)
	m.CharLimit = 5
	m.Width = 5

	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle))

	schedule := cfg.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = otel.NewNullLogger()
	}

	return App{
		checkStatus: cfg.CheckStatus,
		schedule:    schedule,
		defaultMax:  defaultMax,
		logger:      logger,
		ring:        cfg.Ring,
		query:       q,
		maxResults:  m,
		spinner:     s,
		viewport:    viewport.New(80, 20),
		impactBar:   newImpactBar(),
		panel:       &controls{},
		res:         newResults(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.logger.Emit(otel.Event{Kind: otel.KindMsgReceived, Level: otel.LevelDebug, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case StatusChecked:
		return a.handleStatus(msg)

	case RetryDue:
		return a.handleRetry(msg)

	case spinner.TickMsg:
		if !a.loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		a.shutdown()
		return a, tea.Quit

	case key.Matches(msg, keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil
	}

	if a.showDebug {
		// Overlay swallows everything except its own toggle and esc.
		if key.Matches(msg, keys.Cancel) {
			a.showDebug = false
		}
		return a, nil
	}

	// Any key dismisses an alert.
	if a.alert != "" {
		a.alert = ""
		a.layout()
	}

	switch {
	case key.Matches(msg, keys.Cancel):
		if a.loading() {
			a.cancelActive(otel.KindSearchCancel, "cancelled by user")
		}
		return a, nil

	case key.Matches(msg, keys.NextField):
		return a, a.setFocus((a.focus + 1) % fieldCount)

	case key.Matches(msg, keys.PrevField):
		return a, a.setFocus((a.focus + fieldCount - 1) % fieldCount)

	case key.Matches(msg, keys.PageDown), key.Matches(msg, keys.PageUp):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	switch a.focus {
	case fieldQuery:
		if key.Matches(msg, keys.Submit) {
			return a.submit()
		}
		var cmd tea.Cmd
		a.query, cmd = a.query.Update(msg)
		return a, cmd

	case fieldMaxResults:
		if key.Matches(msg, keys.Submit) {
			return a.submit()
		}
		if msg.Type == tea.KeyRunes && !allDigits(msg.Runes) {
			return a, nil
		}
		var cmd tea.Cmd
		a.maxResults, cmd = a.maxResults.Update(msg)
		return a, cmd

	case fieldTrigger:
		if key.Matches(msg, keys.Trigger) {
			if a.panel.triggerDisabled {
				return a, nil
			}
			return a.submit()
		}

	case fieldSort:
		switch {
		case key.Matches(msg, keys.SortNext):
			a.changeSort(a.res.sortKey.Next())
		case key.Matches(msg, keys.SortPrev):
			a.changeSort(a.res.sortKey.Prev())
		}
	}
	return a, nil
}

// submit is the single search entry point for both the trigger and Enter
// in the inputs. A live sequence is superseded by a valid new one.
func (a App) submit() (tea.Model, tea.Cmd) {
	q := api.Query{Text: a.query.Value(), MaxResults: a.maxResultsValue()}

	s, err := poller.NewSession(q, a.panel)
	if err != nil {
		a.alert = poller.Alert(err)
		a.layout()
		return a, nil
	}

	if a.loading() {
		a.cancelActive(otel.KindSearchSupersede, "superseded by "+s.ID)
	}

	a.session = s
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.startedAt = time.Now()

	a.logger.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindSearchSubmit,
		Comp:  "ui",
		SeqID: s.ID,
		Query: s.Query.Text,
		Count: s.Query.MaxResults,
	})

	step := s.Start()
	return a, tea.Batch(a.perform(step), a.spinner.Tick)
}

// perform turns a poller step into a command. Terminal steps are applied
// immediately.
func (a *App) perform(step poller.Step) tea.Cmd {
	s := a.session
	switch step.Kind {
	case poller.StepFetch:
		if step.Delay > 0 {
			a.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchRetry, Comp: "ui", SeqID: s.ID, Attempt: step.Attempt, Dur: step.Delay})
			return a.schedule(step.Delay, RetryDue{SeqID: s.ID, Attempt: step.Attempt})
		}
		if a.checkStatus == nil {
			return nil
		}
		return a.checkStatus(a.ctx, s.ID, step.Attempt, s.Query)
	case poller.StepDone:
		a.finish(step.Outcome)
	}
	return nil
}

func (a App) handleStatus(msg StatusChecked) (tea.Model, tea.Cmd) {
	if a.session == nil || msg.SeqID != a.session.ID {
		return a, nil
	}

	a.logger.Emit(otel.Event{
		Level:   otel.LevelDebug,
		Kind:    otel.KindSearchPoll,
		Comp:    "ui",
		SeqID:   msg.SeqID,
		Attempt: msg.Attempt,
		Status:  string(msg.Resp.Status),
		Err:     errString(msg.Err),
	})

	step := a.session.Observe(msg.Resp, msg.Err)
	return a, a.perform(step)
}

func (a App) handleRetry(msg RetryDue) (tea.Model, tea.Cmd) {
	if a.session == nil || msg.SeqID != a.session.ID || !a.session.Fire() {
		return a, nil
	}
	if a.checkStatus == nil {
		return a, nil
	}
	return a, a.checkStatus(a.ctx, a.session.ID, msg.Attempt, a.session.Query)
}

// finish applies a terminal outcome. Controls were already re-enabled by
// the session.
func (a *App) finish(out poller.Outcome) {
	s := a.session
	dur := time.Since(a.startedAt)
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	switch {
	case out.OK():
		d := a.res.replace(s.Query.Text, out.Articles, out.Trend)
		a.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: "ui", SeqID: s.ID, Count: len(out.Articles), Attempt: s.Attempt(), Dur: dur})
		a.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindChartRender, Comp: "ui", SeqID: s.ID, Count: len(d.Categories)})
		a.viewport.GotoTop()
	case out.TimedOut():
		a.alert = poller.Alert(out.Err)
		a.logger.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchTimeout, Comp: "ui", SeqID: s.ID, Attempt: s.Attempt(), Dur: dur})
	default:
		a.alert = poller.Alert(out.Err)
		a.logger.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSearchFail, Comp: "ui", SeqID: s.ID, Err: out.Err.Error(), Dur: dur})
	}
	a.layout()
}

// cancelActive ends the live sequence without an alert.
func (a *App) cancelActive(kind otel.EventKind, reason string) {
	s := a.session
	if s == nil || !s.Cancel() {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: kind, Comp: "ui", SeqID: s.ID, Attempt: s.Attempt(), Msg: reason})
}

// changeSort re-orders the held set. Ignored while the sort control is
// disabled; never touches the network.
func (a *App) changeSort(k article.SortKey) {
	if a.panel.sortDisabled || k == a.res.sortKey {
		return
	}
	a.res.setSort(k)
	a.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSortChange, Comp: "ui", Msg: string(k)})
	a.refresh()
	a.viewport.GotoTop()
}

// shutdown cancels any live sequence and releases the chart.
func (a *App) shutdown() {
	a.cancelActive(otel.KindSearchCancel, "quit")
	a.res.close()
}

func (a App) loading() bool {
	return a.session != nil && !a.session.State().Terminal()
}

func (a App) maxResultsValue() int {
	v := strings.TrimSpace(a.maxResults.Value())
	if v == "" {
		return a.defaultMax
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return a.defaultMax
	}
	return n
}

func (a *App) setFocus(f field) tea.Cmd {
	a.focus = f
	a.query.Blur()
	a.maxResults.Blur()
	switch f {
	case fieldQuery:
		return a.query.Focus()
	case fieldMaxResults:
		return a.maxResults.Focus()
	}
	return nil
}

// layout sizes the viewport to the window and refreshes its content.
func (a *App) layout() {
	h := a.height - headerLines - 1 // status bar
	if a.alert != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = h
	a.refresh()
}

func (a *App) refresh() {
	a.viewport.SetContent(a.res.view(a.width, a.impactBar))
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		seqID := ""
		if a.session != nil {
			seqID = a.session.ID
		}
		return debugOverlay(a.ring, seqID, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	parts := []string{
		a.renderInputRow(),
		a.renderSortRow(),
		a.viewport.View(),
	}
	if a.alert != "" {
		parts = append(parts, ErrorStyle.Width(a.width).Render(a.alert+" (press any key to dismiss)"))
	}
	parts = append(parts, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) renderInputRow() string {
	button := ButtonStyle.Render("Search")
	switch {
	case a.panel.triggerDisabled:
		button = DisabledStyle.Render("Search")
	case a.focus == fieldTrigger:
		button = ButtonFocused.Render("Search")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render("pubtrend"),
		FieldLabel.Render("Query "),
		a.query.View(),
		FieldLabel.Render("  Max "),
		a.maxResults.View(),
		" ",
		button,
	)
}

func (a App) renderSortRow() string {
	label := fmt.Sprintf("Sort: ‹ %s ›", a.res.sortKey.Label())
	var sortView string
	switch {
	case a.panel.sortDisabled:
		sortView = DisabledStyle.Render(label)
	case a.focus == fieldSort:
		sortView = SortFocused.Render(label)
	default:
		sortView = SortStyle.Render(label)
	}

	status := ""
	if a.loading() {
		status = fmt.Sprintf(" %s Searching %q (check %d/%d)",
			a.spinner.View(), a.session.Query.Text, a.session.Attempt()+1, poller.MaxAttempts+1)
	} else if a.res.loaded {
		status = FieldLabel.Render(" " + a.res.summary())
	}
	return sortView + status
}

// renderStatusBar renders the bottom bar with key hints.
func (a App) renderStatusBar() string {
	hints := []string{
		StatusBarKey.Render("enter") + StatusBarText.Render(":search"),
		StatusBarKey.Render("tab") + StatusBarText.Render(":focus"),
		StatusBarKey.Render("←/→") + StatusBarText.Render(":sort"),
		StatusBarKey.Render("pgup/pgdn") + StatusBarText.Render(":scroll"),
		StatusBarKey.Render("esc") + StatusBarText.Render(":cancel"),
		StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("ctrl+c") + StatusBarText.Render(":quit"),
	}
	return StatusBar.Width(a.width).Render(strings.Join(hints, " "))
}

func allDigits(rs []rune) bool {
	for _, r := range rs {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
