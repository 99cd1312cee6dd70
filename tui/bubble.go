package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/feedcast/feedcast/internal/ui"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/session"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/util"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]
	busy          bool

	keymap *statefulKeymap

	ctx     context.Context
	session *session.Session
	view    session.View

	// components
	spinnerC  spinner.Model
	inputC    textinput.Model
	feedsC    list.Model
	tracksC   list.Model
	progressC progress.Model
	helpC     help.Model

	seekSeq     int
	seekPending bool
	seekTarget  float64

	clearArmed bool

	lastError     error
	width, height int
	notifier      *ui.Model
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState moves to s and remembers the current state for going back.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if !lo.Contains([]state{loadingState, errorState}, b.state) {
		b.statesHistory.Push(b.state)
	}

	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if b.statesHistory.Len() > 0 {
		b.setState(b.statesHistory.Pop())
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.feedsC.SetSize(listWidth, listHeight)
	b.feedsC.Help.Width = listWidth

	// the now playing panel sits below the track list
	b.tracksC.SetSize(listWidth, util.Max(listHeight-nowPlayingHeight, 5))
	b.tracksC.Help.Width = listWidth

	b.progressC.Width = util.Min(listWidth, 80)
	b.inputC.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

func newBubble(ctx context.Context, s *session.Session) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        keymap,
		ctx:           ctx,
		session:       s,
		notifier:      &ui.Model{},
	}

	makeList := func(title string, titleStyle lipgloss.Style) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.SetSpacing(viper.GetInt(key.TUIItemSpacing))
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Filter = fuzzyFilter
		listC.Title = title
		listC.Styles.Title = titleStyle
		listC.Styles.NoItems = paddingStyle
		listC.StatusMessageLifetime = time.Hour * 999
		listC.SetShowPagination(false)
		listC.SetShowStatusBar(false)

		return listC
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.inputC = textinput.New()
	bubble.inputC.Placeholder = "https://example.com/feed.json"
	bubble.inputC.CharLimit = 2048
	bubble.inputC.Prompt = "Feed URL: "

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.feedsC = makeList("Feeds", lipgloss.NewStyle().Foreground(style.Base).Background(style.Yellow).Padding(0, 1))
	bubble.feedsC.SetStatusBarItemName("feed", "feeds")

	bubble.tracksC = makeList("Tracks", lipgloss.NewStyle().Foreground(style.Base).Background(style.Peach).Padding(0, 1))
	bubble.tracksC.SetStatusBarItemName("track", "tracks")

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(loadingState)
	return &bubble
}
