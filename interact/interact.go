package interact

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/floats"

	"github.com/jdginn/go-roomsim/room"
)

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type item struct {
	index   int
	arrival room.Arrival
	delayMs float64
	levelDB float64
}

func (i item) Title() string {
	return fmt.Sprintf("%8.3f ms %7.2f dB", i.delayMs, i.levelDB)
}

func (i item) Description() string {
	return fmt.Sprintf("order %d, %.2f m", i.arrival.Order, i.arrival.Distance)
}

func (i item) FilterValue() string {
	return fmt.Sprintf("order %d", i.arrival.Order)
}

// Items lists the arrivals of a pair with their delay and level relative to the first arrival
func Items(arrivals []room.Arrival) []list.Item {
	if len(arrivals) == 0 {
		return nil
	}
	first := arrivals[0]
	for _, a := range arrivals {
		if a.Time < first.Time {
			first = a
		}
	}
	ref := floats.Max(first.Energy)
	items := make([]list.Item, len(arrivals))
	for i, a := range arrivals {
		items[i] = item{
			index:   i,
			arrival: a,
			delayMs: (a.Time - first.Time) / room.MS,
			levelDB: 10 * math.Log10(floats.Max(a.Energy)/ref),
		}
	}
	return items
}

type model struct {
	list     list.Model
	view     *room.View
	mic, src int
	out      string
	drawn    int
	err      error
}

// NewModel browses the arrivals of pair (mic, src) of a simulated room and
// draws the selected one on a floor plan saved to out
func NewModel(r *room.Room, mic, src int, out string) (tea.Model, error) {
	arrivals, err := r.Arrivals(mic, src)
	if err != nil {
		return nil, err
	}
	if len(arrivals) == 0 {
		return nil, fmt.Errorf("%w: mic %d, source %d has no image source arrivals", room.ErrState, mic, src)
	}
	z := r.Microphones()[mic].Position.Z
	m := model{
		list:  list.New(Items(arrivals), list.NewDefaultDelegate(), 80, 24),
		view:  room.FloorPlan(r, z, 1000, 1000),
		mic:   mic,
		src:   src,
		out:   out,
		drawn: -1,
	}
	m.list.Title = fmt.Sprintf("Arrivals at mic %d from source %d", mic, src)
	m.draw()
	return m, nil
}

// draw saves the floor plan of the selected arrival
func (m *model) draw() {
	sel, ok := m.list.SelectedItem().(item)
	if !ok || sel.index == m.drawn {
		return
	}
	img, err := m.view.DrawArrivals(m.mic, m.src, func(i int, _ room.Arrival) bool { return i == sel.index })
	if err == nil {
		err = gg.SavePNG(m.out, img)
	}
	m.err = err
	m.drawn = sel.index
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.draw()
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return docStyle.Render(m.list.View() + "\n" + errorStyle.Render(m.err.Error()))
	}
	return docStyle.Render(m.list.View())
}

// Interact runs the arrival browser until the user quits
func Interact(r *room.Room, mic, src int, out string) error {
	m, err := NewModel(r, mic, src, out)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running arrival browser: %w", err)
	}
	return nil
}
