package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/igorwolfs/bldc-pysim/internal/bldc"
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
	"github.com/igorwolfs/bldc-pysim/internal/sim"
)

const (
	dialWidth       = 30
	dialHeight      = 15
	historyCapacity = 300
	frameRate       = 30
	maxStepsPerTick = 20000
)

var (
	dialStyle        = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(50)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// Model steps a motor simulation in real time and renders it.
type Model struct {
	sim    *sim.Simulator
	motor  *bldc.Motor
	cfg    dynamo.Config
	title  string
	x0     dynamo.State
	x      dynamo.State
	u      dynamo.Control
	t      float64
	err    error
	canvas *Canvas

	running       bool
	showHelp      bool
	stepsPerTick  int
	speedHistory  []float64
	paramKeys     []string
	initialParams map[string]float64
	selected      int
}

// NewModel prepares a live view of s, which must simulate motor. The run
// stops by itself once cfg.Duration is reached.
func NewModel(s *sim.Simulator, motor *bldc.Motor, x0 dynamo.State, cfg dynamo.Config, title string) Model {
	params := motor.GetParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Model{
		sim:           s,
		motor:         motor,
		cfg:           cfg,
		title:         title,
		x0:            x0.Clone(),
		x:             x0.Clone(),
		u:             make(dynamo.Control, motor.ControlDim()),
		canvas:        NewCanvas(dialWidth, dialHeight),
		running:       true,
		stepsPerTick:  50,
		speedHistory:  make([]float64, 0, historyCapacity),
		paramKeys:     keys,
		initialParams: params,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame worth of simulation steps.
func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.Done() {
			m.running = false
			break
		}
		next, u, err := m.sim.Step(m.x, m.t, m.cfg)
		if err != nil {
			m.err = err
			m.running = false
			break
		}
		m.x, m.u = next, u
		m.t += m.cfg.Dt
	}

	m.speedHistory = append(m.speedHistory, m.x[1]*bldc.RadPerSecToRPM)
	if len(m.speedHistory) > historyCapacity {
		m.speedHistory = m.speedHistory[1:]
	}
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	if err := m.motor.SetParam(key, m.motor.GetParams()[key]*factor); err != nil {
		m.err = err
	}
}

func (m *Model) reset() {
	m.x = m.x0.Clone()
	m.u = make(dynamo.Control, m.motor.ControlDim())
	m.t = 0
	m.err = nil
	m.running = true
	m.speedHistory = m.speedHistory[:0]
	for k, v := range m.initialParams {
		_ = m.motor.SetParam(k, v)
	}
}

// Done reports whether the configured duration has been simulated.
func (m Model) Done() bool {
	return m.t >= m.cfg.Duration-m.cfg.Dt/2
}

func (m Model) Time() float64           { return m.t }
func (m Model) State() dynamo.State     { return m.x }
func (m Model) Running() bool           { return m.running }
func (m Model) Err() error              { return m.err }
func (m Model) StepsPerTick() int       { return m.stepsPerTick }
func (m Model) SpeedHistory() []float64 { return m.speedHistory }

func (m Model) View() string {
	s, _ := bldc.StateFrom(m.x)
	sw, _ := bldc.SwitchesFrom(m.u)

	m.canvas.Clear()
	DrawRotor(m.canvas, s.Theta, sw)
	dial := dialStyle.Render(m.canvas.String())

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		b.WriteString(StatusFailed.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.Done():
		b.WriteString(StatusPaused.Render("DONE") + "\n\n")
	case m.running:
		b.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		b.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	b.WriteString(ProgressBar(m.t/m.cfg.Duration, 30) + fmt.Sprintf(" %5.1f%%\n\n", 100*m.t/m.cfg.Duration))

	if len(m.speedHistory) > 1 {
		chart := asciigraph.Plot(m.speedHistory, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("Speed (RPM)"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f ms", m.t*1e3))
	row("Speed", fmt.Sprintf("%.1f RPM", s.Omega*bldc.RadPerSecToRPM))
	row("Angle", fmt.Sprintf("%.1f°", s.Theta*180/math.Pi))
	row("Currents", fmt.Sprintf("%+.2f %+.2f %+.2f A", s.IU, s.IV, s.IW))
	lo := [3]bool{sw.LowU, sw.LowV, sw.LowW}
	hi := [3]bool{sw.HighU, sw.HighV, sw.HighW}
	b.WriteString(labelStyle.Render("Switches") + SwitchPattern(lo, hi) + "  " + Subtle.Render(bldc.Classify(sw).Kind.String()) + "\n")
	row("Steps/frame", fmt.Sprintf("%d", m.stepsPerTick))

	b.WriteString("\nPARAMETERS\n")
	params := m.motor.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-16s %.4g", k, params[k])
		if i == m.selected {
			b.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + MetricLabel.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + Separator(40) + "\n")
	b.WriteString(KeyHint.Render("SP:Pause R:Reset Q:Quit ?:Help\nTab:Param ↑↓:Tune +/-:Speed"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, dial, statsStyle.Render(b.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  +/-      - Steps per frame x2 / /2  ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + main
	}
	return main
}
