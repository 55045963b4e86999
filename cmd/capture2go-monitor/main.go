// Package main is capture2go-monitor, a bubbletea live view of one
// connected device: the most recent decoded sample, orientation, and
// clock round-trip estimate, styled with lipgloss.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sensorstim/capture2go/internal/config"
	"github.com/sensorstim/capture2go/internal/debugserver"
	"github.com/sensorstim/capture2go/internal/discovery"
	"github.com/sensorstim/capture2go/internal/session"
	"github.com/sensorstim/capture2go/pkg/device"
	"github.com/sensorstim/capture2go/pkg/protocol"
)

var (
	target = flag.String("target", "usb", `"usb", a BLE address, or a playback file path`)
	rate   = flag.Uint("rate", 0, "real-time streaming rate in Hz (0 = device default)")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Padding(0, 2).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4B5563")).
			Padding(0, 2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// sampleMsg carries one freshly decoded sample from the background
// reader goroutine into the bubbletea update loop.
type sampleMsg struct {
	pkg protocol.Package
}

type clockMsg struct {
	sample protocol.ClockSample
}

type statusMsg struct {
	state protocol.SensorState
}

type errMsg struct{ err error }

type model struct {
	width, height int
	dev           *device.Device
	sess          *session.Session

	lastSample protocol.Sample
	lastPkg    protocol.Package
	haveSample bool
	clock      protocol.ClockSample
	sensor     protocol.SensorState
	lastErr    error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.ClearScreen, pollQueue(m.sess), pollClock(m.sess))
}

// pollQueue waits for the next queued packet from the session's consumer
// stream and turns sensor-data packets into sampleMsg, DataStatus into
// statusMsg; everything else is silently re-polled.
func pollQueue(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		for item := range sess.Stream() {
			pkt := item.Packet()
			if status, ok := pkt.(protocol.Status); ok {
				return statusMsg{state: status.State}
			}
			pkg, err := protocol.ParsePackage(pkt)
			if err != nil {
				continue
			}
			return sampleMsg{pkg: pkg}
		}
		return errMsg{err: fmt.Errorf("monitor: consumer queue closed")}
	}
}

func pollClock(sess *session.Session) tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return clockMsg{sample: sess.LastClockSample()}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case sampleMsg:
		if len(msg.pkg.Samples) > 0 {
			m.lastSample = msg.pkg.Samples[len(msg.pkg.Samples)-1]
			m.haveSample = true
		}
		m.lastPkg = msg.pkg
		return m, pollQueue(m.sess)
	case statusMsg:
		m.sensor = msg.state
		return m, pollQueue(m.sess)
	case clockMsg:
		m.clock = msg.sample
		return m, pollClock(m.sess)
	case errMsg:
		m.lastErr = msg.err
	}
	return m, nil
}

func (m model) View() string {
	width := m.width
	if width < 60 {
		width = 60
	}

	header := headerStyle.Width(width).Render(fmt.Sprintf(" capture2go-monitor | sensor: %s", m.sensor))

	var body string
	if !m.haveSample {
		body = "waiting for samples..."
	} else {
		s := m.lastSample
		body = fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %.6f rad\n%s rest=%v  magDist=%v  errFlags=%#02x",
			labelStyle.Render("quat "), valueStyle.Render(fmt.Sprintf("w=%.4f x=%.4f y=%.4f z=%.4f", s.Quat.W, s.Quat.X, s.Quat.Y, s.Quat.Z)),
			labelStyle.Render("gyro "), valueStyle.Render(vecString(s.Gyro)),
			labelStyle.Render("acc  "), valueStyle.Render(vecString(s.Acc)),
			labelStyle.Render("delta"), s.DeltaRad,
			labelStyle.Render(""), s.RestDetected, s.MagDistDetected, uint8(s.ErrorFlags),
		)
	}
	sampleBox := boxStyle.Width(width - 4).Render(body)

	clockBody := fmt.Sprintf("%s %dns   %s %dns", labelStyle.Render("delay "), m.clock.DelayNs, labelStyle.Render("offset"), m.clock.OffsetNs)
	clockBox := boxStyle.Width(width - 4).Render(clockBody)

	footerText := "ctrl+c/esc quit"
	if m.lastErr != nil {
		footerText = errorStyle.Render(m.lastErr.Error())
	}
	footer := footerStyle.Width(width).Render(footerText)

	return lipgloss.JoinVertical(lipgloss.Left, header, sampleBox, clockBox, footer)
}

func vecString(v *protocol.Vec3) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("x=%.4f y=%.4f z=%.4f", v.X, v.Y, v.Z)
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	entry := log.WithField("cmd", "capture2go-monitor")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ClockRoundtripEnabled = true

	ctx := context.Background()
	tgt := discovery.ParseTarget(*target)
	transports, err := discovery.Connect(ctx, []discovery.Target{tgt}, entry, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(transports[0], cfg, entry)
	if err := sess.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "session connect: %v\n", err)
		os.Exit(1)
	}
	defer sess.Disconnect()

	if cfg.DebugHTTPAddr != "" {
		dbg := debugserver.New(cfg.DebugHTTPAddr, sess, entry)
		if err := dbg.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "debug server: %v\n", err)
			os.Exit(1)
		}
		defer dbg.Stop(context.Background())
	}

	dev := device.New(sess, cfg, entry)
	if _, err := dev.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	if err := dev.StartRealTimeStreaming(ctx, uint16(*rate)); err != nil {
		fmt.Fprintf(os.Stderr, "start real-time streaming: %v\n", err)
		os.Exit(1)
	}
	defer dev.StopRealTimeStreaming(context.Background())

	p := tea.NewProgram(model{dev: dev, sess: sess}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
