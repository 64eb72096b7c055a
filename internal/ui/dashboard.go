package ui

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SaleView is one refresh of the live sale dashboard.
type SaleView struct {
	Name           string
	Owner          string
	Minted         uint64
	Collection     uint64
	DevReserve     uint64
	Price          *big.Int
	Balance        *big.Int
	WhitelistStart uint64
	WhitelistOpen  bool
	Signer         string
	PublicStart    uint64
	PublicOpen     bool
	Holders        []Holding
}

// Holding is one owner's token count.
type Holding struct {
	Address string
	Tokens  uint64
}

type dashboardModel struct {
	view       SaleView
	loaded     bool
	lastUpdate time.Time
	interval   time.Duration
	quitting   bool
	fetcher    func() (SaleView, error)
	err        string
}

type tickMsg time.Time
type saleFetchedMsg SaleView
type saleErrorMsg string

// NewDashboard creates a Bubble Tea program that polls fetcher every
// interval and redraws the sale status.
func NewDashboard(interval time.Duration, fetcher func() (SaleView, error)) *tea.Program {
	return tea.NewProgram(dashboardModel{interval: interval, fetcher: fetcher})
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tick(m.interval))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tick(m.interval))

	case saleFetchedMsg:
		m.view = SaleView(msg)
		m.loaded = true
		m.lastUpdate = time.Now()
		m.err = ""

	case saleErrorMsg:
		m.err = string(msg)
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚔ Live Sale Dashboard") + "\n")
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Updated: %s · q to quit\n\n", m.lastUpdate.Format("15:04:05"))))

	if m.err != "" {
		sb.WriteString(Err(m.err) + "\n")
	}
	if !m.loaded {
		sb.WriteString(StyleMeta.Render("Loading...") + "\n")
		return sb.String()
	}
	sb.WriteString(RenderSale(m.view))
	return sb.String()
}

// RenderSale draws a sale summary. `status` prints it once; the dashboard
// redraws it on every tick.
func RenderSale(v SaleView) string {
	var sb strings.Builder
	sb.WriteString(KeyValueBlock(v.Name, [][2]string{
		{"Owner", v.Owner},
		{"Minted", Progress(v.Minted, v.Collection, 24)},
		{"Dev reserve", fmt.Sprintf("%d", v.DevReserve)},
		{"Public price", Ether(v.Price)},
		{"Contract balance", Ether(v.Balance)},
	}))
	sb.WriteString("\n")

	phases := NewTable([]Column{
		{Title: "Phase", Width: 10},
		{Title: "State", Width: 8},
		{Title: "Starts", Width: 24},
		{Title: "Signer", Width: 14},
	})
	phases.AddRow(Row{"whitelist", state(v.WhitelistOpen), StartTime(v.WhitelistStart), TruncateAddr(v.Signer)})
	phases.AddRow(Row{"public", state(v.PublicOpen), StartTime(v.PublicStart), ""})
	sb.WriteString(phases.Render())

	if len(v.Holders) > 0 {
		sb.WriteString("\n")
		holders := NewTable([]Column{
			{Title: "Holder", Width: 42},
			{Title: "Tokens", Width: 8},
		})
		for _, h := range v.Holders {
			holders.AddRow(Row{h.Address, fmt.Sprintf("%d", h.Tokens)})
		}
		sb.WriteString(holders.Render())
	}
	return sb.String()
}

func state(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

func (m dashboardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		v, err := m.fetcher()
		if err != nil {
			return saleErrorMsg(err.Error())
		}
		return saleFetchedMsg(v)
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
