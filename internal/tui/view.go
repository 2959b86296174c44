package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gavet/crmdialer/internal/app/dial"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	waiting lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
	alert   lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		box := plain.Border(lipgloss.RoundedBorder()).Padding(0, 1)
		return styles{
			title:   plain.Bold(true),
			label:   plain,
			value:   plain.Bold(true),
			muted:   plain,
			waiting: plain.Bold(true),
			ok:      plain,
			err:     plain.Bold(true),
			box:     box,
			alert:   box.Border(lipgloss.DoubleBorder()),
		}
	}

	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		value:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		waiting: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		err:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
		alert: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1),
	}
}

var stateLabels = map[dial.State]string{
	dial.StateIdle:     "Parado",
	dial.StateStarting: "Iniciando",
	dial.StateRunning:  "Em execução",
	dial.StatePaused:   "Pausado",
	dial.StateFinished: "Finalizado",
	dial.StateFailed:   "Erro",
}

func stateLabel(s dial.State) string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	return stateLabels[dial.StateIdle]
}

// View renders the console.
func (m *Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render("CRM Dialer"))
	b.WriteString("\n\n")

	status := m.snap.Status
	if status == "" {
		status = "Pressione s para iniciar."
	}
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Estado:"), s.value.Render(stateLabel(m.snap.State)))
	fmt.Fprintf(&b, "%s %s\n", s.label.Render("Status:"), status)
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		s.label.Render("COD:"), s.value.Render(orDash(m.snap.Code)),
		s.label.Render("Telefone:"), s.value.Render(orDash(m.snap.Phone)),
	)
	fmt.Fprintf(&b, "%s %s %d/%d\n", s.label.Render("Progresso:"), m.progress.ViewAs(m.percent()), m.snap.Processed, m.snap.Total)
	fmt.Fprintf(&b, "%s %d\n", s.label.Render("Prioridade pendente:"), m.snap.PendingPriority)

	if m.snap.AwaitingOutcome {
		b.WriteString("\n")
		b.WriteString(s.waiting.Render("Ligação em andamento: registre uma observação (o) ou agende um retorno (r)."))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		if m.noticeErr {
			b.WriteString(s.err.Render(m.notice))
		} else {
			b.WriteString(s.ok.Render(m.notice))
		}
		b.WriteString("\n")
	}

	if modal := m.modalView(); modal != "" {
		b.WriteString("\n")
		b.WriteString(modal)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.bindings()))
	b.WriteString("\n")

	return b.String()
}

func (m *Model) modalView() string {
	s := m.styles

	var lines []string
	switch m.mode {
	case modeAlert:
		return s.alert.Render(strings.Join([]string{
			s.err.Render("Erro na automação"),
			m.alert,
			s.muted.Render("enter para fechar"),
		}, "\n"))

	case modeQuitConfirm:
		lines = []string{
			"Deseja realmente sair? A automação será interrompida.",
			s.muted.Render("s confirmar · n cancelar"),
		}

	case modeAddCodes:
		lines = []string{
			s.title.Render("Adicionar CODs com prioridade"),
			m.codes.View(),
			s.muted.Render("ctrl+s adicionar · esc cancelar"),
		}

	case modeObservation:
		lines = []string{
			s.title.Render(fmt.Sprintf("Observação do COD %s", m.snap.Code)),
			m.observation.View(),
			s.muted.Render("enter registrar · esc cancelar"),
		}

	case modeScheduleDay:
		lines = []string{
			s.title.Render(fmt.Sprintf("Agendar retorno do COD %s", m.snap.Code)),
			"1 Hoje",
			"2 Amanhã",
			"3 Depois de Amanhã",
			"d Outra data",
			s.muted.Render("esc cancelar"),
		}

	case modeScheduleDate:
		lines = []string{
			s.title.Render("Data do retorno"),
			m.date.View(),
			s.muted.Render("enter continuar · esc cancelar"),
		}

	case modeScheduleTime:
		day := m.schedDate
		if day == "" {
			day = m.schedDay.String()
		}
		lines = []string{
			s.title.Render(fmt.Sprintf("Horário do retorno (%s)", day)),
			m.hour.View(),
			s.muted.Render("enter agendar · esc cancelar"),
		}

	default:
		return ""
	}

	if m.modalErr != "" {
		lines = append(lines, s.err.Render(m.modalErr))
	}

	return s.box.Render(strings.Join(lines, "\n"))
}

func (m *Model) percent() float64 {
	if m.snap.Total <= 0 {
		return 0
	}
	return float64(m.snap.Processed) / float64(m.snap.Total)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
