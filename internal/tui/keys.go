package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start       key.Binding
	Pause       key.Binding
	AddCodes    key.Binding
	Observation key.Binding
	Schedule    key.Binding
	Copy        key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "iniciar/continuar")),
		Pause:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pausar")),
		AddCodes:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "adicionar CODs")),
		Observation: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "observação")),
		Schedule:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "agendar retorno")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copiar COD")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "sair")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.AddCodes, k.Observation, k.Schedule, k.Copy, k.Quit}
}
