// ABOUTME: Update loop for the git-hyper TUI
// ABOUTME: Handles key navigation per view and dispatches service commands

package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all TUI events and messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case profilesLoadedMsg:
		m.profiles = msg.profiles
		m.current = msg.current
		if m.listIndex >= len(m.profiles) {
			m.listIndex = 0
		}
		return m, nil

	case accountCreatedMsg:
		m.resultTitle = "Account '" + msg.result.Profile.Name + "' created and activated"
		var b strings.Builder
		if msg.result.ApplyErr != nil {
			b.WriteString("Saved, but applying the identity failed:\n")
			b.WriteString(msg.result.ApplyErr.Error())
			m.resultIsErr = true
		} else {
			b.WriteString("Git and SSH configuration applied.")
			m.resultIsErr = false
		}
		if msg.publicKey != "" {
			b.WriteString("\n\nPublic key (add it on GitHub under Settings > SSH keys):\n")
			b.WriteString(msg.publicKey)
			if msg.fingerprint != "" {
				b.WriteString("\n" + msg.fingerprint)
			}
		}
		m.resultBody = b.String()
		m.viewState = ViewResult
		return m, m.loadProfilesCmd()

	case activatedMsg:
		m.resultTitle = "Account '" + msg.result.Profile.Name + "' activated"
		if msg.result.ApplyErr != nil {
			m.resultBody = "Saved, but applying the identity failed:\n" + msg.result.ApplyErr.Error()
			m.resultIsErr = true
		} else {
			m.resultBody = "Git and SSH configuration applied."
			m.resultIsErr = false
		}
		m.viewState = ViewResult
		return m, m.loadProfilesCmd()

	case deletedMsg:
		m.resultTitle = "Account '" + msg.name + "' removed"
		m.resultBody = ""
		m.resultIsErr = false
		m.viewState = ViewResult
		m.deleteTarget = nil
		return m, m.loadProfilesCmd()

	case probeDoneMsg:
		if msg.ok {
			m.resultTitle = "SSH connection to " + m.host + " working"
		} else {
			m.resultTitle = "SSH connection to " + m.host + " failed"
		}
		m.resultBody = msg.detail
		m.resultIsErr = !msg.ok
		m.viewState = ViewResult
		return m, nil

	case errMsg:
		m.resultTitle = "Error"
		m.resultBody = msg.err.Error()
		m.resultIsErr = true
		m.viewState = ViewResult
		return m, m.loadProfilesCmd()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C quits from anywhere.
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.viewState {
	case ViewMenu:
		return m.updateMenu(msg)
	case ViewAddForm:
		return m.updateAddForm(msg)
	case ViewAccountList:
		return m.updateAccountList(msg)
	case ViewCurrent:
		return m.backToMenu()
	case ViewDeleteSelect:
		return m.updateDeleteSelect(msg)
	case ViewDeleteConfirm:
		return m.updateDeleteConfirm(msg)
	case ViewProbing:
		// probe is not cancellable once started
		return m, nil
	case ViewResult:
		return m.backToMenu()
	}
	return m, nil
}

func (m Model) backToMenu() (tea.Model, tea.Cmd) {
	m.viewState = ViewMenu
	m.listIndex = 0
	m.deleteTarget = nil
	return m, m.loadProfilesCmd()
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.menuIndex--
		if m.menuIndex < 0 {
			m.menuIndex = menuCount - 1
		}
	case "down", "j":
		m.menuIndex++
		if m.menuIndex >= menuCount {
			m.menuIndex = 0
		}
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		return m.selectMenuEntry()
	}
	return m, nil
}

func (m Model) selectMenuEntry() (tea.Model, tea.Cmd) {
	switch m.menuIndex {
	case menuAdd:
		m.form = newAddForm()
		m.viewState = ViewAddForm
	case menuSwitch, menuList:
		m.listIndex = 0
		m.viewState = ViewAccountList
		return m, m.loadProfilesCmd()
	case menuCurrent:
		m.viewState = ViewCurrent
		return m, m.loadProfilesCmd()
	case menuRemove:
		m.listIndex = 0
		m.viewState = ViewDeleteSelect
		return m, m.loadProfilesCmd()
	case menuProbe:
		m.viewState = ViewProbing
		return m, m.probeCmd()
	case menuQuit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateAddForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.backToMenu()

	case "tab", "down":
		m.form.focus = m.nextFormField(1)
		m.refocusForm()
		return m, nil

	case "shift+tab", "up":
		m.form.focus = m.nextFormField(-1)
		m.refocusForm()
		return m, nil

	case "left", "right":
		// toggle key mode when the key-mode row is focused
		if m.form.focus == formToggleRow {
			if m.form.mode == keyModeGenerate {
				m.form.mode = keyModeExisting
			} else {
				m.form.mode = keyModeGenerate
			}
			return m, nil
		}

	case "enter":
		if m.form.focus == formSubmitRow {
			return m.submitAddForm()
		}
		m.form.focus = m.nextFormField(1)
		m.refocusForm()
		return m, nil
	}

	// Route everything else to the focused text input.
	if m.form.focus < inputCount {
		var cmd tea.Cmd
		m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// Form rows: the text inputs, then the key-mode toggle, then submit.
const (
	formToggleRow = inputCount
	formSubmitRow = inputCount + 1
)

// nextFormField advances focus, skipping the key path input when a new key
// is being generated.
func (m Model) nextFormField(dir int) int {
	const last = formSubmitRow
	focus := m.form.focus
	for {
		focus += dir
		if focus < 0 {
			focus = last
		}
		if focus > last {
			focus = 0
		}
		if focus == inputKeyPath && m.form.mode == keyModeGenerate {
			continue
		}
		return focus
	}
}

func (m *Model) refocusForm() {
	for i := range m.form.inputs {
		if i == m.form.focus {
			m.form.inputs[i].Focus()
		} else {
			m.form.inputs[i].Blur()
		}
	}
}

func (m Model) submitAddForm() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.form.inputs[inputName].Value())
	email := strings.TrimSpace(m.form.inputs[inputEmail].Value())
	keyPath := strings.TrimSpace(m.form.inputs[inputKeyPath].Value())

	if name == "" {
		m.form.errMsg = "Name must not be empty"
		return m, nil
	}
	if email == "" || !strings.Contains(email, "@") {
		m.form.errMsg = "Email looks invalid"
		return m, nil
	}
	if m.form.mode == keyModeExisting && keyPath == "" {
		m.form.errMsg = "Key path must not be empty"
		return m, nil
	}

	m.form.errMsg = ""
	return m, m.createAccountCmd(name, email, m.form.mode, keyPath)
}

func (m Model) updateAccountList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.backToMenu()
	case "up", "k":
		if m.listIndex > 0 {
			m.listIndex--
		}
	case "down", "j":
		if m.listIndex < len(m.profiles)-1 {
			m.listIndex++
		}
	case "enter":
		if len(m.profiles) == 0 {
			return m.backToMenu()
		}
		return m, m.activateCmd(m.profiles[m.listIndex].ID)
	}
	return m, nil
}

func (m Model) updateDeleteSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m.backToMenu()
	case "up", "k":
		if m.listIndex > 0 {
			m.listIndex--
		}
	case "down", "j":
		if m.listIndex < len(m.profiles)-1 {
			m.listIndex++
		}
	case "enter":
		if len(m.profiles) == 0 {
			return m.backToMenu()
		}
		m.deleteTarget = m.profiles[m.listIndex]
		m.viewState = ViewDeleteConfirm
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		target := m.deleteTarget
		m.deleteTarget = nil
		return m, m.deleteCmd(target)
	default:
		// anything else cancels
		m.viewState = ViewDeleteSelect
		m.deleteTarget = nil
	}
	return m, nil
}
