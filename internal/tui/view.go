// ABOUTME: Rendering for the git-hyper TUI
// ABOUTME: Lipgloss styles and per-view renderers

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/git-hyper/git-hyper/internal/sshkey"
	"github.com/git-hyper/git-hyper/internal/store"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)
)

const banner = `
   ____ _ _     _
  / ___(_) |_  | |__  _   _ _ __   ___ _ __
 | |  _| | __| | '_ \| | | | '_ \ / _ \ '__|
 | |_| | | |_  | | | | |_| | |_) |  __/ |
  \____|_|\__| |_| |_|\__, | .__/ \___|_|
                      |___/|_|`

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.viewState {
	case ViewMenu:
		content = m.renderMenu()
	case ViewAddForm:
		content = m.renderAddForm()
	case ViewAccountList:
		content = m.renderAccountList()
	case ViewCurrent:
		content = m.renderCurrent()
	case ViewDeleteSelect:
		content = m.renderDeleteSelect()
	case ViewDeleteConfirm:
		content = m.renderDeleteConfirm()
	case ViewProbing:
		content = m.renderProbing()
	case ViewResult:
		content = m.renderResult()
	}
	return content
}

func (m Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render(banner))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Git account manager"))
	b.WriteString("\n")

	if m.current != nil {
		b.WriteString(dimStyle.Render("Active: ") + activeStyle.Render(m.current.Name) +
			dimStyle.Render(" <"+m.current.Email+">"))
	} else {
		b.WriteString(dimStyle.Render("No account active"))
	}
	b.WriteString("\n\n")

	for i, label := range menuLabels {
		if i == m.menuIndex {
			b.WriteString(cursorStyle.Render(">> ") + activeStyle.Render(label))
		} else {
			b.WriteString("   " + label)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + helpStyle.Render("up/down: navigate | enter: select | q: quit"))
	return b.String()
}

func (m Model) renderAddForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add account"))
	b.WriteString("\n")

	b.WriteString(m.formRow(inputName, "Name"))
	b.WriteString(m.formRow(inputEmail, "Email"))

	if m.form.mode == keyModeExisting {
		b.WriteString(m.formRow(inputKeyPath, "Key path"))
	}

	toggle := "Generate new ed25519 key"
	if m.form.mode == keyModeExisting {
		toggle = "Use existing key"
	}
	b.WriteString(m.plainRow(formToggleRow, "SSH key", toggle+dimStyle.Render("  (left/right to change)")))

	b.WriteString(m.plainRow(formSubmitRow, "", "[ Create account ]"))

	if m.form.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.form.errMsg) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab: next field | enter: submit | esc: back"))
	return b.String()
}

func (m Model) formRow(idx int, label string) string {
	prefix := "   "
	if m.form.focus == idx {
		prefix = cursorStyle.Render(">> ")
	}
	return fmt.Sprintf("%s%s %s\n", prefix, labelStyle.Render(label+":"), m.form.inputs[idx].View())
}

func (m Model) plainRow(idx int, label, value string) string {
	prefix := "   "
	if m.form.focus == idx {
		prefix = cursorStyle.Render(">> ")
	}
	if label == "" {
		return fmt.Sprintf("%s%s\n", prefix, value)
	}
	return fmt.Sprintf("%s%s %s\n", prefix, labelStyle.Render(label+":"), value)
}

func (m Model) renderAccountList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n")
	b.WriteString(m.renderProfileList())
	b.WriteString("\n" + helpStyle.Render("enter: activate | esc: back"))
	return b.String()
}

func (m Model) renderDeleteSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Remove account"))
	b.WriteString("\n")
	b.WriteString(m.renderProfileList())
	b.WriteString("\n" + helpStyle.Render("enter: remove | esc: back"))
	return b.String()
}

func (m Model) renderProfileList() string {
	if len(m.profiles) == 0 {
		return dimStyle.Render("No accounts configured yet.") + "\n"
	}

	var b strings.Builder
	for i, p := range m.profiles {
		prefix := "   "
		if i == m.listIndex {
			prefix = cursorStyle.Render(">> ")
		}
		line := fmt.Sprintf("%-20s %s", p.Name, dimStyle.Render("<"+p.Email+">"))
		if p.Active {
			line += activeStyle.Render("  * active")
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}

func (m Model) renderCurrent() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Current account"))
	b.WriteString("\n")

	if m.current == nil {
		b.WriteString(dimStyle.Render("No account active.") + "\n")
		b.WriteString("\n" + helpStyle.Render("any key: back"))
		return b.String()
	}

	b.WriteString(labelStyle.Render("Name:") + "  " + m.current.Name + "\n")
	b.WriteString(labelStyle.Render("Email:") + " " + m.current.Email + "\n")
	b.WriteString(labelStyle.Render("Key:") + "   " + m.current.KeyPath + "\n")

	if pub := sshkey.ReadPublicKey(m.current.KeyPath); pub != "" {
		b.WriteString("\n" + labelStyle.Render("Public key:") + "\n" + pub + "\n")
		if fp := sshkey.Fingerprint(pub); fp != "" {
			b.WriteString(dimStyle.Render(fp) + "\n")
		}
	} else {
		b.WriteString("\n" + dimStyle.Render("Public key not found at "+m.current.KeyPath+".pub") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("any key: back"))
	return b.String()
}

func (m Model) renderDeleteConfirm() string {
	target := m.deleteTarget
	if target == nil {
		target = &store.Profile{}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Remove account"))
	b.WriteString("\n")
	b.WriteString("Remove " + activeStyle.Render(target.Name) + " <" + target.Email + ">?\n")
	if target.Active {
		b.WriteString(errorStyle.Render("This is the active account.") + "\n")
	}
	b.WriteString(dimStyle.Render("The SSH key file is kept on disk.") + "\n")
	b.WriteString("\n" + helpStyle.Render("y: remove | any other key: cancel"))
	return b.String()
}

func (m Model) renderProbing() string {
	return titleStyle.Render("Testing GitHub connection") + "\n" +
		dimStyle.Render("Running ssh -T "+m.user+"@"+m.host+" ...")
}

func (m Model) renderResult() string {
	var b strings.Builder
	if m.resultIsErr {
		b.WriteString(errorStyle.Render(m.resultTitle))
	} else {
		b.WriteString(okStyle.Render(m.resultTitle))
	}
	b.WriteString("\n")
	if m.resultBody != "" {
		b.WriteString("\n" + m.resultBody + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("any key: back to menu"))
	return b.String()
}
