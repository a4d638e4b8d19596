// ABOUTME: Bubbletea model for the git-hyper terminal menu
// ABOUTME: Holds view state, menu selection, and the add-account form

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/git-hyper/git-hyper/internal/account"
	"github.com/git-hyper/git-hyper/internal/run"
	"github.com/git-hyper/git-hyper/internal/sshkey"
	"github.com/git-hyper/git-hyper/internal/store"
)

// ViewState represents the current UI state.
type ViewState int

const (
	ViewMenu ViewState = iota
	ViewAddForm
	ViewAccountList    // list with selection; Enter activates
	ViewCurrent        // active account details with public key
	ViewDeleteSelect   // list with selection; Enter asks for confirmation
	ViewDeleteConfirm  // y/N confirmation dialog
	ViewProbing        // spinner-less wait while the ssh probe runs
	ViewResult         // outcome screen, any key returns to the menu
)

// menu entries in display order
const (
	menuAdd = iota
	menuSwitch
	menuList
	menuCurrent
	menuRemove
	menuProbe
	menuQuit
	menuCount
)

var menuLabels = [menuCount]string{
	"Add account",
	"Switch account",
	"List accounts",
	"Current account",
	"Remove account",
	"Test GitHub connection",
	"Quit",
}

// keyMode selects how the add form obtains a key.
type keyMode int

const (
	keyModeGenerate keyMode = iota
	keyModeExisting
)

// form input indexes
const (
	inputName = iota
	inputEmail
	inputKeyPath
	inputCount
)

// addForm holds the state of the add-account screen.
type addForm struct {
	inputs [inputCount]textinput.Model
	focus  int
	mode   keyMode
	errMsg string
}

// Model is the main TUI application model.
type Model struct {
	svc         *account.Service
	provisioner *sshkey.Provisioner
	runner      run.Runner

	host         string
	user         string
	probeTimeout time.Duration

	viewState ViewState
	menuIndex int
	width     int
	height    int

	// loaded data
	profiles []*store.Profile
	current  *store.Profile

	// selection state for list/delete views
	listIndex    int
	deleteTarget *store.Profile

	form addForm

	// result screen
	resultTitle string
	resultBody  string
	resultIsErr bool

	quitting bool
}

// New creates the TUI model wired to the activation service.
func New(svc *account.Service, provisioner *sshkey.Provisioner, runner run.Runner, host, user string, probeTimeout time.Duration) Model {
	m := Model{
		svc:          svc,
		provisioner:  provisioner,
		runner:       runner,
		host:         host,
		user:         user,
		probeTimeout: probeTimeout,
		viewState:    ViewMenu,
	}
	m.form = newAddForm()
	return m
}

func newAddForm() addForm {
	var f addForm

	name := textinput.New()
	name.Placeholder = "Jane Doe"
	name.CharLimit = 64
	name.Focus()
	f.inputs[inputName] = name

	email := textinput.New()
	email.Placeholder = "jane@example.com"
	email.CharLimit = 128
	f.inputs[inputEmail] = email

	keyPath := textinput.New()
	keyPath.Placeholder = "~/.ssh/id_ed25519"
	keyPath.CharLimit = 256
	f.inputs[inputKeyPath] = keyPath

	return f
}

// Init loads the profile list before the first render.
func (m Model) Init() tea.Cmd {
	return m.loadProfilesCmd()
}
