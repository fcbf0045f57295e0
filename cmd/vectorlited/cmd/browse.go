package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vectorlite/vectorlite/internal/store"
	"github.com/vectorlite/vectorlite/internal/ui"
	"github.com/vectorlite/vectorlite/internal/vstore"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse libraries and chunks interactively",
		Long: `browse opens a read-only terminal UI over the vector database:
select a library to see its chunks, and a chunk to see its full text and
metadata.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openVectorDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to open vector database: %w", err)
			}
			defer db.Close()

			if !ui.IsTTY(cmd.OutOrStdout()) {
				return fmt.Errorf("browse requires an interactive terminal")
			}

			p := tea.NewProgram(newBrowseModel(db), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type browsePane int

const (
	paneLibraries browsePane = iota
	paneChunks
)

// libraryItem and chunkItem adapt store types to bubbles/list.Item.

type libraryItem struct {
	lib store.Library
}

func (i libraryItem) Title() string { return i.lib.Name }
func (i libraryItem) Description() string {
	return fmt.Sprintf("id: %s", i.lib.ID)
}
func (i libraryItem) FilterValue() string { return i.lib.Name }

type chunkItem struct {
	chunk store.Chunk
}

func (i chunkItem) Title() string {
	text := strings.ReplaceAll(i.chunk.Text, "\n", " ")
	if len(text) > 72 {
		text = text[:72] + "…"
	}
	return text
}
func (i chunkItem) Description() string {
	return fmt.Sprintf("chunk %s, document %s", i.chunk.ID, i.chunk.DocumentID)
}
func (i chunkItem) FilterValue() string { return i.chunk.Text }

// browseModel drives the two-pane library/chunk browser.
type browseModel struct {
	db     *vstore.VectorDB
	pane   browsePane
	styles ui.Styles

	libraries list.Model
	chunks    list.Model

	selectedLibrary string
	err             error
}

func newBrowseModel(db *vstore.VectorDB) *browseModel {
	styles := ui.GetStyles(ui.DetectNoColor())

	libs := db.ListLibraries()
	items := make([]list.Item, len(libs))
	for i, lib := range libs {
		items[i] = libraryItem{lib: lib}
	}

	libList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	libList.Title = "Libraries"
	libList.Styles.Title = styles.Header

	chunkList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	chunkList.Title = "Chunks"
	chunkList.Styles.Title = styles.Header

	return &browseModel{
		db:        db,
		pane:      paneLibraries,
		styles:    styles,
		libraries: libList,
		chunks:    chunkList,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := msg.Width, msg.Height-2
		m.libraries.SetSize(h, v)
		m.chunks.SetSize(h, v)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.pane == paneChunks {
				m.pane = paneLibraries
				return m, nil
			}

		case "enter":
			if m.pane == paneLibraries {
				return m.openSelectedLibrary()
			}
		}
	}

	var cmd tea.Cmd
	if m.pane == paneLibraries {
		m.libraries, cmd = m.libraries.Update(msg)
	} else {
		m.chunks, cmd = m.chunks.Update(msg)
	}
	return m, cmd
}

func (m *browseModel) openSelectedLibrary() (tea.Model, tea.Cmd) {
	item, ok := m.libraries.SelectedItem().(libraryItem)
	if !ok {
		return m, nil
	}

	chunks, err := m.db.ListChunks(item.lib.ID)
	if err != nil {
		m.err = err
		return m, nil
	}

	items := make([]list.Item, len(chunks))
	for i, c := range chunks {
		items[i] = chunkItem{chunk: c}
	}
	m.chunks.SetItems(items)
	m.chunks.Title = fmt.Sprintf("Chunks in %s", item.lib.Name)
	m.selectedLibrary = item.lib.ID
	m.pane = paneChunks
	return m, nil
}

func (m *browseModel) View() string {
	help := m.styles.Dim.Render("enter: open  esc: back  q: quit")

	if m.err != nil {
		return m.styles.Error.Render(m.err.Error()) + "\n" + help
	}

	var body string
	if m.pane == paneLibraries {
		body = m.libraries.View()
	} else {
		body = m.chunks.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}
