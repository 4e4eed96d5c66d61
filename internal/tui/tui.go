// Package tui provides an interactive BubbleTea browser over a LITERTLM
// archive's section table.
//
// Layout:
//
//	┌──────────────────────────────────────────────────┐
//	│  litertlm-inspect  archive.litertlm   2/2 sections │  ← header
//	│  filter input                                    │  ← filter line
//	│  ──────────────────────────────────────────────  │  ← divider
//	│   0  TFLiteModel        16384..20480             │  ← section list
//	│   1  SP_Tokenizer       32768..33024             │    (cursor row highlighted)
//	│  ──────────────────────────────────────────────  │  ← divider
//	│  name: tf_lite_prefill_decode                    │  ← selected section's metadata
//	│  ──────────────────────────────────────────────  │  ← divider
//	│  ↑↓ nav  / filter  esc clear/quit  q quit        │  ← status bar
//	└──────────────────────────────────────────────────┘
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litert-lm/litertlm-go/internal/container"
	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
)

var (
	colorAccent  = lipgloss.Color("#7C6AF7")
	colorDim     = lipgloss.Color("#555555")
	colorMuted   = lipgloss.Color("#888888")
	colorText    = lipgloss.Color("#DDDDDD")
	colorSubdued = lipgloss.Color("#444444")
	colorScore   = lipgloss.Color("#5ECEF5")
	colorErr     = lipgloss.Color("#FF6B6B")

	sTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	sDim     = lipgloss.NewStyle().Foreground(colorDim)
	sMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	sOffset  = lipgloss.NewStyle().Foreground(colorScore)
	sErr     = lipgloss.NewStyle().Foreground(colorErr)
	sSel     = lipgloss.NewStyle().Background(lipgloss.Color("#1E1A3A")).Foreground(colorText)
	sHint    = lipgloss.NewStyle().Foreground(colorDim).Background(lipgloss.Color("#111111"))
	sDivider = lipgloss.NewStyle().Foreground(colorSubdued)
)

func dataTypeName(dt fbschema.AnySectionDataType) string {
	switch dt {
	case fbschema.DataTypeTFLiteModel:
		return "TFLiteModel"
	case fbschema.DataTypeSPTokenizer:
		return "SP_Tokenizer"
	case fbschema.DataTypeLlmMetadataProto:
		return "LlmMetadataProto"
	case fbschema.DataTypeGenericBinaryData:
		return "GenericBinaryData"
	case fbschema.DataTypeHFTokenizerZlib:
		return "HF_Tokenizer_Zlib"
	case fbschema.DataTypeDeprecated:
		return "Deprecated"
	default:
		return "None"
	}
}

// Model is the BubbleTea application model for browsing one archive.
type Model struct {
	path     string
	reader   *container.Reader
	filter   textinput.Model
	filtered []int // indices into reader's section list, or nil meaning all
	cursor   int
	width    int
	height   int
	err      error
}

// New creates a browser model over an already-open reader.
func New(path string, reader *container.Reader) Model {
	ti := textinput.New()
	ti.Placeholder = "filter by type or metadata…"
	ti.Prompt = "/ "
	ti.PromptStyle = sAccent
	ti.CharLimit = 128
	ti.Width = 40
	return Model{path: path, reader: reader, filter: ti}
}

// Init is the BubbleTea init hook; nothing needs to happen asynchronously.
func (m Model) Init() tea.Cmd { return nil }

func (m *Model) visible() []int {
	if m.filtered != nil {
		return m.filtered
	}
	all := make([]int, m.reader.NumSections())
	for i := range all {
		all[i] = i
	}
	return all
}

func (m *Model) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		m.filtered = nil
		m.cursor = 0
		return
	}
	var out []int
	for i := 0; i < m.reader.NumSections(); i++ {
		s, err := m.reader.Section(i)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(dataTypeName(s.DataType)), q) {
			out = append(out, i)
			continue
		}
		for _, kv := range s.Items {
			if strings.Contains(strings.ToLower(kv.Key), q) || strings.Contains(strings.ToLower(formatValue(kv.Value)), q) {
				out = append(out, i)
				break
			}
		}
	}
	m.filtered = out
	m.cursor = 0
}

// Update processes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.Width = clamp(m.width-12, 10, 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit
		case "esc":
			if m.filter.Focused() {
				m.filter.Blur()
				return m, nil
			}
			return m, tea.Quit
		case "/":
			if !m.filter.Focused() {
				m.filter.Focus()
				return m, textinput.Blink
			}
		case "q":
			if !m.filter.Focused() {
				return m, tea.Quit
			}
		case "up", "ctrl+p":
			if !m.filter.Focused() && m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if !m.filter.Focused() && m.cursor < len(m.visible())-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			m.filter.Blur()
			return m, nil
		}
	}

	if m.filter.Focused() {
		prev := m.filter.Value()
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != prev {
			m.applyFilter()
		}
		return m, cmd
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	divider := sDivider.Render(strings.Repeat("─", clamp(m.width-2, 10, 200)))

	left := "  " + sTitle.Render("litertlm-inspect") + "  " + sMuted.Render(m.path)
	right := sDim.Render(fmt.Sprintf("%d/%d sections", len(m.visible()), m.reader.NumSections()))
	fmt.Fprintln(&b, padBetween(left, right, m.width))
	fmt.Fprintln(&b, "  "+m.filter.View())
	fmt.Fprintln(&b, "  "+divider)

	visible := m.visible()
	for pos, i := range visible {
		s, err := m.reader.Section(i)
		if err != nil {
			fmt.Fprintln(&b, sErr.Render(fmt.Sprintf("  %d  error: %v", i, err)))
			continue
		}
		line := fmt.Sprintf("  %2d  %-18s %s", i, dataTypeName(s.DataType),
			sOffset.Render(fmt.Sprintf("%d..%d", s.BeginOffset, s.EndOffset)))
		if pos == m.cursor {
			line = sSel.Render(line)
		}
		fmt.Fprintln(&b, line)
	}
	if len(visible) == 0 {
		fmt.Fprintln(&b, sMuted.Render("  no sections match"))
	}

	fmt.Fprintln(&b, "  "+divider)
	selectedIdx := -1
	if m.cursor < len(visible) {
		selectedIdx = visible[m.cursor]
	}
	if s, err := m.reader.Section(selectedIdx); err == nil {
		if len(s.Items) == 0 {
			fmt.Fprintln(&b, sMuted.Render("  (no metadata)"))
		}
		for _, kv := range s.Items {
			fmt.Fprintf(&b, "  %s: %s\n", sDim.Render(kv.Key), formatValue(kv.Value))
		}
	}

	fmt.Fprintln(&b, "  "+divider)
	fmt.Fprint(&b, sHint.Render("  ↑↓ nav  / filter  esc clear/quit  q quit  "))
	return b.String()
}

func formatValue(v fbschema.Value) string {
	switch v.Kind {
	case fbschema.ValueString:
		return v.Str
	case fbschema.ValueInt32:
		return fmt.Sprintf("%d", v.I32)
	case fbschema.ValueInt64:
		return fmt.Sprintf("%d", v.I64)
	case fbschema.ValueUInt32:
		return fmt.Sprintf("%d", v.U32)
	case fbschema.ValueUInt64:
		return fmt.Sprintf("%d", v.U64)
	case fbschema.ValueFloat32:
		return fmt.Sprintf("%g", v.F32)
	case fbschema.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return ""
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padBetween(left, right string, width int) string {
	lv := visibleLen(left)
	rv := visibleLen(right)
	gap := width - lv - rv - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, c := range s {
		if c == '\x1b' {
			inEsc = true
		}
		if inEsc {
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
