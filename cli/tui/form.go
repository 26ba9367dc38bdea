package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/formstep-io/formstep/form"
	"github.com/formstep-io/formstep/observe"
	"github.com/formstep-io/formstep/submit"
	"github.com/formstep-io/formstep/types"
	"github.com/formstep-io/formstep/validate"
)

// keyMap defines key bindings for the form runner.
type keyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextSlide key.Binding
	PrevSlide key.Binding
	Toggle    key.Binding
	Submit    key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "prev field"),
	),
	NextSlide: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "next slide"),
	),
	PrevSlide: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "prev slide"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle choice"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// submitResultMsg carries the outcome of an asynchronous submission.
type submitResultMsg struct {
	sub *submit.Submission
	err error
}

// FormModel is the Bubble Tea model driving one form instance.
type FormModel struct {
	form    *form.Form
	dots    *observe.Dots
	counter *observe.Counter

	input  textinput.Model
	focus  int
	errs   map[string]string
	status string

	submission *submit.Submission
	quitting   bool
	width      int
	height     int
}

// NewFormModel wires a model over a built form. Progress indicators are
// attached as observers and seeded with the current position.
func NewFormModel(f *form.Form) FormModel {
	dots := observe.NewDots()
	counter := observe.NewCounter()
	f.AddObserver(dots)
	f.AddObserver(counter)
	pos := f.Position()
	dots.OnSettle(pos)
	counter.OnSettle(pos)

	input := textinput.New()
	input.CharLimit = 256
	input.Width = 40

	m := FormModel{
		form:    f,
		dots:    dots,
		counter: counter,
		input:   input,
		errs:    make(map[string]string),
	}
	m.syncInput()
	return m
}

// Init implements tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case submitResultMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.submission = msg.sub
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.commitField()
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Submit):
			m.commitField()
			return m, m.submitCmd()

		case key.Matches(msg, keys.NextSlide):
			m.commitField()
			return m.advance()

		case key.Matches(msg, keys.PrevSlide):
			m.commitField()
			m.form.Prev()
			m.focus = 0
			m.errs = make(map[string]string)
			m.syncInput()
			return m, nil

		case key.Matches(msg, keys.NextField):
			m.commitField()
			m.moveFocus(1)
			return m, nil

		case key.Matches(msg, keys.PrevField):
			m.commitField()
			m.moveFocus(-1)
			return m, nil

		case key.Matches(msg, keys.Toggle):
			if f := m.focusedField(); f != nil && f.IsChoice() {
				m.toggleChoice(f)
				return m, nil
			}
		}
	}

	// Everything else goes to the text input when a text-like field has
	// focus.
	if f := m.focusedField(); f != nil && !f.IsChoice() && f.Type != types.FieldFile {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// advance validates (when the form does) and moves forward, or submits
// from the last slide.
func (m FormModel) advance() (tea.Model, tea.Cmd) {
	pos := m.form.Position()
	if pos.Current == pos.Total-1 {
		return m, m.submitCmd()
	}

	res, ok := m.form.Next()
	m.errs = make(map[string]string)
	if !ok {
		for _, fe := range res.Errors {
			m.errs[fe.FieldKey] = fe.Message
		}
		m.status = "fix the highlighted fields to continue"
		return m, nil
	}
	m.status = ""
	m.focus = 0
	m.syncInput()
	return m, nil
}

// submitCmd runs the submission off the event loop.
func (m FormModel) submitCmd() tea.Cmd {
	f := m.form
	return func() tea.Msg {
		sub, err := f.Submit(context.Background())
		return submitResultMsg{sub: sub, err: err}
	}
}

// currentSlide returns the committed slide, or nil for an empty form.
func (m *FormModel) currentSlide() *types.Slide {
	return m.form.CurrentSlide()
}

// focusedField returns the field under the cursor, or nil.
func (m *FormModel) focusedField() *types.Field {
	slide := m.currentSlide()
	if slide == nil || m.focus < 0 || m.focus >= len(slide.Fields) {
		return nil
	}
	return &slide.Fields[m.focus]
}

// moveFocus shifts field focus by delta, wrapping within the slide.
func (m *FormModel) moveFocus(delta int) {
	slide := m.currentSlide()
	if slide == nil || len(slide.Fields) == 0 {
		return
	}
	n := len(slide.Fields)
	m.focus = ((m.focus+delta)%n + n) % n
	m.syncInput()
}

// syncInput points the text input at the focused field's current value.
func (m *FormModel) syncInput() {
	f := m.focusedField()
	if f == nil || f.IsChoice() || f.Type == types.FieldFile {
		m.input.Blur()
		return
	}
	m.input.SetValue(m.fieldText(f))
	m.input.Placeholder = f.Label
	m.input.Focus()
	m.input.CursorEnd()
}

// commitField records the text input's value for the focused field.
func (m *FormModel) commitField() {
	f := m.focusedField()
	slide := m.currentSlide()
	if f == nil || slide == nil || f.IsChoice() || f.Type == types.FieldFile {
		return
	}
	err := m.form.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: slide.ID,
		Field:   f.Name,
		Value:   m.input.Value(),
	})
	if err != nil {
		m.status = err.Error()
	}
}

// toggleChoice flips a radio or checkbox field.
func (m *FormModel) toggleChoice(f *types.Field) {
	slide := m.currentSlide()
	if slide == nil {
		return
	}
	checked := true
	if f.Type == types.FieldCheckbox && m.fieldSelected(slide, f) {
		checked = false
	}
	err := m.form.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: slide.ID,
		Field:   f.Name,
		Checked: checked,
	})
	if err != nil {
		m.status = err.Error()
	}
}

// fieldSelected reports whether a choice field's option is in the
// snapshot.
func (m *FormModel) fieldSelected(slide *types.Slide, f *types.Field) bool {
	vals := m.form.Snapshot()[slide.ID]
	if vals == nil {
		return false
	}
	switch f.Type {
	case types.FieldRadio:
		v, _ := vals[f.SnapshotKey()].(string)
		return v != "" && v == f.Choice
	case types.FieldCheckbox:
		set, _ := vals[f.SnapshotKey()].([]string)
		return slices.Contains(set, f.Choice)
	}
	return false
}

// fieldText returns the snapshot value of a text-like field.
func (m *FormModel) fieldText(f *types.Field) string {
	slide := m.currentSlide()
	if slide == nil {
		return ""
	}
	vals := m.form.Snapshot()[slide.ID]
	if vals == nil {
		return ""
	}
	v, ok := vals[f.SnapshotKey()]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// View implements tea.Model.
func (m FormModel) View() string {
	if m.quitting {
		return ""
	}
	if m.submission != nil {
		return m.viewSubmitted()
	}

	slide := m.currentSlide()
	if slide == nil {
		return BoxStyle.Render("This form has no slides.")
	}

	var b strings.Builder
	title := slide.Title
	if title == "" {
		title = slide.ID
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	for i := range slide.Fields {
		f := &slide.Fields[i]
		b.WriteString(m.renderField(slide, f, i == m.focus))
		b.WriteString("\n")
		if msg, ok := m.errs[f.SnapshotKey()]; ok {
			b.WriteString(ErrorStyle.Render("  ✗ " + msg))
			b.WriteString("\n")
		}
	}

	content := BoxStyle.Render(b.String())
	progress := ProgressStyle.Render(fmt.Sprintf("%s  %s", m.dots.View(), m.counter.View()))

	var status string
	if m.status != "" {
		status = "\n" + ErrorStyle.Render(m.status)
	}
	help := HelpStyle.Render("tab: field · enter: next · ctrl+p: back · space: toggle · ctrl+s: submit · ctrl+c: quit")

	return content + "\n" + progress + status + "\n" + help
}

// renderField renders one field row.
func (m FormModel) renderField(slide *types.Slide, f *types.Field, focused bool) string {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	labelStyle := LabelStyle
	if focused {
		labelStyle = FocusedLabelStyle
	}

	switch {
	case f.IsChoice():
		mark := "( )"
		if f.Type == types.FieldCheckbox {
			mark = "[ ]"
		}
		if m.fieldSelected(slide, f) {
			if f.Type == types.FieldCheckbox {
				mark = "[x]"
			} else {
				mark = "(•)"
			}
		}
		return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), ValueStyle.Render(mark+" "+f.Choice))

	case f.Type == types.FieldFile:
		return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), ValueStyle.Render(m.fieldText(f)))

	default:
		if focused {
			return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), m.input.View())
		}
		return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), ValueStyle.Render(m.fieldText(f)))
	}
}

// viewSubmitted renders the confirmation screen.
func (m FormModel) viewSubmitted() string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render("✓ Form submitted"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Submission ID:"),
		ValueStyle.Render(m.submission.SubmissionID)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Submitted at:"),
		ValueStyle.Render(m.submission.SubmittedAt)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Slides with data:"),
		ValueStyle.Render(fmt.Sprintf("%d", len(m.submission.Data)))))

	help := HelpStyle.Render("Press ctrl+c to quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

// Run starts the interactive form runner.
func Run(f *form.Form) error {
	p := tea.NewProgram(NewFormModel(f), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
