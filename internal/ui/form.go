package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/tturner/cipmsg/internal/cip/protocol"
	"github.com/tturner/cipmsg/internal/cip/route"
)

// ErrAborted is returned when the user leaves the form without submitting.
var ErrAborted = errors.New("request form aborted")

// RequestValues holds the fields of an interactive request. Values already
// set are used as defaults.
type RequestValues struct {
	Service         string
	Class           string
	Instance        string
	Attribute       string
	PayloadHex      string
	DataType        string
	Connected       bool
	UnconnectedSend bool
	Route           string
}

// NewRequestForm builds the form that edits v in place.
func NewRequestForm(v *RequestValues) *huh.Form {
	typeOptions := []huh.Option[string]{huh.NewOption("(raw bytes)", "")}
	for _, name := range protocol.DataTypeNames() {
		typeOptions = append(typeOptions, huh.NewOption(name, name))
	}

	target := huh.NewGroup(
		huh.NewInput().
			Title("Service").
			Description("Alias (get_attribute_single), number (0x0E) or hex:<bytes>.").
			Key("service").
			Value(&v.Service).
			Validate(validateService),
		huh.NewInput().
			Title("Class").
			Description("Alias (identity), number, hex:<bytes> or sym:<name>.").
			Key("class").
			Value(&v.Class).
			Validate(validateClass),
		huh.NewInput().
			Title("Instance").
			Key("instance").
			Value(&v.Instance).
			Validate(validateRequired),
		huh.NewInput().
			Title("Attribute (optional)").
			Key("attribute").
			Value(&v.Attribute).
			Validate(validateOptional),
	)

	body := huh.NewGroup(
		huh.NewInput().
			Title("Payload (hex, optional)").
			Key("payload").
			Value(&v.PayloadHex).
			Validate(validatePayload),
		huh.NewSelect[string]().
			Title("Decode reply as").
			Key("data_type").
			Options(typeOptions...).
			Value(&v.DataType),
		huh.NewConfirm().
			Title("Send over a connection (Forward Open)?").
			Key("connected").
			Value(&v.Connected),
	)

	unconnected := huh.NewGroup(
		huh.NewConfirm().
			Title("Wrap in Unconnected Send?").
			Key("unconnected_send").
			Value(&v.UnconnectedSend),
		huh.NewInput().
			Title("Route").
			Description("port/link pairs, e.g. 1/0; empty uses the default route.").
			Key("route").
			Value(&v.Route).
			Validate(validateRoute),
	).WithHideFunc(func() bool { return v.Connected })

	return huh.NewForm(target, body, unconnected)
}

type formModel struct {
	form *huh.Form
}

func (m formModel) Init() tea.Cmd { return m.form.Init() }

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateNormal {
		return m, tea.Quit
	}
	return m, cmd
}

func (m formModel) View() string {
	if m.form.State != huh.StateNormal {
		return ""
	}
	return m.form.View()
}

// RunRequestForm shows the request form on the terminal and fills v.
func RunRequestForm(v *RequestValues) error {
	final, err := tea.NewProgram(formModel{form: NewRequestForm(v)}).Run()
	if err != nil {
		return fmt.Errorf("run request form: %w", err)
	}
	if m, ok := final.(formModel); !ok || m.form.State != huh.StateCompleted {
		return ErrAborted
	}
	return nil
}

func validateService(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	_, err := protocol.ParseServiceAddress(s)
	return err
}

func validateClass(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	_, err := protocol.ParseClassAddress(s)
	return err
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	_, err := protocol.ParseAddress(s)
	return err
}

func validateOptional(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := protocol.ParseAddress(s)
	return err
}

func validatePayload(s string) error {
	_, err := protocol.ParseHex(s)
	return err
}

func validateRoute(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := route.Parse(s)
	return err
}
