package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aanand-mishra/student-records/internal/types"
)

type field int

const (
	fieldFirstName field = iota
	fieldLastName
	fieldEmail
	fieldPhone
	fieldDateOfBirth
	fieldAddress
	fieldCity
	fieldState
	fieldZipCode
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"First Name *", "Last Name *", "Email *", "Phone", "Date of Birth",
	"Address", "City", "State", "Zip Code",
}

var fieldLimits = [fieldCount]int{50, 50, 100, 20, 10, 200, 50, 50, 10}

// form edits one CreateStudentDto.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  field
	err    string
}

func newForm() form {
	var f form
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = fieldLimits[i]
		f.inputs[i] = ti
	}
	f.inputs[fieldDateOfBirth].Placeholder = "YYYY-MM-DD"
	f.inputs[fieldFirstName].Focus()
	return f
}

// load fills the inputs from s; a nil s clears them.
func (f *form) load(s *types.Student) {
	*f = newForm()
	if s == nil {
		return
	}
	f.inputs[fieldFirstName].SetValue(s.FirstName)
	f.inputs[fieldLastName].SetValue(s.LastName)
	f.inputs[fieldEmail].SetValue(s.Email)
	f.inputs[fieldPhone].SetValue(types.StringValue(s.Phone))
	if s.DateOfBirth != nil {
		f.inputs[fieldDateOfBirth].SetValue(s.DateOfBirth.String())
	}
	f.inputs[fieldAddress].SetValue(types.StringValue(s.Address))
	f.inputs[fieldCity].SetValue(types.StringValue(s.City))
	f.inputs[fieldState].SetValue(types.StringValue(s.State))
	f.inputs[fieldZipCode].SetValue(types.StringValue(s.ZipCode))
}

func (f *form) setFocus(to field) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (to + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *form) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

func (f *form) lastFocused() bool { return f.focus == fieldCount-1 }

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) value(i field) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// dto converts the inputs. Only the date is checked here; every other
// rule is enforced by the API.
func (f *form) dto() (types.CreateStudentDto, error) {
	dto := types.CreateStudentDto{
		FirstName: f.value(fieldFirstName),
		LastName:  f.value(fieldLastName),
		Email:     f.value(fieldEmail),
		Phone:     types.StringPtr(f.value(fieldPhone)),
		Address:   types.StringPtr(f.value(fieldAddress)),
		City:      types.StringPtr(f.value(fieldCity)),
		State:     types.StringPtr(f.value(fieldState)),
		ZipCode:   types.StringPtr(f.value(fieldZipCode)),
	}
	if raw := f.value(fieldDateOfBirth); raw != "" {
		d, err := types.ParseDate(raw)
		if err != nil {
			return dto, errors.New("date of birth must be YYYY-MM-DD")
		}
		dto.DateOfBirth = &d
	}
	return dto, nil
}

func (f *form) view(st Styles) string {
	var b strings.Builder
	for i := range f.inputs {
		label := st.FieldLabel
		if field(i) == f.focus {
			label = st.Focused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(st.Danger.Render(f.err))
		b.WriteString("\n")
	}
	return b.String()
}
