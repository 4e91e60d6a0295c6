package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aanand-mishra/student-records/internal/tui"
	"github.com/aanand-mishra/student-records/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.Primary).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(tui.Border)
)

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderList(students []types.Student) string {
	t := newTable().Headers("ID", "Name", "Email", "Phone", "City", "Enrolled")
	for _, s := range students {
		t.Row(
			fmt.Sprint(s.StudentID),
			s.FullName(),
			s.Email,
			types.StringValue(s.Phone),
			types.StringValue(s.City),
			s.EnrollmentDate.Format(types.DateLayout),
		)
	}
	return t.Render()
}

func renderStudent(s types.Student) string {
	dob := ""
	if s.DateOfBirth != nil {
		dob = s.DateOfBirth.String()
	}
	return newTable().
		Headers("Field", "Value").
		Row("ID", fmt.Sprint(s.StudentID)).
		Row("First Name", s.FirstName).
		Row("Last Name", s.LastName).
		Row("Email", s.Email).
		Row("Phone", types.StringValue(s.Phone)).
		Row("Date of Birth", dob).
		Row("Address", types.StringValue(s.Address)).
		Row("City", types.StringValue(s.City)).
		Row("State", types.StringValue(s.State)).
		Row("Zip Code", types.StringValue(s.ZipCode)).
		Row("Enrolled", s.EnrollmentDate.Format(types.DateLayout)).
		Row("Active", fmt.Sprint(s.IsActive)).
		Render()
}
