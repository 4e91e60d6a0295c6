package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aanand-mishra/student-records/internal/client"
	"github.com/aanand-mishra/student-records/internal/state"
	"github.com/aanand-mishra/student-records/internal/tui"
	"github.com/aanand-mishra/student-records/internal/types"
)

var _ state.API = (*client.Client)(nil)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all students, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := a.client.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			if len(students) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No students found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderList(students))
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.client.GetStudent(cmd.Context(), id)
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("student %d not found", id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStudent(*s))
			return nil
		},
	}
}

// studentFlags binds one flag per CreateStudentDto field.
type studentFlags struct {
	firstName string
	lastName  string
	email     string
	phone     string
	dob       string
	address   string
	city      string
	state     string
	zip       string
}

func (f *studentFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.firstName, "first-name", "", "First name")
	fs.StringVar(&f.lastName, "last-name", "", "Last name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.phone, "phone", "", "Phone number")
	fs.StringVar(&f.dob, "dob", "", "Date of birth (YYYY-MM-DD)")
	fs.StringVar(&f.address, "address", "", "Street address")
	fs.StringVar(&f.city, "city", "", "City")
	fs.StringVar(&f.state, "state", "", "State")
	fs.StringVar(&f.zip, "zip", "", "Zip code")
}

// apply copies every flag that was set on the command line into dto.
// An explicitly empty optional flag clears the field.
func (f *studentFlags) apply(fs *pflag.FlagSet, dto *types.CreateStudentDto) error {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("first-name", func() { dto.FirstName = f.firstName })
	set("last-name", func() { dto.LastName = f.lastName })
	set("email", func() { dto.Email = f.email })
	set("phone", func() { dto.Phone = types.StringPtr(f.phone) })
	set("address", func() { dto.Address = types.StringPtr(f.address) })
	set("city", func() { dto.City = types.StringPtr(f.city) })
	set("state", func() { dto.State = types.StringPtr(f.state) })
	set("zip", func() { dto.ZipCode = types.StringPtr(f.zip) })

	if fs.Changed("dob") {
		if f.dob == "" {
			dto.DateOfBirth = nil
			return nil
		}
		d, err := types.ParseDate(f.dob)
		if err != nil {
			return fmt.Errorf("--dob: %w", err)
		}
		dto.DateOfBirth = &d
	}
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var flags studentFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dto types.CreateStudentDto
			if err := flags.apply(cmd.Flags(), &dto); err != nil {
				return err
			}
			created, err := a.client.CreateStudent(cmd.Context(), dto)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created student %d\n", created.StudentID)
			fmt.Fprintln(cmd.OutOrStdout(), renderStudent(created))
			return nil
		},
	}

	flags.bind(cmd.Flags())
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var flags studentFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a student; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.client.GetStudent(cmd.Context(), id)
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("student %d not found", id)
			}

			dto := dtoFrom(*current)
			if err := flags.apply(cmd.Flags(), &dto); err != nil {
				return err
			}
			updated, err := a.client.UpdateStudent(cmd.Context(), id, dto.ForUpdate(id))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated student %d\n", id)
			if updated != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderStudent(*updated))
			}
			return nil
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteStudent(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %d\n", id)
			return nil
		},
	}
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), state.NewStore(a.client))
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid student ID %q", s)
	}
	return id, nil
}

func dtoFrom(s types.Student) types.CreateStudentDto {
	return types.CreateStudentDto{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Phone:       s.Phone,
		DateOfBirth: s.DateOfBirth,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		ZipCode:     s.ZipCode,
	}
}
