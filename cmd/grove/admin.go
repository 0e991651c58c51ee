package main

import (
	"errors"
	"net/mail"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/service"
)

func newAdminCmd(cfgPath *string) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var (
		email, password string
		promote         bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account, prompting for missing details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := promptCredentials(&email, &password); err != nil {
				return err
			}
			e, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer e.Close()
			outcome, err := e.app.Auth.CreateAdmin(email, password, promote)
			if err != nil {
				return err
			}
			switch outcome {
			case service.AdminPromoted:
				cmd.Printf("existing user %s promoted to admin\n", email)
			case service.AdminExisting:
				cmd.Printf("%s is already an admin\n", email)
			default:
				cmd.Printf("admin %s created\n", email)
			}
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "admin email")
	create.Flags().StringVar(&password, "password", "", "admin password (prompted when empty)")
	create.Flags().BoolVar(&promote, "promote", false, "grant admin to an existing regular account")
	admin.AddCommand(create)
	return admin
}

func promptCredentials(email, password *string) error {
	var qs []*survey.Question
	if *email == "" {
		qs = append(qs, &survey.Question{
			Name:   "email",
			Prompt: &survey.Input{Message: "Admin email:"},
			Validate: func(v interface{}) error {
				if _, err := mail.ParseAddress(v.(string)); err != nil {
					return errors.New("not a valid email address")
				}
				return nil
			},
		})
	}
	if *password == "" {
		qs = append(qs, &survey.Question{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Admin password:"},
			Validate: survey.MinLength(8),
		})
	}
	if len(qs) == 0 {
		return nil
	}
	answers := struct {
		Email    string `survey:"email"`
		Password string `survey:"password"`
	}{Email: *email, Password: *password}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	*email, *password = answers.Email, answers.Password
	return nil
}
