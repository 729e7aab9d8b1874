package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var req struct {
		Email                string `json:"email"`
		Handle               string `json:"handle"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
		StudentID            string `json:"student_id"`
		LastName             string `json:"last_name"`
		FirstName            string `json:"first_name"`
		Birthday             string `json:"birthday"`
	}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an account linked to a student record",
		Long: `Register a new account. The student id, names and birthday must match
a record imported by an administrator. The token is saved on success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.PasswordConfirmation == "" {
				req.PasswordConfirmation = req.Password
			}

			var result AuthResult
			if err := client.Post(cmd.Context(), "/api/v1/register", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Handle, "handle", "", "Login handle")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	cmd.Flags().StringVar(&req.PasswordConfirmation, "password-confirmation", "", "Password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&req.StudentID, "student-id", "", "Student id from the roster")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name as on the roster")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name as on the roster")
	cmd.Flags().StringVar(&req.Birthday, "birthday", "", "Birthday (YYYY-MM-DD)")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var handle, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if handle == "" || password == "" {
				return errors.New("--handle and --password are required")
			}

			body := map[string]string{"handle": handle, "password": password}
			var result AuthResult
			if err := client.Post(cmd.Context(), "/api/v1/login", body, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "Login handle")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), "/api/v1/logout", nil, nil); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Logged out.")
			return nil
		},
	}
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result User
			if err := client.Get(cmd.Context(), "/api/v1/user", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
