package cli

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/services"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account without going through the register page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if name == "" {
			if name, err = ask("Name", false); err != nil {
				return err
			}
		}
		if email == "" {
			if email, err = ask("Email", false); err != nil {
				return err
			}
		}
		password, err := ask("Password", true)
		if err != nil {
			return err
		}
		confirm, err := ask("Confirm password", true)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.close()

		user, err := services.NewAuthService(st.users, log).Register(ctx, services.RegisterInput{
			Name:            name,
			Email:           email,
			Password:        password,
			ConfirmPassword: confirm,
		})
		if err != nil {
			return err
		}

		log.Info("✅ User created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("email", "", "login email")
}

func ask(label string, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if s == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}
	if secret {
		prompt.Mask = '*'
	}

	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", label, err)
	}
	return value, nil
}
