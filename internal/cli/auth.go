package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE:  runLogout,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE:  runPassword,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	RunE:  runStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(passwordCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("name", "", "Your name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = prompt("Email: ")
	}
	password := promptPassword("Password: ")

	fmt.Println("🔄 Signing in...")
	id, err := a.session.Login(cmd.Context(), email, password)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("✅ Welcome, %s!\n", id.DisplayName())
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = prompt("Name: ")
	}
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = prompt("Email: ")
	}
	password := promptPassword("Password: ")
	if promptPassword("Confirm Password: ") != password {
		return errors.New("passwords do not match")
	}

	fmt.Println("🔄 Creating account...")
	id, err := a.session.Register(cmd.Context(), email, password, name)
	if err != nil {
		return userError(err)
	}

	fmt.Printf("✅ Account created. Welcome, %s!\n", id.DisplayName())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	if a.session.Identity() == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	if err := a.session.Logout(cmd.Context()); err != nil {
		return userError(err)
	}
	fmt.Println("✅ Signed out.")
	return nil
}

func runPassword(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	if _, err := a.identity(); err != nil {
		return err
	}

	password := promptPassword("New Password: ")
	if promptPassword("Confirm Password: ") != password {
		return errors.New("passwords do not match")
	}

	if err := a.session.ChangePassword(cmd.Context(), password); err != nil {
		return userError(err)
	}
	fmt.Println("✅ Password changed.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return userError(err)
	}
	defer a.Close()

	fmt.Printf("Server: %s\n", a.client.ServerURL())
	id := a.session.Identity()
	if id == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("Signed in as %s <%s>\n", id.DisplayName(), id.Email)
	if id.WeddingDate != nil {
		fmt.Printf("Wedding date: %s\n", id.WeddingDate)
	}
	return nil
}
