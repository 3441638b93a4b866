package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password (signs out every other session)",
	RunE:  runPasswd,
}

var (
	authEmail string
	authName  string
)

func init() {
	registerCmd.Flags().StringVar(&authEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&authName, "name", "", "display name (defaults to the email's local part)")
	loginCmd.Flags().StringVar(&authEmail, "email", "", "account email")
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, err := promptLine(cmd, "Email: ", authEmail)
	if err != nil {
		return err
	}
	password, err := promptSecret(cmd, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret(cmd, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	u, err := c.Register(ctx, email, password, authName)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	out(cmd, "Registered and signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, err := promptLine(cmd, "Email: ", authEmail)
	if err != nil {
		return err
	}
	password, err := promptSecret(cmd, "Password: ")
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	u, err := c.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	out(cmd, "Signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := c.Logout(ctx); err != nil {
		return err
	}
	out(cmd, "Signed out\n")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	u, err := c.Me(ctx)
	if err != nil {
		return err
	}
	out(cmd, "%s <%s>\nid: %s\nsince: %s\n", u.Name, u.Email, u.ID, u.CreatedAt.Format("2006-01-02"))
	return nil
}

func runPasswd(cmd *cobra.Command, args []string) error {
	current, err := promptSecret(cmd, "Current password: ")
	if err != nil {
		return err
	}
	next, err := promptSecret(cmd, "New password: ")
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := c.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	out(cmd, "Password updated; other sessions were signed out\n")
	return nil
}

// promptLine returns preset when set, otherwise reads one line.
func promptLine(cmd *cobra.Command, label, preset string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	out(cmd, "%s", label)
	line, err := lineReader(cmd).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(cmd *cobra.Command, label string) (string, error) {
	out(cmd, "%s", label)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		out(cmd, "\n")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := lineReader(cmd).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var (
	inSrc    io.Reader
	inReader *bufio.Reader
)

// lineReader shares one buffered reader per input so consecutive prompts
// do not lose piped lines.
func lineReader(cmd *cobra.Command) *bufio.Reader {
	if src := cmd.InOrStdin(); src != inSrc {
		inSrc = src
		inReader = bufio.NewReader(src)
	}
	return inReader
}
