package commands

import (
	"bufio"
	"fmt"
	"os"
	"portalsync/internal/auth"
	"portalsync/internal/auth/chromedriver"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const password_env = "PORTALSYNC_PASSWORD"

var loginUsername *string

func init() {
	loginUsername = loginCmd.Flags().StringP("username", "u", "", "The portal user id, prompted for when empty.")
	rootCmd.AddCommand(loginCmd)
}

func readCredential() (auth.Credential, error) {
	username := *loginUsername
	if username == "" {
		fmt.Fprint(os.Stderr, "User id: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return auth.Credential{}, err
		}
		username = strings.TrimSpace(line)
	}

	password := os.Getenv(password_env)
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return auth.Credential{}, fmt.Errorf("set %s when stdin is not a terminal", password_env)
		}
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return auth.Credential{}, err
		}
		password = string(raw)
	}

	if username == "" || password == "" {
		return auth.Credential{}, fmt.Errorf("user id and password are required")
	}
	return auth.Credential{Username: username, Password: password}, nil
}

var loginCmd = &cobra.Command{
	Use:   "login [--username <user id>]",
	Short: "Signs in through the identity provider with a headless browser and stores the session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			cred, err := readCredential()
			if err != nil {
				return err
			}

			cfg := a.cfg
			driver, err := chromedriver.New(chromedriver.Options{
				Headless:  *cfg.Login.Headless,
				ExecPath:  cfg.Login.ChromePath,
				UserAgent: cfg.Portal.UserAgent,
			}, a.tel)
			if err != nil {
				return err
			}

			authenticator := auth.NewAuthenticator(auth.Options{
				LoginUrl:        cfg.Portal.LoginUrl,
				LandingPrefix:   cfg.Portal.LandingUrlPrefix,
				SessionCookie:   cfg.Portal.SessionCookie,
				Selectors:       auth.DefaultSelectors().WithOverrides(auth.Selectors(cfg.Selectors)),
				PollInterval:    cfg.Login.PollInterval(),
				SessionTimeout:  cfg.Login.SessionTimeout(),
				StallTimeout:    cfg.Login.StallTimeout(),
				LoginTimeout:    cfg.Login.LoginTimeout(),
				RecheckInterval: cfg.Login.RecheckInterval(),
			}, a.tel)

			// the attempt is cancelled with the command's context on interrupt
			attempt := authenticator.Login(cmd.Context(), cred, driver)
			token, err := attempt.Wait(func(ev auth.Event) {
				switch ev := ev.(type) {
				case auth.StateChanged:
					a.tel.ReportDebug("login state", ev.From.String(), ev.To.String())
				case auth.TwoFactorCodeAvailable:
					fmt.Fprintf(cmd.OutOrStdout(), "Approve the sign-in on your authenticator app with the number %s\n", ev.Code)
				}
			})
			if err != nil {
				return err
			}

			err = a.repo.SaveSession(cmd.Context(), token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		})
	},
}
