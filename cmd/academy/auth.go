package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/forms"
)

func (e *appEnv) authCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "sign in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email"},
				&cli.StringFlag{Name: "password", Usage: "read from stdin when omitted"},
			},
			Action: e.login,
		},
		{
			Name:  "register",
			Usage: "create an account and sign in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "full name"},
				&cli.StringFlag{Name: "email"},
				&cli.StringFlag{Name: "password", Usage: "read from stdin when omitted"},
			},
			Action: e.register,
		},
		{
			Name:   "logout",
			Usage:  "sign out",
			Action: e.logout,
		},
		{
			Name:   "whoami",
			Usage:  "confirm the session with the backend and greet the user",
			Action: e.whoami,
		},
		{
			Name:  "reset",
			Usage: "reset a forgotten password",
			Subcommands: []*cli.Command{
				{
					Name:   "request",
					Usage:  "email a reset code",
					Flags:  []cli.Flag{&cli.StringFlag{Name: "email"}},
					Action: e.resetRequest,
				},
				{
					Name:  "verify",
					Usage: "check a reset code",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "email"},
						&cli.StringFlag{Name: "code"},
					},
					Action: e.resetVerify,
				},
				{
					Name:  "complete",
					Usage: "set the new password and sign in",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "email"},
						&cli.StringFlag{Name: "code"},
						&cli.StringFlag{Name: "password"},
						&cli.StringFlag{Name: "confirm", Usage: "repeat the new password"},
					},
					Action: e.resetComplete,
				},
			},
		},
		{
			Name:  "account",
			Usage: "manage your own profile",
			Subcommands: []*cli.Command{
				{
					Name:  "update",
					Usage: "change name or email",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name"},
						&cli.StringFlag{Name: "email"},
					},
					Action: e.accountUpdate,
				},
				{
					Name:  "password",
					Usage: "change password",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "current"},
						&cli.StringFlag{Name: "new"},
						&cli.StringFlag{Name: "repeat"},
					},
					Action: e.accountPassword,
				},
			},
		},
	}
}

func (e *appEnv) login(c *cli.Context) error {
	ctx := c.Context
	form := forms.Login{
		Email:    e.prompt(c.String("email"), "Email"),
		Password: e.prompt(c.String("password"), "Password"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	sess, err := e.session(ctx)
	if err != nil {
		return err
	}

	user, err := e.client.Login(ctx, api.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		return check(forms.LoginCodes.Map(err))
	}
	if err := sess.Login(ctx, user); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintln(e.out, sess.Greeting())
	return nil
}

func (e *appEnv) register(c *cli.Context) error {
	ctx := c.Context
	form := forms.Register{
		FullName: e.prompt(c.String("name"), "Full name"),
		Email:    e.prompt(c.String("email"), "Email"),
		Password: e.prompt(c.String("password"), "Password"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	sess, err := e.session(ctx)
	if err != nil {
		return err
	}

	user, err := e.client.Register(ctx, api.Registration{FullName: form.FullName, Email: form.Email, Password: form.Password})
	if err != nil {
		return check(forms.RegisterCodes.Map(err))
	}
	if err := sess.Login(ctx, user); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintln(e.out, sess.Greeting())
	return nil
}

func (e *appEnv) logout(c *cli.Context) error {
	sess, err := e.session(c.Context)
	if err != nil {
		return err
	}
	sess.Logout(c.Context)
	fmt.Fprintln(e.out, sess.Greeting())
	return nil
}

func (e *appEnv) whoami(c *cli.Context) error {
	ctx := c.Context
	sess, err := e.session(ctx)
	if err != nil {
		return err
	}
	if sess.IsAuthenticated() {
		if err := sess.Revalidate(ctx); err != nil {
			e.logger.Debug("revalidation failed", "error", err)
		}
	}
	fmt.Fprintln(e.out, sess.Greeting())
	if u, ok := sess.User(); ok {
		fmt.Fprintf(e.out, "%s <%s> role=%s lives=%d\n", u.FullName, u.Email, sess.Role(), u.Lives)
	}
	return nil
}

func (e *appEnv) resetRequest(c *cli.Context) error {
	form := forms.ResetRequest{Email: e.prompt(c.String("email"), "Email")}
	if err := check(form.Validate()); err != nil {
		return err
	}
	if err := e.client.RequestReset(c.Context, form.Email); err != nil {
		return check(forms.ResetRequestCodes.Map(err))
	}
	fmt.Fprintf(e.out, "A reset code was sent to %s\n", form.Email)
	return nil
}

func (e *appEnv) resetVerify(c *cli.Context) error {
	form := forms.ResetVerify{
		Email: e.prompt(c.String("email"), "Email"),
		Code:  e.prompt(c.String("code"), "Code"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	if err := e.client.VerifyReset(c.Context, form.Email, form.Code); err != nil {
		return check(forms.ResetVerifyCodes.Map(err))
	}
	fmt.Fprintln(e.out, "Code accepted")
	return nil
}

func (e *appEnv) resetComplete(c *cli.Context) error {
	ctx := c.Context
	email := e.prompt(c.String("email"), "Email")
	code := e.prompt(c.String("code"), "Code")
	form := forms.ResetComplete{
		Password:        e.prompt(c.String("password"), "New password"),
		ConfirmPassword: e.prompt(c.String("confirm"), "Repeat password"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	sess, err := e.session(ctx)
	if err != nil {
		return err
	}
	user, err := e.client.CompleteReset(ctx, email, code, form.Password)
	if err != nil {
		return check(forms.ResetCompleteCodes.Map(err))
	}
	if err := sess.Login(ctx, user); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintln(e.out, sess.Greeting())
	return nil
}

func (e *appEnv) accountUpdate(c *cli.Context) error {
	ctx := c.Context
	sess, user, err := e.signedIn(ctx)
	if err != nil {
		return err
	}
	form := forms.Profile{FullName: user.FullName, Email: user.Email}
	if v := c.String("name"); v != "" {
		form.FullName = v
	}
	if v := c.String("email"); v != "" {
		form.Email = v
	}
	if err := check(form.Validate()); err != nil {
		return err
	}

	msg, err := e.client.UpdateProfile(ctx, user.ID, api.ProfileUpdate{FullName: form.FullName, Email: form.Email})
	if err != nil {
		return check(forms.ProfileCodes.Map(err))
	}
	user.FullName, user.Email = form.FullName, form.Email
	if err := sess.Login(ctx, user); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if msg == "" {
		msg = "Profile updated"
	}
	fmt.Fprintln(e.out, msg)
	return nil
}

func (e *appEnv) accountPassword(c *cli.Context) error {
	ctx := c.Context
	_, user, err := e.signedIn(ctx)
	if err != nil {
		return err
	}
	form := forms.PasswordChange{
		CurrentPassword: e.prompt(c.String("current"), "Current password"),
		NewPassword:     e.prompt(c.String("new"), "New password"),
		RepeatPassword:  e.prompt(c.String("repeat"), "Repeat new password"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	err = e.client.ChangePassword(ctx, user.ID, api.PasswordChange{
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
	})
	if err != nil {
		return check(forms.PasswordCodes.Map(err))
	}
	fmt.Fprintln(e.out, "Password updated")
	return nil
}
