// Package scenarios registers the end-to-end tests run against the kudos
// site.
package scenarios

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/runner"
)

const (
	// SuiteTitle groups the kudos tests.
	SuiteTitle = "kudos"

	defaultOTP  = "111111"
	kudoMessage = "test"
)

// Register adds the kudos suite to root.
func Register(root *runner.Suite, cfg config.Kudo) *runner.Suite {
	if cfg.LoginOTP == "" {
		cfg.LoginOTP = defaultOTP
	}

	return root.Describe(SuiteTitle, func(s *runner.Suite) {
		body := func(t *runner.T) error {
			return sendAndViewKudo(t, cfg)
		}
		if cfg.LoginEmail == "" || cfg.Recipient == "" {
			s.Skip("user login and send and view a kudo", body)
			return
		}
		s.Test("user login and send and view a kudo", body)
	})
}

func sendAndViewKudo(t *runner.T, cfg config.Kudo) error {
	page := t.Page

	if err := t.Step("open site", func() error {
		_, err := page.Goto("/")
		return err
	}); err != nil {
		return err
	}

	if err := t.Step("log in", func() error {
		return login(t, cfg)
	}); err != nil {
		return err
	}

	if err := t.Step("write kudo", func() error {
		message := page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: "E.g. Hey Jen! You were"})
		if err := visible(t, message); err != nil {
			return err
		}
		if err := message.Fill(kudoMessage); err != nil {
			return err
		}
		if err := clickRole(page, *playwright.AriaRoleButton, "Next >>"); err != nil {
			return err
		}
		return atPath(t, "/kudo/library")
	}); err != nil {
		return err
	}

	if err := t.Step("pick GIF", func() error {
		if err := page.Locator(".giphy-gif").First().Click(); err != nil {
			return err
		}
		return atPath(t, "/kudo/recipients")
	}); err != nil {
		return err
	}

	if err := t.Step("send to recipient", func() error {
		if err := visible(t, page.GetByRole(*playwright.AriaRoleHeading, playwright.PageGetByRoleOptions{Name: "Preview"})); err != nil {
			return err
		}
		email := page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: "Email Id"})
		if err := email.Fill(cfg.Recipient); err != nil {
			return err
		}
		if err := clickRole(page, *playwright.AriaRoleButton, "Send"); err != nil {
			return err
		}
		if err := clickRole(page, *playwright.AriaRoleLink, "Go To Feed"); err != nil {
			return err
		}
		return atPath(t, "/feeds")
	}); err != nil {
		return err
	}

	if err := t.Step("view feed", func() error {
		return viewFeed(t)
	}); err != nil {
		return err
	}

	if err := t.Step("delete kudo", func() error {
		if err := page.Locator("div:nth-child(2) > .rounded-full").First().Click(); err != nil {
			return err
		}
		menuDelete := page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)delete`),
		})
		if err := menuDelete.First().Click(); err != nil {
			return err
		}
		return clickRole(page, *playwright.AriaRoleButton, "Delete")
	}); err != nil {
		return err
	}

	return t.Step("sign out", func() error {
		if err := clickRole(page, *playwright.AriaRoleButton, "profile"); err != nil {
			return err
		}
		return clickRole(page, *playwright.AriaRoleButton, "Sign out")
	})
}

func login(t *runner.T, cfg config.Kudo) error {
	page := t.Page

	if err := clickRole(page, *playwright.AriaRoleLink, "Login"); err != nil {
		return err
	}
	if err := atPath(t, "/loginer"); err != nil {
		return err
	}

	email := page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: "Email Id"})
	if err := email.Fill(cfg.LoginEmail); err != nil {
		return err
	}
	if err := clickRole(page, *playwright.AriaRoleButton, "Request OTP"); err != nil {
		return err
	}

	otp := page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{Name: "OTP"})
	if err := visible(t, otp); err != nil {
		return err
	}
	if err := otp.Fill(cfg.LoginOTP); err != nil {
		return err
	}
	if err := clickRole(page, *playwright.AriaRoleButton, "Login/Signup"); err != nil {
		return err
	}
	return atPath(t, "")
}

func viewFeed(t *runner.T) error {
	page := t.Page

	if err := visible(t, page.Locator(".bg-white > div > div").First()); err != nil {
		return err
	}
	you := page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{Name: "You"}).First()
	if err := visible(t, you); err != nil {
		return err
	}

	for _, tab := range []string{"Received Received", "Given Given"} {
		if err := clickRole(page, *playwright.AriaRoleButton, tab); err != nil {
			return err
		}
		if err := visible(t, you); err != nil {
			return fmt.Errorf("feed tab %q: %w", tab, err)
		}
	}

	return clickRole(page, *playwright.AriaRoleButton, "All")
}

func clickRole(page playwright.Page, role playwright.AriaRole, name string) error {
	return page.GetByRole(role, playwright.PageGetByRoleOptions{Name: name}).Click()
}

func visible(t *runner.T, l playwright.Locator) error {
	return t.Expect.Locator(l).ToBeVisible()
}

// atPath asserts the page URL is BaseURL followed by path, with an optional
// trailing slash.
func atPath(t *runner.T, path string) error {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(strings.TrimRight(t.BaseURL, "/")+path) + "/?$")
	return t.Expect.Page(t.Page).ToHaveURL(pattern)
}
