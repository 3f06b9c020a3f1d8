package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/academy-dev/academy/internal/api"
	"github.com/academy-dev/academy/internal/curriculum"
	"github.com/academy-dev/academy/internal/forms"
)

func (e *appEnv) adminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "admin",
			Usage:  "administer users, articles and categories",
			Before: e.adminOnly,
			Subcommands: []*cli.Command{
				{
					Name:  "users",
					Usage: "manage accounts",
					Subcommands: []*cli.Command{
						{Name: "list", Usage: "list all accounts", Action: e.listUsers},
						{Name: "show", Usage: "print one account", ArgsUsage: "<id>", Action: e.showUser},
						{
							Name:      "role",
							Usage:     "change an account's role",
							ArgsUsage: "<id> <admin|user|pro|tester>",
							Action:    e.setRole,
						},
						{Name: "delete", Usage: "delete an account", ArgsUsage: "<id>", Action: e.deleteUser},
					},
				},
				{
					Name:  "articles",
					Usage: "manage blog articles",
					Subcommands: []*cli.Command{
						{Name: "list", Usage: "list articles", Action: e.listArticles},
						{Name: "show", Usage: "print an article", ArgsUsage: "<id>", Action: e.showArticle},
						{
							Name:  "create",
							Usage: "publish an article",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "title"},
								&cli.StringFlag{Name: "subtitle"},
								&cli.StringFlag{Name: "content-file", Usage: "read the body from `FILE`"},
								&cli.StringFlag{Name: "cover", Usage: "cover image `FILE`"},
							},
							Action: e.createArticle,
						},
						{Name: "delete", Usage: "delete an article", ArgsUsage: "<id>", Action: e.deleteArticle},
					},
				},
				{
					Name:  "categories",
					Usage: "manage course categories",
					Subcommands: []*cli.Command{
						{Name: "list", Usage: "list categories", Action: e.listCategories},
						{
							Name:  "create",
							Usage: "add a category",
							Flags: []cli.Flag{
								&cli.StringFlag{Name: "title"},
								&cli.StringFlag{Name: "description"},
							},
							Action: e.createCategory,
						},
					},
				},
			},
		},
	}
}

func (e *appEnv) adminOnly(c *cli.Context) error {
	_, err := e.requireRole(c.Context, curriculum.RoleAdmin)
	return err
}

func (e *appEnv) listUsers(c *cli.Context) error {
	users, err := e.client.Users(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.Role)
	}
	return tw.Flush()
}

func (e *appEnv) showUser(c *cli.Context) error {
	id, err := argID(c, "user")
	if err != nil {
		return err
	}
	u, err := e.client.User(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s <%s>\nrole: %s\nlives: %d\n", u.FullName, u.Email, u.Role, u.Lives)
	return nil
}

func (e *appEnv) setRole(c *cli.Context) error {
	id, err := argID(c, "user")
	if err != nil {
		return err
	}
	role := curriculum.Role(c.Args().Get(1))
	switch role {
	case curriculum.RoleAdmin, curriculum.RoleUser, curriculum.RolePro, curriculum.RoleTester:
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	u, err := e.client.User(c.Context, id)
	if err != nil {
		return err
	}
	u.Role = role
	if err := e.client.UpdateUser(c.Context, u); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s is now %s\n", u.FullName, u.Role)
	return nil
}

func (e *appEnv) deleteUser(c *cli.Context) error {
	id, err := argID(c, "user")
	if err != nil {
		return err
	}
	if err := e.client.DeleteUser(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted user %d\n", id)
	return nil
}

func (e *appEnv) listArticles(c *cli.Context) error {
	articles, err := e.client.Articles(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSUBTITLE")
	for _, a := range articles {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Title, a.Subtitle)
	}
	return tw.Flush()
}

func (e *appEnv) showArticle(c *cli.Context) error {
	id, err := argID(c, "article")
	if err != nil {
		return err
	}
	a, err := e.client.GetArticle(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s\n", a.Title)
	if a.Subtitle != "" {
		fmt.Fprintf(e.out, "%s\n", a.Subtitle)
	}
	fmt.Fprintf(e.out, "cover: %s\n\n%s\n", a.Photo, a.Content)
	return nil
}

func (e *appEnv) createArticle(c *cli.Context) error {
	form := forms.Article{
		Title:    e.prompt(c.String("title"), "Title"),
		Subtitle: c.String("subtitle"),
	}
	if p := c.String("content-file"); p != "" {
		up, err := readUpload(p)
		if err != nil {
			return err
		}
		form.Content = string(up.Data)
	}
	if p := c.String("cover"); p != "" {
		up, err := readUpload(p)
		if err != nil {
			return err
		}
		form.Cover = up
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	err := e.client.CreateArticle(c.Context, api.ArticleUpload{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Content:  form.Content,
		Cover:    form.Cover,
	})
	if err != nil {
		return check(forms.ArticleCodes.Map(err))
	}
	fmt.Fprintf(e.out, "Published %q\n", form.Title)
	return nil
}

func (e *appEnv) deleteArticle(c *cli.Context) error {
	id, err := argID(c, "article")
	if err != nil {
		return err
	}
	if err := e.client.DeleteArticle(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted article %d\n", id)
	return nil
}

func (e *appEnv) listCategories(c *cli.Context) error {
	cats, err := e.client.Categories(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
	for _, cat := range cats {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", cat.ID, cat.Title, cat.Description)
	}
	return tw.Flush()
}

func (e *appEnv) createCategory(c *cli.Context) error {
	form := forms.Category{
		Title:       e.prompt(c.String("title"), "Title"),
		Description: e.prompt(c.String("description"), "Description"),
	}
	if err := check(form.Validate()); err != nil {
		return err
	}
	cat, err := e.client.CreateCategory(c.Context, form.Title, form.Description)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Created category %d %q\n", cat.ID, cat.Title)
	return nil
}
