package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ostadtodo/internal/config"
	dom "ostadtodo/internal/domain"

	"github.com/spf13/cobra"
)

func (c *cli) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register USERNAME PASSWORD",
		Short: "Create an account on the API server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := c.gate()
			if err != nil {
				return err
			}
			if err := g.Register(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Run `todo login` to sign in.\n", args[0])
			return nil
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login USERNAME PASSWORD",
		Short: "Sign in and store the bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := c.gate()
			if err != nil {
				return err
			}
			if err := g.Login(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", args[0])
			return nil
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := c.gate()
			if err != nil {
				return err
			}
			if err := g.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the tasks of a date with its progress",
		Args:    cobra.NoArgs,
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			printBoard(out, b)
			return nil
		}),
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			task, added, err := b.Add(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf("task text is empty")
			}
			fmt.Fprintf(out, "Added %s: %s\n", task.ID, task.Text)
			return nil
		}),
	}
}

func (c *cli) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "done ID",
		Aliases: []string{"toggle"},
		Short:   "Flip a task between done and open",
		Args:    cobra.ExactArgs(1),
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			found, err := b.Toggle(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return notFound(args[0])
			}
			for _, t := range b.Tasks() {
				if t.ID == args[0] {
					fmt.Fprintf(out, "%s %s\n", checkbox(t), t.Text)
				}
			}
			return nil
		}),
	}
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("task text is empty")
			}
			found, err := b.Edit(ctx, args[0], text)
			if err != nil {
				return err
			}
			if !found {
				return notFound(args[0])
			}
			fmt.Fprintf(out, "Updated %s.\n", args[0])
			return nil
		}),
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			found, err := b.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return notFound(args[0])
			}
			fmt.Fprintf(out, "Deleted %s.\n", args[0])
			return nil
		}),
	}
}

func (c *cli) progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print the completion percentage of a date",
		Args:  cobra.NoArgs,
		RunE: c.withBoard(func(ctx context.Context, out io.Writer, b board, args []string) error {
			fmt.Fprintf(out, "%d%%\n", b.RoundedProgress())
			return nil
		}),
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the client configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write config.toml with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteClientConfig(c.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}, &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dir         %s\n", c.cfg.Dir)
			fmt.Fprintf(out, "api_url     %s\n", c.cfg.APIURL)
			fmt.Fprintf(out, "api_timeout %s\n", c.cfg.Timeout())
			fmt.Fprintf(out, "lang        %s\n", c.cfg.Lang)
			fmt.Fprintf(out, "store       %s\n", c.cfg.Store)
			return nil
		},
	})
	return cmd
}

type boardFunc func(ctx context.Context, out io.Writer, b board, args []string) error

// withBoard opens the board for the command and closes it afterwards.
func (c *cli) withBoard(fn boardFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := c.openBoard(ctx)
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(ctx, cmd.OutOrStdout(), b, args)
	}
}

func printBoard(out io.Writer, b board) {
	tasks := b.Tasks()
	fmt.Fprintf(out, "%s  %d%% done\n", b.Date(), b.RoundedProgress())
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%s %-14s %s\n", checkbox(t), t.ID, t.Text)
	}
}

func checkbox(t dom.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func notFound(id string) error {
	return fmt.Errorf("no task %s on this date", id)
}
