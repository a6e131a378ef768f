package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mickamy/restorm/example/model"
	"github.com/mickamy/restorm/example/repo"
	"github.com/mickamy/restorm/orm"
)

type options struct {
	configFile string
	envFile    string
	debug      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "example:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "example",
		Short:         "Walk through restorm against JSONPlaceholder",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML config file (optional)")
	cmd.Flags().StringVar(&opts.envFile, "env", "", ".env file with RESTORM_* variables (optional)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "log every request")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	logger := orm.NewConsoleLogger(zerolog.InfoLevel)

	conn, err := open(opts.configFile, opts.envFile, opts.debug, logger)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}

	users := repo.NewUserRepository(conn)
	posts := repo.NewPostRepository(conn)

	// SELECT (by ID)
	fmt.Fprintln(out, "--- FIND USER ---")
	user, found, err := users.FindByID(ctx, 1)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !found {
		return errors.New("user 1 not found")
	}
	fmt.Fprintf(out, "Found: %s <%s>\n", user.Name, user.Email)

	// Lazy relations
	fmt.Fprintln(out, "\n--- LAZY RELATIONS ---")
	userPosts, err := user.LoadPosts(ctx, conn)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	fmt.Fprintf(out, "%s wrote %d posts\n", user.Username, len(userPosts))

	comments, err := user.LoadComments(ctx, conn)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	fmt.Fprintf(out, "%d comments on them\n", len(comments))

	author, _, err := userPosts[0].LoadUser(ctx, conn)
	if err != nil {
		return fmt.Errorf("load author: %w", err)
	}
	fmt.Fprintf(out, "First post %q by %s\n", userPosts[0].Summary, author.Name)

	// Eager relations
	fmt.Fprintln(out, "\n--- EAGER RELATIONS ---")
	loaded, err := users.FindWithPosts(ctx, 1, 2)
	if err != nil {
		return fmt.Errorf("find with posts: %w", err)
	}
	for _, u := range loaded {
		n := 0
		for _, p := range u.Posts {
			n += len(p.Comments)
		}
		fmt.Fprintf(out, "  %-20s %3d posts %4d comments\n", u.Name, len(u.Posts), n)
	}

	// Count
	fmt.Fprintln(out, "\n--- COUNT ---")
	total, err := model.Comments(conn).Count(ctx)
	if err != nil {
		return fmt.Errorf("count comments: %w", err)
	}
	fmt.Fprintf(out, "%d comments in total\n", total)

	// INSERT / UPDATE / DELETE (JSONPlaceholder fakes writes)
	fmt.Fprintln(out, "\n--- WRITE ---")
	created, err := posts.Create(ctx, user.ID, "hello", "from restorm")
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	fmt.Fprintf(out, "Created: %+v\n", *created)

	renamed, err := posts.Rename(ctx, userPosts[0], "renamed")
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	fmt.Fprintf(out, "Updated: %q\n", renamed.Title)

	if err := posts.Delete(ctx, userPosts[0]); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	fmt.Fprintf(out, "Deleted post with ID=%d\n", userPosts[0].ID)
	return nil
}

func open(configFile, envFile string, debug bool, logger zerolog.Logger) (*orm.Connection, error) {
	cfg := orm.Config{BaseURI: "https://jsonplaceholder.typicode.com/"}
	if configFile != "" || envFile != "" {
		var opts []orm.LoaderOption
		if configFile != "" {
			opts = append(opts, orm.WithConfigFile(configFile))
		}
		if envFile != "" {
			opts = append(opts, orm.WithEnvFile(envFile))
		}
		loaded, err := orm.LoadConfig("", opts...)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if debug || cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return orm.Open(cfg, orm.WithDialect(orm.JSONServer), orm.WithLogger(logger))
}
