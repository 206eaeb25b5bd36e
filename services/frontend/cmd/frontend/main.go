// Command frontend drives the Q&A client data layer from a terminal. Each
// command runs one UI action and prints the resulting store state as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"semicolon/internal/util"
	"semicolon/pkg/apiclient"
	"semicolon/pkg/domain"
	"semicolon/pkg/storage"
	"semicolon/services/frontend/internal/app"
	"semicolon/services/frontend/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `frontend CLI
Usage:
  frontend [-config file] <cmd> [args]

Commands:
  register  -email <addr> -u <username> -p <password> [-name <full name>]
  login     -u <username> -p <password>
  logout
  whoami                                  (refreshes the stored user)
  list      [-page N]
  show      -id <question>
  ask       -title <t> -content <c> [-tags a,b]
  edit      -id <question> [-title <t>] [-content <c>] [-tags a,b] [-solved]
  answer    -q <question> -content <c>
  vote      (-q <question> | -a <answer>) -v 1|-1
  accept    -a <answer>
  rm        (-q <question> | -a <answer>)
`)
}

var errUsage = errors.New("usage")

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred cleanup runs before exit.
func realMain() int {
	configPath := flag.String("config", config.ConfigPath, "config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	timeout, err := config.ParseRequestTimeout(cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("failed to parse request timeout: %v", err)
	}
	leeway, err := config.ParseTokenLeeway(cfg.TokenLeeway)
	if err != nil {
		log.Fatalf("failed to parse token leeway: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	sessionStorage, closer, err := storage.Open(storage.Config{
		Driver:        cfg.StorageDriver,
		Path:          cfg.StoragePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		Secret:        cfg.StorageSecret,
	})
	if err != nil {
		log.Fatalf("failed to open session storage: %v", err)
	}
	defer closer.Close()

	appCore, err := app.New(app.Config{
		APIURL:         cfg.APIURL,
		RequestTimeout: timeout,
		PerPage:        cfg.PerPage,
		TokenLeeway:    leeway,
		Storage:        sessionStorage,
		Logger:         logger,
	})
	if err != nil {
		log.Printf("failed to init app: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = util.ContextWithLogger(ctx, logger)

	return exitCode(run(ctx, appCore, flag.Arg(0), flag.Args()[1:]))
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	switch cmd {
	case "register":
		email := fs.String("email", "", "email")
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		name := fs.String("name", "", "full name")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		user, msg, err := a.SignUp(ctx, domain.RegisterRequest{Email: *email, Username: *u, Password: *p, FullName: *name})
		if err != nil {
			return err
		}
		printJSON(map[string]any{"user": user, "message": msg})

	case "login":
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if _, err := a.SignIn(ctx, *u, *p); err != nil {
			return err
		}
		printJSON(a.Session().Get())

	case "logout":
		if err := a.SignOut(); err != nil {
			return err
		}
		fmt.Println("ok")

	case "whoami":
		if _, err := a.RefreshUser(ctx); err != nil {
			return err
		}
		printJSON(a.Session().Get().User)

	case "list":
		page := fs.Int("page", 1, "page number")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if err := a.LoadQuestions(ctx, *page); err != nil {
			return err
		}
		printJSON(a.Questions().Get())

	case "show":
		id := fs.Int64("id", 0, "question id")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *id == 0 {
			return errors.New("need -id")
		}
		if err := a.LoadQuestion(ctx, *id); err != nil {
			return err
		}
		printJSON(a.QuestionDetail().Get())

	case "ask":
		title := fs.String("title", "", "title")
		content := fs.String("content", "", "content")
		tags := fs.String("tags", "", "comma separated tags")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		q, err := a.AskQuestion(ctx, domain.QuestionCreate{Title: *title, Content: *content, Tags: splitCSV(*tags)})
		if err != nil {
			return err
		}
		printJSON(q)

	case "edit":
		id := fs.Int64("id", 0, "question id")
		title := fs.String("title", "", "new title")
		content := fs.String("content", "", "new content")
		tags := fs.String("tags", "", "comma separated tags")
		solved := fs.Bool("solved", false, "mark solved")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *id == 0 {
			return errors.New("need -id")
		}
		var patch domain.QuestionUpdate
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "title":
				patch.Title = title
			case "content":
				patch.Content = content
			case "tags":
				patch.Tags = splitCSV(*tags)
			case "solved":
				patch.IsSolved = solved
			}
		})
		q, err := a.EditQuestion(ctx, *id, patch)
		if err != nil {
			return err
		}
		printJSON(q)

	case "answer":
		q := fs.Int64("q", 0, "question id")
		content := fs.String("content", "", "content")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *q == 0 {
			return errors.New("need -q")
		}
		ans, err := a.PostAnswer(ctx, *q, *content)
		if err != nil {
			return err
		}
		printJSON(ans)

	case "vote":
		q := fs.Int64("q", 0, "question id")
		ans := fs.Int64("a", 0, "answer id")
		v := fs.Int("v", 1, "1 or -1")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		switch {
		case *q != 0:
			out, err := a.VoteQuestion(ctx, *q, domain.Vote(*v))
			if err != nil {
				return err
			}
			printJSON(out)
		case *ans != 0:
			out, err := a.VoteAnswer(ctx, *ans, domain.Vote(*v))
			if err != nil {
				return err
			}
			printJSON(out)
		default:
			return errors.New("need -q or -a")
		}

	case "accept":
		ans := fs.Int64("a", 0, "answer id")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *ans == 0 {
			return errors.New("need -a")
		}
		out, err := a.AcceptAnswer(ctx, *ans)
		if err != nil {
			return err
		}
		printJSON(out)

	case "rm":
		q := fs.Int64("q", 0, "question id")
		ans := fs.Int64("a", 0, "answer id")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		var err error
		switch {
		case *q != 0:
			err = a.DeleteQuestion(ctx, *q)
		case *ans != 0:
			err = a.DeleteAnswer(ctx, *ans)
		default:
			return errors.New("need -q or -a")
		}
		if err != nil {
			return err
		}
		fmt.Println("ok")

	default:
		return errUsage
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// exitCode reports err on stderr and maps it to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		usage()
		return 2
	}
	if status := apiclient.StatusCode(err); status != 0 {
		fmt.Fprintf(os.Stderr, "error (%d): %s\n", status, apiclient.Message(err))
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return 1
}
