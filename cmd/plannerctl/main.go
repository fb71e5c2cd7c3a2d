// plannerctl is a small terminal client for the Developer Planner API. It
// exercises the full session subsystem: password sign-in, silent restoration
// via the persist marker, the paginated project listing through the
// privileged gateway, and the presence channel.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hoangdanh165/devplanner/internal/logger"
	"github.com/hoangdanh165/devplanner/pkg/planner"
)

func main() {
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	baseURL := flag.String("url", "http://localhost:8080", "planner API base URL")
	email := flag.String("email", "", "email for password sign-in")
	persist := flag.Bool("persist", true, "keep the session across runs")
	page := flag.Int("page", 1, "projects page to list")
	watch := flag.Bool("watch", false, "stay connected and print presence updates")
	flag.Parse()

	if err := run(*baseURL, *email, *persist, *page, *watch); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(baseURL string, email string, persist bool, page int, watch bool) error {
	markers, err := planner.NewFileMarkers(markersPath())
	if err != nil {
		return fmt.Errorf("open marker store: %w", err)
	}

	client, err := planner.New(planner.Config{BaseURL: baseURL, Markers: markers})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if persist {
		_ = markers.Set(planner.MarkerPersist, "true")
	} else {
		_ = markers.Set(planner.MarkerPersist, "false")
	}

	// Try silent restoration first; fall back to interactive sign-in.
	bootstrap := client.Bootstrap()
	session := bootstrap.Run(ctx)
	if !session.IsAuthenticated() {
		if bootstrap.SessionExpired() {
			fmt.Fprintln(os.Stderr, "your session has expired; please sign in again")
		}
		if email == "" {
			return fmt.Errorf("no restorable session; pass -email to sign in")
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		session, err = client.SignIn(ctx, email, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
	}

	switch planner.Evaluate(session, []string{"user", "admin"}) {
	case planner.Allow:
	case planner.RedirectBanned:
		return fmt.Errorf("account is restricted")
	default:
		return fmt.Errorf("account role %q has no access", session.Role)
	}

	fmt.Printf("signed in as %s (%s)\n", session.FullName, session.Role)

	plans, meta, err := client.Projects(ctx, page)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	fmt.Printf("projects (page %d of %d):\n", meta.Page, meta.TotalPages)
	for _, plan := range plans {
		fmt.Printf("  v%-3d %-30s %s\n", plan.Version, plan.Name, plan.ID)
	}

	if !watch {
		return nil
	}

	presence := client.Presence()
	presence.OnRoster = func(users []planner.PresenceUser) {
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.UserID)
		}
		fmt.Printf("online: %s\n", strings.Join(names, ", "))
	}

	if err := presence.Track(ctx, session.UserID); err != nil {
		return fmt.Errorf("open presence channel: %w", err)
	}
	defer presence.Close()

	<-ctx.Done()
	return nil
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func markersPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".plannerctl.json"
	}
	return filepath.Join(home, ".plannerctl.json")
}
