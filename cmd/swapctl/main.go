package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"bookswap/internal/config"
	"bookswap/internal/database"
	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/notification"
	jwtsvc "bookswap/internal/pkg/jwt"
	"bookswap/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "swapctl",
		Short:        "Operations toolbox for the bookswap API",
		SilenceUsage: true,
	}

	var cfgPath string
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: configs/config.yaml)")

	root.AddCommand(
		seedCmd(&cfgPath),
		cleanupCmd(&cfgPath),
		createUserCmd(&cfgPath),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// toolbox wires the same services the API runs, minus the HTTP layer. Change
// events go to an in-process bus with no subscribers; writes behave exactly
// as they do in the server.
type toolbox struct {
	cfg       *config.Config
	db        *gorm.DB
	users     *auth.UserRepository
	auth      *auth.Service
	catalog   *catalog.Service
	exchange  *exchange.Service
	notifRepo *notification.Repository
}

func openToolbox(cfgPath string) (*toolbox, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		// The CLI never mints tokens anyone keeps; any secret will do.
		secret = "swapctl"
	}

	bus := realtime.NewInProcBus()
	jwtService := jwtsvc.New(secret, cfg.JWT.AccessExpire)

	userRepo := auth.NewUserRepository(db)
	bookRepo := catalog.NewRepository(db)
	requestRepo := exchange.NewRepository(db)
	notifRepo := notification.NewRepository(db)

	notifService := notification.NewService(notifRepo, bus)

	return &toolbox{
		cfg:       cfg,
		db:        db,
		users:     userRepo,
		auth:      auth.NewService(userRepo, jwtService, auth.NewMemorySessionStore(), notifService, cfg.JWT.RefreshExpire),
		catalog:   catalog.NewService(bookRepo),
		exchange:  exchange.NewService(db, requestRepo, bookRepo, userRepo, notifService, bus),
		notifRepo: notifRepo,
	}, nil
}

func cleanupCmd(cfgPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete notifications older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := openToolbox(*cfgPath)
			if err != nil {
				return err
			}

			if days <= 0 {
				days = tb.cfg.Notifications.RetentionDays
			}

			svc := notification.NewCleanupService(tb.notifRepo)
			if err := svc.CleanupOld(cmd.Context(), days); err != nil {
				return err
			}
			fmt.Printf("Cleaned up notifications older than %d days.\n", days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days (default: notifications.retention_days from config)")
	return cmd
}

func createUserCmd(cfgPath *string) *cobra.Command {
	var email, name, city string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := openToolbox(*cfgPath)
			if err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			user, err := tb.auth.Register(cmd.Context(), auth.RegisterRequest{
				Email:       email,
				Password:    password,
				DisplayName: name,
				City:        city,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created user %d (%s).\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&city, "city", "", "home city")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readPassword reads a line from the terminal with echo off.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func seedCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small demo marketplace (users, shelves, one pending swap)",
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := openToolbox(*cfgPath)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), tb)
		},
	}
}

type seedUser struct {
	email string
	name  string
	city  string
	books []catalog.CreateBookRequest
}

var demoUsers = []seedUser{
	{
		email: "maria@example.com", name: "Maria", city: "Lisbon",
		books: []catalog.CreateBookRequest{
			{Title: "1984", Author: "George Orwell", Genre: "dystopia", Condition: "good"},
			{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "sci-fi", Condition: "like_new"},
			{Title: "Invisible Cities", Author: "Italo Calvino", Genre: "fiction", Condition: "worn", Description: "A few pencil notes in the margins."},
		},
	},
	{
		email: "alex@example.com", name: "Alex", city: "Porto",
		books: []catalog.CreateBookRequest{
			{Title: "The Pragmatic Programmer", Author: "Hunt & Thomas", Genre: "tech", Condition: "good"},
			{Title: "Piranesi", Author: "Susanna Clarke", Genre: "fantasy", Condition: "new"},
		},
	},
	{
		email: "nadia@example.com", name: "Nadia", city: "Lisbon",
		books: []catalog.CreateBookRequest{
			{Title: "Half of a Yellow Sun", Author: "Chimamanda Ngozi Adichie", Genre: "fiction", Condition: "like_new"},
		},
	},
}

// Everything goes through the real services, so seeded rows obey the same
// rules as user traffic. Rerunning is safe: existing users are reused and
// their shelves left alone.
func seed(ctx context.Context, tb *toolbox) error {
	const password = "swapmebooks"

	ids := make(map[string]int64, len(demoUsers))
	for _, su := range demoUsers {
		user, err := tb.auth.Register(ctx, auth.RegisterRequest{
			Email:       su.email,
			Password:    password,
			DisplayName: su.name,
			City:        su.city,
		})
		if errors.Is(err, auth.ErrEmailAlreadyExists) {
			existing, lookupErr := tb.users.GetByEmail(ctx, su.email)
			if lookupErr != nil {
				return lookupErr
			}
			ids[su.email] = existing.ID
			fmt.Printf("User %s already exists, keeping it.\n", su.email)
			continue
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", su.email, err)
		}
		ids[su.email] = user.ID

		for _, book := range su.books {
			if _, err := tb.catalog.Create(ctx, user.ID, book); err != nil {
				return fmt.Errorf("list %q: %w", book.Title, err)
			}
		}
		fmt.Printf("Seeded %s with %d books.\n", su.email, len(su.books))
	}

	// Alex asks Maria for her copy of 1984, leaving a pending request (and
	// an unread notification) to poke at.
	mariaShelf, _, err := tb.catalog.MyShelf(ctx, ids["maria@example.com"], 50, 0)
	if err != nil {
		return err
	}
	for _, book := range mariaShelf {
		if book.Title != "1984" || book.Status != catalog.StatusAvailable {
			continue
		}
		_, err := tb.exchange.Create(ctx, ids["alex@example.com"], exchange.CreateRequestRequest{
			BookID:  book.ID,
			Message: "I've been meaning to reread this. Trade for Piranesi?",
		})
		switch {
		case errors.Is(err, exchange.ErrDuplicateRequest):
			fmt.Println("Demo swap request already pending.")
		case err != nil:
			return fmt.Errorf("request %q: %w", book.Title, err)
		default:
			fmt.Println("Opened a pending swap request for 1984.")
		}
		break
	}

	fmt.Printf("Done. Log in as any of the demo users with the password %q.\n", password)
	return nil
}
