// Команда storectl — консольный клиент REST API витрины.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/catalogclient"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
	"github.com/Dasieloski/dasieloski-store/internal/version"
)

const (
	defaultAddr    = "http://localhost:8080"
	defaultTimeout = 10 * time.Second

	envAddr     = "STORECTL_ADDR"
	envToken    = "STORECTL_TOKEN"
	envEmail    = "STORE_ADMIN_EMAIL"
	envPassword = "STORE_ADMIN_PASSWORD"
)

var errUsage = errors.New("usage: storectl [flags] list-categories|list-products|create-category|create-product|login [command flags]")

type globalOptions struct {
	addr     string
	token    string
	email    string
	password string
	timeout  time.Duration
	version  bool
}

func parseGlobal(args []string, getenv func(string) string) (globalOptions, []string, error) {
	opts := globalOptions{
		addr:     firstNonEmpty(getenv(envAddr), defaultAddr),
		token:    getenv(envToken),
		email:    getenv(envEmail),
		password: getenv(envPassword),
	}

	fs := flag.NewFlagSet("storectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.addr, "addr", opts.addr, "storefront base URL")
	fs.StringVar(&opts.token, "token", opts.token, "admin session token")
	fs.StringVar(&opts.email, "email", opts.email, "admin email for implicit login")
	fs.StringVar(&opts.password, "password", opts.password, "admin password for implicit login")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return globalOptions{}, nil, err
	}
	if opts.timeout <= 0 {
		opts.timeout = defaultTimeout
	}
	return opts, fs.Args(), nil
}

func run(ctx context.Context, args []string, getenv func(string) string, out io.Writer) error {
	opts, rest, err := parseGlobal(args, getenv)
	if err != nil {
		return err
	}
	if opts.version {
		_, _ = fmt.Fprintln(out, version.String())
		return nil
	}
	if len(rest) == 0 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var clientOpts []catalogclient.Option
	if opts.token != "" {
		clientOpts = append(clientOpts, catalogclient.WithToken(opts.token))
	}
	client := catalogclient.New(opts.addr, clientOpts...)

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "list-categories":
		return listCategories(ctx, client, out)
	case "list-products":
		return listProducts(ctx, client, cmdArgs, out)
	case "login":
		return login(ctx, client, opts, out)
	case "create-category":
		if err := ensureAdmin(ctx, client, opts); err != nil {
			return err
		}
		return createCategory(ctx, client, cmdArgs, out)
	case "create-product":
		if err := ensureAdmin(ctx, client, opts); err != nil {
			return err
		}
		return createProduct(ctx, client, cmdArgs, out)
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

// ensureAdmin выполняет вход, если токен не передан явно.
func ensureAdmin(ctx context.Context, client *catalogclient.Client, opts globalOptions) error {
	if opts.token != "" {
		return nil
	}
	if opts.email == "" || opts.password == "" {
		return errors.New("admin command requires -token or -email and -password")
	}
	if _, err := client.Login(ctx, auth.Credentials{Email: opts.email, Password: opts.password}); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func login(ctx context.Context, client *catalogclient.Client, opts globalOptions, out io.Writer) error {
	if opts.email == "" || opts.password == "" {
		return errors.New("login requires -email and -password")
	}
	session, err := client.Login(ctx, auth.Credentials{Email: opts.email, Password: opts.password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	_, _ = fmt.Fprintf(out, "token=%s expires=%s\n", session.Token, session.ExpiresAt.Format(time.RFC3339))
	return nil
}

func listCategories(ctx context.Context, client *catalogclient.Client, out io.Writer) error {
	categories, err := client.ListCategories(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMOJI")
	for _, c := range categories {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Emoji)
	}
	return tw.Flush()
}

func listProducts(ctx context.Context, client *catalogclient.Client, args []string, out io.Writer) error {
	var filter domain.ProductFilter
	fs := flag.NewFlagSet("list-products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&filter.CategoryID, "category", "", "category id")
	fs.StringVar(&filter.Search, "q", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := client.ListProducts(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock, p.CategoryID)
	}
	return tw.Flush()
}

func createCategory(ctx context.Context, client *catalogclient.Client, args []string, out io.Writer) error {
	var in catalog.CategoryInput
	fs := flag.NewFlagSet("create-category", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&in.Name, "name", "", "category name")
	fs.StringVar(&in.Emoji, "emoji", "", "category emoji")
	fs.StringVar(&in.Description, "description", "", "category description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := client.CreateCategory(ctx, in)
	if err != nil {
		return err
	}
	return writeJSON(out, created)
}

func createProduct(ctx context.Context, client *catalogclient.Client, args []string, out io.Writer) error {
	var name, emoji, description, categoryID, image, price, specs string
	var stock int
	fs := flag.NewFlagSet("create-product", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "name", "", "product name")
	fs.StringVar(&price, "price", "", "product price")
	fs.StringVar(&emoji, "emoji", "", "product emoji")
	fs.StringVar(&description, "description", "", "short description")
	fs.StringVar(&categoryID, "category", "", "category id")
	fs.StringVar(&image, "image", "", "image URL")
	fs.StringVar(&specs, "specs", "", "comma separated specifications")
	fs.IntVar(&stock, "stock", 0, "stock units")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := catalog.ProductInput{
		Name:        &name,
		Emoji:       &emoji,
		Description: &description,
		CategoryID:  &categoryID,
		Stock:       &stock,
	}
	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return fmt.Errorf("invalid -price %q: %w", price, err)
		}
		in.Price = &p
	}
	if image != "" {
		in.Image = &image
	}
	if specs != "" {
		list := splitList(specs)
		in.Specifications = &list
	}

	created, err := client.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	return writeJSON(out, created)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		if tErr, ok := catalogclient.IsTransportError(err); ok && tErr.StatusCode == 0 {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
