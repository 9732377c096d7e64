package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/pkg/client"

	"github.com/spf13/pflag"
)

const usage = `usage: storectl [--server URL] [--state-dir DIR] <command> [flags] [args]

commands:
  register --name NAME --email EMAIL --password PASSWORD
  login --email EMAIL --password PASSWORD
  logout
  products [--search S] [--category C] [--sort ORDER] [--page N] [--limit N]
  product ID
  cart add ID [QTY] | cart set ID QTY | cart rm ID | cart show | cart clear
  checkout --address A --city C --postal-code P --country C [--state S] [--payment METHOD]
  orders
  order ID
  pay ID
`

var errUsage = errors.New("invalid usage, run 'storectl help'")

// savedSession is the on-disk form of a signed-in session.
type savedSession struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// cli is one invocation's state.
type cli struct {
	out      io.Writer
	stateDir string
	session  *client.Session
	carts    cart.Store
}

func run(args []string, out io.Writer) error {
	global := pflag.NewFlagSet("storectl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	server := global.String("server", envOr("STORECTL_SERVER", "http://localhost:8080"), "storefront server URL")
	stateDir := global.String("state-dir", defaultStateDir(), "directory holding the session and cart")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := global.Args()
	if len(rest) == 0 || rest[0] == "help" {
		fmt.Fprint(out, usage)
		return nil
	}

	c, err := newCLI(*server, *stateDir, out)
	if err != nil {
		return err
	}
	return c.dispatch(rest[0], rest[1:])
}

func newCLI(server, stateDir string, out io.Writer) (*cli, error) {
	carts := cart.NewFileStore(filepath.Join(stateDir, "cart.json"))
	shoppingCart, err := carts.Load()
	if err != nil {
		return nil, err
	}

	session := client.NewSession(client.New(server), shoppingCart)
	saved, err := loadSession(filepath.Join(stateDir, "session.json"))
	if err != nil {
		return nil, err
	}
	session.Client.SetToken(saved.Token)
	session.User = saved.User

	return &cli{out: out, stateDir: stateDir, session: session, carts: carts}, nil
}

func (c *cli) dispatch(command string, args []string) error {
	switch command {
	case "register":
		return c.register(args)
	case "login":
		return c.login(args)
	case "logout":
		c.session.Logout()
		return c.saveSession()
	case "products":
		return c.products(args)
	case "product":
		return c.product(args)
	case "cart":
		return c.cart(args)
	case "checkout":
		return c.checkout(args)
	case "orders":
		return c.orders()
	case "order":
		return c.order(args)
	case "pay":
		return c.pay(args)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func (c *cli) register(args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (min 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.session.Register(*name, *email, *password); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered and signed in as %s\n", c.session.User.Email)
	return c.saveSession()
}

func (c *cli) login(args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.session.Login(*email, *password); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", c.session.User.Email, c.session.User.Role)
	return c.saveSession()
}

func (c *cli) products(args []string) error {
	fs := newFlagSet("products")
	search := fs.String("search", "", "substring of the product name")
	category := fs.String("category", "", "exact category")
	sortOrder := fs.String("sort", "", "newest, oldest, price-asc, price-desc, name-asc, name-desc or rating")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 0, "products per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := c.session.Client.ListProducts(models.ProductQuery{
		Search:   *search,
		Category: *category,
		Sort:     models.ProductSort(*sortOrder),
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tRATING")
	for _, p := range result.Products {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%.1f (%d)\n", p.ID, p.Name, p.Price, p.Stock, p.Rating, p.NumReviews)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "page %d of %d, %d products\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (c *cli) product(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := c.session.Client.GetProduct(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n  brand: %s\n  category: %s\n  price: %.2f\n  stock: %d\n  rating: %.1f from %d reviews\n  %s\n",
		p.Name, p.Brand, p.Category, p.Price, p.Stock, p.Rating, p.NumReviews, p.Description)
	for _, r := range p.Reviews {
		fmt.Fprintf(c.out, "  - %d/5 %s: %s\n", r.Rating, r.Name, r.Comment)
	}
	return nil
}

func (c *cli) cart(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		qty := 1
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("%w: quantity %q", errUsage, args[2])
			}
			qty = n
		}
		line, err := c.session.AddToCart(args[1], qty)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s × %d in cart\n", line.Name, line.Quantity)
	case "set":
		if len(args) != 3 {
			return errUsage
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: quantity %q", errUsage, args[2])
		}
		if err := c.session.Cart.SetQuantity(args[1], qty); err != nil {
			return err
		}
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		if !c.session.Cart.Remove(args[1]) {
			return fmt.Errorf("product %s is not in the cart", args[1])
		}
	case "clear":
		c.session.Cart.Clear()
	case "show":
		return c.showCart()
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, args[0])
	}
	return c.carts.Save(c.session.Cart)
}

func (c *cli) showCart() error {
	lines := c.session.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", l.ProductID, l.Name, l.Quantity, l.Price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	totals := c.session.Cart.Totals()
	fmt.Fprintf(c.out, "subtotal %.2f, shipping %.2f, total %.2f\n", totals.Items, totals.Shipping, totals.Total)
	return nil
}

func (c *cli) checkout(args []string) error {
	fs := newFlagSet("checkout")
	var addr models.ShippingAddress
	fs.StringVar(&addr.Address, "address", "", "street address")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.State, "state", "", "state or region")
	fs.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	fs.StringVar(&addr.Country, "country", "", "country")
	payment := fs.String("payment", "PayPal", "payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order, err := c.session.Checkout(addr, *payment)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %s placed: total %.2f, status %s\n", order.ID, order.TotalPrice, order.Status)
	return c.carts.Save(c.session.Cart)
}

func (c *cli) orders() error {
	orders, err := c.session.Client.MyOrders()
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTOTAL\tPAID\tSTATUS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%t\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02"), o.TotalPrice, o.IsPaid, o.Status)
	}
	return tw.Flush()
}

func (c *cli) order(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	o, err := c.session.Client.GetOrder(args[0])
	if err != nil {
		return err
	}
	printOrder(c.out, o)
	return nil
}

func (c *cli) pay(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	o, err := c.session.Client.PayOrder(args[0])
	if err != nil {
		return err
	}
	printOrder(c.out, o)
	return nil
}

func printOrder(out io.Writer, o *models.Order) {
	fmt.Fprintf(out, "order %s (%s, paid: %t)\n", o.ID, o.Status, o.IsPaid)
	for _, item := range o.Items {
		fmt.Fprintf(out, "  %d × %s @ %.2f\n", item.Quantity, item.Name, item.Price)
	}
	fmt.Fprintf(out, "  items %.2f, shipping %.2f, total %.2f\n", o.ItemsPrice, o.ShippingPrice, o.TotalPrice)
}

func (c *cli) saveSession() error {
	data, err := json.MarshalIndent(savedSession{Token: c.session.Client.Token(), User: c.session.User}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.stateDir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(filepath.Join(c.stateDir, "session.json"), data, 0o600)
}

func loadSession(path string) (*savedSession, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &savedSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", path, err)
	}
	return &saved, nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storectl")
	}
	return ".storectl"
}
