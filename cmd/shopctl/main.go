package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/veloura/storefront/pkg/config"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/storefront/account"
	"github.com/veloura/storefront/pkg/storefront/cart"
	"github.com/veloura/storefront/pkg/storefront/checkout"
	"github.com/veloura/storefront/pkg/storefront/session"
	"github.com/veloura/storefront/pkg/storefront/transport"
)

const postLoginSettle = 300 * time.Millisecond

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "shopctl"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "status", "command: status|login|logout|cart|add|update|remove|checkout-dry-run")

	// Command-specific flags
	identifier := flag.String("identifier", "", "login email or username")
	password := flag.String("password", "", "login password")
	productID := flag.Int64("product", 0, "product id (for add)")
	itemKey := flag.String("item", "", "cart item key (for update/remove)")
	quantity := flag.Int("qty", 1, "quantity (for add/update)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "shopctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := session.OpenSQLite(cfg.Client.StorePath)
	requireResource(ctx, logg, "session store", err)
	defer store.Close()

	sess, err := session.New(store)
	requireResource(ctx, logg, "session", err)

	credential, err := transport.NewCredentialTransport(http.DefaultTransport, sess)
	requireResource(ctx, logg, "credential transport", err)

	httpClient := &http.Client{
		Transport: transport.NewActivityTransport(credential, transport.DefaultBusyThreshold),
		Timeout:   30 * time.Second,
	}

	gatewayURL := strings.TrimSuffix(cfg.Client.GatewayURL, "/")
	syncer, err := cart.New(httpClient, gatewayURL)
	requireResource(ctx, logg, "cart synchronizer", err)

	switch *cmd {
	case "status":
		runStatus(sess)

	case "login":
		if *identifier == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "missing -identifier or -password for login")
			os.Exit(1)
		}
		err := runLogin(ctx, httpClient, gatewayURL, sess, syncer, *identifier, *password)
		requireResource(ctx, logg, "login", err)
		fmt.Println("logged in as", sess.Identity().Email)

	case "logout":
		requireResource(ctx, logg, "logout", sess.Logout())
		fmt.Println("logged out")

	case "cart":
		snapshot, err := syncer.Load(ctx)
		requireResource(ctx, logg, "cart load", err)
		printCart(snapshot)

	case "add":
		if *productID <= 0 {
			fmt.Fprintln(os.Stderr, "missing -product for add")
			os.Exit(1)
		}
		snapshot, err := syncer.AddItem(ctx, *productID, *quantity)
		requireResource(ctx, logg, "cart add", err)
		printCart(snapshot)

	case "update":
		if *itemKey == "" {
			fmt.Fprintln(os.Stderr, "missing -item for update")
			os.Exit(1)
		}
		snapshot, err := syncer.UpdateItem(ctx, *itemKey, *quantity)
		requireResource(ctx, logg, "cart update", err)
		printCart(snapshot)

	case "remove":
		if *itemKey == "" {
			fmt.Fprintln(os.Stderr, "missing -item for remove")
			os.Exit(1)
		}
		snapshot, err := syncer.RemoveItem(ctx, *itemKey)
		requireResource(ctx, logg, "cart remove", err)
		printCart(snapshot)

	case "checkout-dry-run":
		err := runCheckoutDryRun(ctx, httpClient, gatewayURL, logg, sess, syncer)
		requireResource(ctx, logg, "checkout dry run", err)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// runLogin posts credentials to the gateway, stores the returned bearer, and
// reloads the cart since authentication usually merges the guest cart.
func runLogin(ctx context.Context, client *http.Client, gatewayURL string, sess *session.Session, syncer *cart.Synchronizer, identifier, password string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return fmt.Errorf("encoding login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gatewayURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login call failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("unreadable login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected: %s", envelope.Error.Message)
	}
	if envelope.Data.Token == "" {
		return fmt.Errorf("login response carried no token")
	}

	if err := sess.SetBearer(envelope.Data.Token, session.Identity{}); err != nil {
		return fmt.Errorf("persisting bearer: %w", err)
	}
	if _, err := syncer.ReloadAfterAuthChange(ctx, postLoginSettle); err != nil {
		return fmt.Errorf("reloading cart after login: %w", err)
	}
	return nil
}

// runCheckoutDryRun hydrates a draft from the saved profile and walks the
// state machine up to the confirmation gate without placing the order.
func runCheckoutDryRun(ctx context.Context, client *http.Client, gatewayURL string, logg *logger.Logger, sess *session.Session, syncer *cart.Synchronizer) error {
	if _, err := syncer.Load(ctx); err != nil {
		return err
	}

	profiles, err := account.New(client, gatewayURL, sess, logg)
	if err != nil {
		return err
	}

	orch, err := checkout.NewOrchestrator(checkout.Options{
		Session: sess,
		Cart:    syncer,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	orch.Hydrate(ctx, profiles)
	if err := orch.Validate(); err != nil {
		fmt.Println("draft is incomplete:")
		for field, message := range orch.FieldErrors() {
			fmt.Printf("  %s: %s\n", field, message)
		}
		return nil
	}
	if err := orch.Review(); err != nil {
		return err
	}

	fmt.Println("draft validated, order ready to confirm (dry run, not placed)")
	printCart(syncer.Current())
	return nil
}

func runStatus(sess *session.Session) {
	if sess.Authenticated() {
		identity := sess.Identity()
		fmt.Println("logged in:", identity.Email)
	} else {
		fmt.Println("not logged in")
	}
	if token := sess.CartToken(); token != "" {
		fmt.Println("cart token present")
	}
}

func printCart(snapshot *cart.CartSnapshot) {
	if snapshot == nil || len(snapshot.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range snapshot.Items {
		fmt.Printf("  %-24s x%d  %s\n", item.Key, item.Quantity, item.LineTotal.StringFixed(2))
	}
	fmt.Printf("total: %s %s\n", snapshot.Totals.Total.StringFixed(2), snapshot.Totals.Currency)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
