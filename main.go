package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/paylane/collections-agent/agent/contract"
	customerx "github.com/paylane/collections-agent/agent/customer"
	orchestratorx "github.com/paylane/collections-agent/agent/orchestrator"
	promptx "github.com/paylane/collections-agent/agent/prompt"
	responderx "github.com/paylane/collections-agent/agent/responder"
	sessionx "github.com/paylane/collections-agent/agent/session"
	toolx "github.com/paylane/collections-agent/agent/tool"
	configx "github.com/paylane/collections-agent/pkg/config"
	_ "github.com/paylane/collections-agent/pkg/logger/autoload"
	openrouterx "github.com/paylane/collections-agent/pkg/openrouter"
)

type AppConfig struct {
	CustomersPath     string `envconfig:"CUSTOMERS_PATH" split_words:"true" default:"customers.json"`
	MaxTurns          int    `envconfig:"MAX_TURNS" split_words:"true" default:"10"`
	TranscriptBackend string `envconfig:"TRANSCRIPT_BACKEND" split_words:"true" default:"file"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")

	client := openrouterx.NewClient(*openRouterCfg)
	if client == nil {
		log.Fatal().Msg("failed to initialize openrouter client, check OPENROUTER_API_KEY")
	}

	// A missing directory is fatal before any conversation begins.
	customers, err := customerx.LoadDirectory(appCfg.CustomersPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", appCfg.CustomersPath).Msg("cannot load customer directory")
	}
	log.Info().Int("count", len(customers)).Msg("customer directory loaded")

	store, err := newTranscriptStore(appCfg.TranscriptBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize transcript store")
	}

	stdin := bufio.NewScanner(os.Stdin)
	selected, ok := selectCustomer(stdin, customers)
	if !ok {
		return
	}

	if err := runConversation(context.Background(), stdin, selected, client, *openRouterCfg, appCfg.MaxTurns, store); err != nil {
		log.Fatal().Err(err).Msg("conversation failed")
	}
}

func newTranscriptStore(backend string) (sessionx.Store, error) {
	switch backend {
	case "file":
		cfg := configx.MustNew[sessionx.FileStoreConfig]("TRANSCRIPT")
		return sessionx.NewFileStore(*cfg), nil
	case "postgres":
		cfg := configx.MustNew[sessionx.PostgresConfig]("TRANSCRIPT_PG")
		store, err := sessionx.NewPostgresStore(*cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown transcript backend %q", backend)
	}
}

func selectCustomer(stdin *bufio.Scanner, customers []customerx.Profile) (*customerx.Profile, bool) {
	fmt.Println("Available customers:")
	for i, c := range customers {
		fmt.Printf("%d. %s (%s) - €%.2f, %d days late\n", i+1, c.Name, c.ID, c.AmountDue, c.DaysLate)
	}

	for {
		fmt.Printf("\nSelect a customer (1-%d): ", len(customers))
		if !stdin.Scan() {
			return nil, false
		}
		idx, err := strconv.Atoi(strings.TrimSpace(stdin.Text()))
		if err != nil || idx < 1 || idx > len(customers) {
			fmt.Printf("Please enter a number between 1 and %d\n", len(customers))
			continue
		}
		return &customers[idx-1], true
	}
}

func runConversation(
	ctx context.Context,
	stdin *bufio.Scanner,
	customer *customerx.Profile,
	client *openaisdk.Client,
	llmCfg openrouterx.Config,
	maxTurns int,
	store sessionx.Store,
) error {
	registry := toolx.NewRegistry(customer)

	systemPrompt, err := promptx.Compose(customer, registry.Specs())
	if err != nil {
		return err
	}

	resp, err := responderx.New(client, responderx.Config{
		Model:              llmCfg.Model,
		Temperature:        llmCfg.Temperature,
		MaxCompletionToken: llmCfg.MaxCompletionToken,
	})
	if err != nil {
		return err
	}

	sess := sessionx.New(customer, sessionx.Config{MaxTurns: maxTurns})
	orch, err := orchestratorx.New(resp, registry, sess.Conversation(), systemPrompt)
	if err != nil {
		return err
	}

	fmt.Printf("\nStarting conversation with %s (%s)\n\n", customer.Name, customer.ID)

	opening, err := orch.Open(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Agent: %s\n\n", opening)

	for sess.Active() {
		fmt.Print("Customer: ")
		if !stdin.Scan() {
			sess.Terminate()
			break
		}
		input := strings.TrimSpace(stdin.Text())
		if input == "" {
			continue
		}
		if sess.IsExitDirective(input) {
			fmt.Println("\nEnding conversation...")
			sess.Terminate()
			break
		}

		message, err := orch.HandleMessage(ctx, input)
		if err != nil {
			if errors.Is(err, contractx.ErrResponder) || errors.Is(err, contractx.ErrSchemaViolation) {
				log.Error().Err(err).Msg("responder call failed")
				fmt.Println("(system) the agent is temporarily unavailable, please try again")
				continue
			}
			return err
		}
		fmt.Printf("\nAgent: %s\n\n", message)

		if escalated, reason := registry.Escalated(); escalated {
			fmt.Println("Conversation escalated to a human agent")
			sess.Escalate(reason)
			break
		}
		sess.NoteTurn()
	}

	if _, err := sess.PersistTranscript(ctx, store); err != nil {
		log.Error().Err(err).Msg("failed to persist transcript")
	}
	return nil
}
