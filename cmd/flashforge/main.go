package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"flashforge/internal/cardaction"
	"flashforge/internal/tui"
)

const defaultServer = "http://localhost:8080"

// terminalButton is a favorite button whose appearance is only tracked.
type terminalButton struct {
	appearance cardaction.Appearance
}

func (b *terminalButton) Appearance() cardaction.Appearance     { return b.appearance }
func (b *terminalButton) SetAppearance(a cardaction.Appearance) { b.appearance = a }

type printNotifier struct{}

func (printNotifier) Notify(n cardaction.Notification) {
	if n.Kind == cardaction.KindError {
		fmt.Fprintln(os.Stderr, n.Message)
		return
	}
	fmt.Println(n.Message)
}

// stdinConfirmer asks on the terminal; assumeYes skips the question.
type stdinConfirmer struct {
	assumeYes bool
}

func (c stdinConfirmer) Confirm(prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Print(prompt + " [y/N] ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	serverDefault := os.Getenv("FLASHFORGE_URL")
	if serverDefault == "" {
		serverDefault = defaultServer
	}
	server := flag.String("server", serverDefault, "Flashforge server URL (env FLASHFORGE_URL)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}

	client, err := cardaction.NewClient(*server)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid server URL")
	}

	switch args[0] {
	case "study":
		runStudy(client, args[1:])
	case "cards":
		runCards(client, args[1:])
	case "favorite":
		runFavorite(client, args[1:])
	case "delete":
		runDelete(client, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func runStudy(client *cardaction.Client, args []string) {
	setID := parseID(args, 0, "set")
	program := tea.NewProgram(tui.NewModel(client, setID, ""), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatal().Err(err).Msg("Study session failed")
	}
}

func runCards(client *cardaction.Client, args []string) {
	setID := parseID(args, 0, "set")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	deck, err := client.Deck(ctx, setID)
	if err != nil {
		log.Fatal().Err(err).Int64("set_id", setID).Msg("Failed to load cards")
	}
	for _, card := range deck {
		star := " "
		if card.Favorite {
			star = "★"
		}
		fmt.Printf("%s %5d  %s\n          %s\n", star, card.ID, card.Question, card.Answer)
	}
}

func runFavorite(client *cardaction.Client, args []string) {
	setID := parseID(args, 0, "set")
	cardID := parseID(args, 1, "card")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := cardaction.ToggleFavorite(ctx, client, setID, cardID, &terminalButton{}, printNotifier{}); err != nil {
		os.Exit(1)
	}
}

func runDelete(client *cardaction.Client, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	setID := parseID(fs.Args(), 0, "set")
	cardID := parseID(fs.Args(), 1, "card")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sent, err := cardaction.DeleteCard(ctx, client, setID, cardID, stdinConfirmer{assumeYes: *yes})
	switch {
	case err != nil:
		log.Fatal().Err(err).Int64("set_id", setID).Int64("card_id", cardID).Msg("Failed to delete card")
	case !sent:
		fmt.Println("Cancelled")
	default:
		fmt.Println("Card deleted successfully!")
	}
}

func parseID(args []string, i int, what string) int64 {
	if i >= len(args) {
		fmt.Fprintf(os.Stderr, "Error: missing %s ID\n", what)
		printUsage()
		os.Exit(1)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid %s ID %q\n", what, args[i])
		os.Exit(1)
	}
	return id
}

func printUsage() {
	fmt.Println("Flashforge terminal client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flashforge [-server URL] study <set-id>                 Study a set in the terminal")
	fmt.Println("  flashforge [-server URL] cards <set-id>                 List a set's cards")
	fmt.Println("  flashforge [-server URL] favorite <set-id> <card-id>    Toggle a card's favorite flag")
	fmt.Println("  flashforge [-server URL] delete [-yes] <set-id> <card-id>")
	fmt.Println("                                                          Delete a card")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Printf("  FLASHFORGE_URL    Server URL (default: %s)\n", defaultServer)
}
