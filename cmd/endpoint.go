package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/webchat/internal/endpoint"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage widget endpoints",
	Long:  `Add, list, show and remove the widget endpoints the gateway serves.`,
}

var endpointAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Register a widget endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndpointAdd,
}

var endpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all widget endpoints",
	RunE:  runEndpointList,
}

var endpointShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an endpoint's settings as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndpointShow,
}

var endpointRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a widget endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndpointRemove,
}

func init() {
	f := endpointAddCmd.Flags()
	f.String("flow", string(endpoint.FlowDevTest), "Bot flow: devtest, llm or webhook")
	f.String("flow-url", "", "Webhook URL for the webhook flow")
	f.String("name", "", "Chatbot name shown in the header")
	f.String("header-color", "", "Header color (hex or hsl)")
	f.String("user-color", "", "User message color (hex or hsl)")
	f.String("bot-color", "", "Bot message color (hex or hsl)")
	f.String("bubble-theme", endpoint.BubbleThemeDefault, "Chat bubble theme")
	f.String("pill-message", "", "Text of the pill chat bubble")
	f.StringSlice("origin", nil, "Allowed page origin pattern (repeatable), e.g. *.example.com")
	f.Bool("no-jump", false, "Disable the chat bubble jump animation")

	endpointCmd.AddCommand(endpointAddCmd)
	endpointCmd.AddCommand(endpointListCmd)
	endpointCmd.AddCommand(endpointShowCmd)
	endpointCmd.AddCommand(endpointRemoveCmd)
	rootCmd.AddCommand(endpointCmd)
}

func withEndpointStore(fn func(*endpoint.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(endpoint.NewStore(database))
}

func runEndpointAdd(cmd *cobra.Command, args []string) error {
	st := endpoint.Defaults(args[0])
	f := cmd.Flags()

	flow, _ := f.GetString("flow")
	st.Flow = endpoint.Flow(flow)
	st.FlowURL, _ = f.GetString("flow-url")
	if name, _ := f.GetString("name"); name != "" {
		st.ChatbotName = name
	}
	if c, _ := f.GetString("header-color"); c != "" {
		st.Colors.Header = c
	}
	if c, _ := f.GetString("user-color"); c != "" {
		st.Colors.User = c
	}
	if c, _ := f.GetString("bot-color"); c != "" {
		st.Colors.Bot = c
	}
	st.ChatBubbleTheme, _ = f.GetString("bubble-theme")
	st.ChatBubblePillMessage, _ = f.GetString("pill-message")
	st.AllowedOrigins, _ = f.GetStringSlice("origin")
	if noJump, _ := f.GetBool("no-jump"); noJump {
		st.EnableJumpAnimation = false
	}

	return withEndpointStore(func(store *endpoint.Store) error {
		ctx := context.Background()
		if _, err := store.Get(ctx, st.ID); err == nil {
			return fmt.Errorf("endpoint %q already exists (remove it first)", st.ID)
		} else if !errors.Is(err, endpoint.ErrNotFound) {
			return err
		}
		if _, err := store.Create(ctx, st); err != nil {
			return fmt.Errorf("registering endpoint: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Endpoint %s added. Embed it with:\n", st.ID)
		fmt.Printf("<script src=\"https://YOUR-GATEWAY/widget.js\" data-endpoint=\"%s\" async></script>\n", st.ID)
		return nil
	})
}

func runEndpointList(cmd *cobra.Command, args []string) error {
	return withEndpointStore(func(store *endpoint.Store) error {
		endpoints, err := store.List(context.Background())
		if err != nil {
			return fmt.Errorf("listing endpoints: %w", err)
		}
		if len(endpoints) == 0 {
			fmt.Fprintln(os.Stderr, "No endpoints registered. Add one with `webchat endpoint add <id>`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFLOW\tNAME\tORIGINS\tUPDATED")
		for _, st := range endpoints {
			origins := strings.Join(st.AllowedOrigins, ",")
			if origins == "" {
				origins = "(same host)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.ID, st.Flow, st.ChatbotName, origins, st.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})
}

func runEndpointShow(cmd *cobra.Command, args []string) error {
	return withEndpointStore(func(store *endpoint.Store) error {
		st, err := store.Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("endpoint %q: %w", args[0], err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	})
}

func runEndpointRemove(cmd *cobra.Command, args []string) error {
	return withEndpointStore(func(store *endpoint.Store) error {
		if err := store.Delete(context.Background(), args[0]); err != nil {
			return fmt.Errorf("removing endpoint %q: %w", args[0], err)
		}
		fmt.Fprintf(os.Stderr, "Endpoint %s removed.\n", args[0])
		return nil
	})
}
