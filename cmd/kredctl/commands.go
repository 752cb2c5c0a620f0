package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentkred/kred/pkg/client"
)

const (
	defaultServer   = "http://localhost:11311"
	defaultIdentity = "kred-identity.json"
)

type options struct {
	server   string
	identity string
}

func RootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "kredctl",
		Short:        "Manage an AgentKred identity and query trust scores",
		SilenceUsage: true,
	}

	server := defaultServer
	if env := os.Getenv("KRED_SERVER"); env != "" {
		server = env
	}
	rootCmd.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "AgentKred server URL (env KRED_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&opts.identity, "identity", "i", defaultIdentity, "Path to the identity file")

	rootCmd.AddCommand(
		keygenCommand(opts),
		registerCommand(opts),
		updateCommand(opts),
		verifyCommand(opts),
		reviewCommand(opts),
		stakeCommand(opts),
		showCommand(opts),
		topCommand(opts),
		reviewsCommand(opts),
		verificationsCommand(opts),
	)
	return rootCmd
}

func (o *options) signer() (*client.Client, error) {
	id, err := client.LoadIdentity(o.identity)
	if err != nil {
		return nil, fmt.Errorf("loading identity %s: %w", o.identity, err)
	}
	return client.NewClient(o.server, id), nil
}

func (o *options) reader() *client.Client {
	return client.NewClient(o.server, nil)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func keygenCommand(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen <agent-id>",
		Short: "Generate a new Ed25519 identity file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.identity); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", opts.identity)
			}
			id, err := client.GenerateIdentity(args[0])
			if err != nil {
				return err
			}
			if err := client.SaveIdentity(opts.identity, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent %s\npublic key %s\nsaved to %s\n", id.AgentID, id.PublicKeyHex(), opts.identity)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing identity file")
	return cmd
}

func registerCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register <name>",
		Short: "Register the identity with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.signer()
			if err != nil {
				return err
			}
			agent, err := c.Register(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agent)
		},
	}
}

func updateCommand(opts *options) *cobra.Command {
	var (
		update client.ProfileUpdate
		tags   string
		links  []string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields; omitted flags are left unchanged",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tags != "" {
				update.Tags = strings.Split(tags, ",")
			}
			if len(links) > 0 {
				update.SocialLinks = make(map[string]string, len(links))
				for _, l := range links {
					platform, value, ok := strings.Cut(l, "=")
					if !ok {
						return fmt.Errorf("link %q must look like platform=value", l)
					}
					update.SocialLinks[platform] = value
				}
			}
			c, err := opts.signer()
			if err != nil {
				return err
			}
			agent, err := c.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agent)
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&update.Bio, "bio", "", "Profile bio")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	cmd.Flags().StringArrayVar(&links, "link", nil, "Social link as platform=value, repeatable")
	return cmd
}

func verifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <platform> <proof-url>",
		Short: "Prove ownership of a github or twitter account",
		Long: "Publish the line \"agent-kred-verify: <agent-id>\" in a gist or tweet, then\n" +
			"pass its URL here.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.signer()
			if err != nil {
				return err
			}
			res, err := c.Verify(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func reviewCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "review <target-id> <score> [comment]",
		Short: "Review another agent with a score from 1 to 5",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score must be an integer: %w", err)
			}
			comment := ""
			if len(args) == 3 {
				comment = args[2]
			}
			c, err := opts.signer()
			if err != nil {
				return err
			}
			res, err := c.Review(cmd.Context(), args[0], score, comment)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func stakeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stake <tx-hash> <amount>",
		Short: "Record a stake claim",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			c, err := opts.signer()
			if err != nil {
				return err
			}
			agent, err := c.Stake(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agent)
		},
	}
}

func showCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Show an agent profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := opts.reader().GetAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), agent)
		},
	}
}

func topCommand(opts *options) *cobra.Command {
	var (
		sortBy string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := opts.reader().Top(cmd.Context(), sortBy, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, a := range agents {
				fmt.Fprintf(w, "%3d. %-24s trust=%-6d stake=%-10.2f reviews=%d\n", i+1, a.ID, a.TrustScore, a.StakedAmount, a.ReviewScore)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "trust_score", "trust_score, staked_amount, review_score or active")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of agents (server default when 0)")
	return cmd
}

func reviewsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <agent-id>",
		Short: "List reviews an agent received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := opts.reader().Reviews(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reviews)
		},
	}
}

func verificationsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verifications <agent-id>",
		Short: "List an agent's verified platforms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verifications, err := opts.reader().Verifications(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), verifications)
		},
	}
}
