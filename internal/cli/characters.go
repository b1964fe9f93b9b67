package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/me/showrunner/pkg/model"
)

var errNotLoggedIn = errors.New("not logged in (or token expired): run showrunner-cli login")

// describe prefixes err with op and lists any field details of an API error.
func describe(op string, err error) error {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return fmt.Errorf("%s: %w", op, err)
	}
	var b strings.Builder
	for _, d := range apiErr.Details {
		fmt.Fprintf(&b, "\n  %s: %s", d.Field, d.Message)
	}
	return fmt.Errorf("%s: %w%s", op, err, b.String())
}

func newCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"chars"},
		Short:   "Browse and manage characters",
	}
	cmd.AddCommand(newCharactersListCmd(), newCharactersGetCmd(), newCharactersDeleteCmd())
	return cmd
}

func newCharactersListCmd() *cobra.Command {
	var name, species, status, gender string
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters, one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for k, v := range map[string]string{"name": name, "species": species, "status": status, "gender": gender} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if page > 1 {
				q.Set("page", strconv.Itoa(page))
			}
			path := "/api/v1/characters/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return describe("list characters", err)
			}
			var data []model.Character
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(data) == 0 {
				fmt.Fprintln(out, "No characters found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSPECIES\tLOCATION")
			for _, c := range data {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.CharacterID, c.Name, c.Status(), c.Species, c.Location.Name)
			}
			tw.Flush()

			if pg := resp.Pagination; pg != nil && pg.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown, next: --page %d)\n", pg.Offset+len(data), pg.Total, max(page, 1)+1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filter by name substring")
	cmd.Flags().StringVar(&species, "species", "", "Filter by species substring")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (alive, dead)")
	cmd.Flags().StringVar(&gender, "gender", "", "Filter by gender (Female, Male, Genderless, Unknown)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid character id %q", arg)
	}
	return id, nil
}

func newCharactersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := client.Get("/api/v1/characters/" + strconv.Itoa(id))
			if err != nil {
				return describe("get character", err)
			}
			var c model.Character
			if err := json.Unmarshal(resp.Data, &c); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Character: %s (#%d)\n", c.Name, c.CharacterID)
			fmt.Fprintf(out, "Status:    %s\n", c.Status())
			fmt.Fprintf(out, "Species:   %s\n", c.Species)
			if c.Type != "" {
				fmt.Fprintf(out, "Type:      %s\n", c.Type)
			}
			fmt.Fprintf(out, "Gender:    %s\n", c.Gender)
			fmt.Fprintf(out, "Origin:    %s\n", c.Origin.Name)
			fmt.Fprintf(out, "Location:  %s\n", c.Location.Name)
			fmt.Fprintf(out, "Episodes:  %d\n", len(c.Episodes))
			return nil
		},
	}
}

func newCharactersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a character (requires login)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if client.Token == "" {
				return errNotLoggedIn
			}
			if _, err := client.Delete("/api/v1/characters/" + strconv.Itoa(id)); err != nil {
				return describe("delete character", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Character %d deleted.\n", id)
			return nil
		},
	}
}
