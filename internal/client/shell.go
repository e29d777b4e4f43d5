package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const helpText = `Available commands:
  login <username>          sign in and remember the token
  logout                    forget the token
  list [key=value ...]      list products (keyword, category, min_price, max_price,
                            sort_by, sort_order, page, limit)
  get <id>                  show a product
  add                       create a product (admin)
  edit <id>                 edit a product (admin)
  upload <id> <file>        replace the image of a product (admin)
  delete <id>               delete a product (admin)
  reclaim                   remove unreferenced images (admin)
  help, exit`

// Shell is the interactive client loop.
type Shell struct {
	Client   *Client
	Sessions *SessionStore
	Out      io.Writer
}

// Run reads commands from in until exit or end of input.
func (s *Shell) Run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.Out, "herbcatalog> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.Out)
			return
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.Out, "Bye")
			return
		}
		if err := s.exec(ctx, scanner, args); err != nil {
			fmt.Fprintln(s.Out, "Error:", err)
		}
	}
}

func (s *Shell) exec(ctx context.Context, in *bufio.Scanner, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.Out, helpText)
	case "login":
		if len(args) < 2 {
			return usage("login <username>")
		}
		password := ask(in, s.Out, "Password", "")
		token, err := s.Client.Login(ctx, args[1], password)
		if err != nil {
			return err
		}
		if err := s.Sessions.Save(&Session{BaseURL: s.Client.BaseURL, Username: args[1], Token: token}); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Fprintf(s.Out, "Logged in as %s\n", args[1])
	case "logout":
		s.Client.Token = ""
		if err := s.Sessions.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, "Logged out")
	case "list":
		params := url.Values{}
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return usage("list [key=value ...]")
			}
			params.Set(k, v)
		}
		page, err := s.Client.List(ctx, params)
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			image := "-"
			if p.ImagePath != nil {
				image = *p.ImagePath
			}
			fmt.Fprintf(s.Out, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, cast.ToString(p.Price), image)
		}
		fmt.Fprintf(s.Out, "Page %d/%d, %d products\n", page.CurrentPage, page.TotalPages, page.TotalItems)
	case "get":
		id, err := idArg(args, "get <id>")
		if err != nil {
			return err
		}
		p, err := s.Client.Get(ctx, id)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(p, "", "  ")
		fmt.Fprintln(s.Out, string(b))
	case "add":
		input, err := PromptProduct(in, s.Out, nil)
		if err != nil {
			return err
		}
		p, err := s.Client.Create(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "Product %d created\n", p.ID)
	case "edit":
		id, err := idArg(args, "edit <id>")
		if err != nil {
			return err
		}
		cur, err := s.Client.Get(ctx, id)
		if err != nil {
			return err
		}
		edited, err := PromptProduct(in, s.Out, &ProductInput{Name: cur.Name, Category: cur.Category, Price: cur.Price})
		if err != nil {
			return err
		}
		if _, err := s.Client.Update(ctx, id, edited); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, "Product updated")
	case "upload":
		if len(args) < 3 {
			return usage("upload <id> <file>")
		}
		id, err := idArg(args, "upload <id> <file>")
		if err != nil {
			return err
		}
		cur, err := s.Client.Get(ctx, id)
		if err != nil {
			return err
		}
		p, err := s.Client.Update(ctx, id, ProductInput{
			Name: cur.Name, Category: cur.Category, Price: cur.Price, FilePath: args[2],
		})
		if err != nil {
			return err
		}
		if p.ImagePath != nil {
			fmt.Fprintf(s.Out, "Image stored at %s\n", *p.ImagePath)
		}
	case "delete":
		id, err := idArg(args, "delete <id>")
		if err != nil {
			return err
		}
		if err := s.Client.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, "Product deleted")
	case "reclaim":
		deleted, err := s.Client.Reclaim(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "Reclaimed %d files\n", len(deleted))
		for _, name := range deleted {
			fmt.Fprintln(s.Out, "  "+name)
		}
	default:
		fmt.Fprintln(s.Out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func idArg(args []string, use string) (int64, error) {
	if len(args) < 2 {
		return 0, usage(use)
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[1])
	}
	return id, nil
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}
