package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
)

// PromptProduct asks for the fields of a product. Empty answers keep the
// values of current, which may be nil for a new product.
func PromptProduct(in *bufio.Scanner, out io.Writer, current *ProductInput) (ProductInput, error) {
	var p ProductInput
	if current != nil {
		p = *current
		p.FilePath = ""
	}

	p.Name = ask(in, out, "Name", p.Name)
	p.Category = ask(in, out, "Category", p.Category)

	var price string
	if current != nil {
		price = cast.ToString(current.Price)
	}
	price = ask(in, out, "Price", price)
	v, err := cast.ToFloat64E(price)
	if err != nil {
		return p, fmt.Errorf("invalid price %q", price)
	}
	p.Price = v

	p.FilePath = ask(in, out, "Image file (leave empty to skip)", "")
	return p, nil
}

func ask(in *bufio.Scanner, out io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	if !in.Scan() {
		return def
	}
	if v := strings.TrimSpace(in.Text()); v != "" {
		return v
	}
	return def
}
