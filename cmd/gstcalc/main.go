// Command gstcalc runs the GST calculations offline, without a database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"gst-billing-service/internal/gst"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("gstcalc failed")
	}
}

func newApp() *cli.App {
	interStateFlag := &cli.BoolFlag{
		Name:    "inter-state",
		Aliases: []string{"i"},
		Usage:   "charge IGST instead of CGST and SGST",
	}

	return &cli.App{
		Name:  "gstcalc",
		Usage: "GST tax split, invoice totals and amount in words",
		Commands: []*cli.Command{
			{
				Name:  "totals",
				Usage: "aggregate a JSON array of line items into invoice totals",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to the items file, - for stdin",
						Required: true,
					},
					interStateFlag,
				},
				Action: totalsAction,
			},
			{
				Name:      "words",
				Usage:     "spell a rupee amount the Indian way",
				ArgsUsage: "<amount>",
				Action:    wordsAction,
			},
			{
				Name:  "split",
				Usage: "split the tax on one taxable value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "taxable", Required: true},
					&cli.StringFlag{Name: "rate", Usage: "GST rate in percent", Required: true},
					interStateFlag,
				},
				Action: splitAction,
			},
		},
	}
}

func totalsAction(c *cli.Context) error {
	var r io.Reader = os.Stdin
	if path := c.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open items file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var items []gst.LineItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}
	return writeJSON(c.App.Writer, gst.Aggregate(items, c.Bool("inter-state")))
}

func wordsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: gstcalc words <amount>", 1)
	}
	amount, err := decimal.NewFromString(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Args().First(), err)
	}
	_, err = fmt.Fprintln(c.App.Writer, gst.NumToWords(amount))
	return err
}

func splitAction(c *cli.Context) error {
	taxable, err := decimal.NewFromString(c.String("taxable"))
	if err != nil {
		return fmt.Errorf("invalid taxable value: %w", err)
	}
	rate, err := decimal.NewFromString(c.String("rate"))
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return cli.Exit("rate must be between 0 and 100", 1)
	}

	return writeJSON(c.App.Writer, gst.CalculateTaxes(taxable, rate, c.Bool("inter-state")))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
