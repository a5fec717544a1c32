// cmd/dailyword prints the scheduled daily word for a date or a range of
// dates. Operator/QA tool: lets you check what players will see without
// standing up the server or playing through a game.
//
// Examples:
//
//	dailyword
//	dailyword --date 2026-08-21 --days 7
//	dailyword --all --days 3
package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/jlfenwick/wordrow/internal/daily"
	"github.com/jlfenwick/wordrow/internal/words"
)

type CLI struct {
	Length int    `kong:"default='5',help='Word length (5 or 6)'"`
	Date   string `kong:"help='Start date (YYYY-MM-DD), defaults to today UTC'"`
	Days   int    `kong:"default='1',help='How many consecutive days to print'"`
	All    bool   `kong:"help='Print every supported length'"`
}

func (c *CLI) Run() error {
	// Honors the same WORDS_ANSWERS_FILE_* overrides as the server, so the
	// output matches what a configured deployment serves.
	_ = godotenv.Load()
	if err := words.Init(); err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}

	start := time.Now().UTC()
	if c.Date != "" {
		d, err := time.Parse("2006-01-02", c.Date)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", c.Date, err)
		}
		start = d
	}
	if c.Days < 1 {
		c.Days = 1
	}

	lengths := []int{c.Length}
	if c.All {
		lengths = words.Lengths
	}

	for i := 0; i < c.Days; i++ {
		day := start.AddDate(0, 0, i)
		for _, n := range lengths {
			word, err := words.DailyWord(n, day)
			if err != nil {
				return err
			}
			idx := daily.WordIndex(day, words.Count(n))
			fmt.Printf("%s\tlen=%d\tindex=%d\t%s\n", daily.Key(day), n, idx, word)
		}
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dailyword"),
		kong.Description("Print the scheduled daily word(s)"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
