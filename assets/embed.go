package assets

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed answers5.txt answers6.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// AnswersList returns the embedded answer corpus for a word length.
func AnswersList(length int) ([]string, error) {
	return readLines(fmt.Sprintf("answers%d.txt", length))
}
