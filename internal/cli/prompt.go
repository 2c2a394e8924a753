package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

var stdin = bufio.NewReader(os.Stdin)

// PromptForDirectory prompts the user interactively for a directory path.
// Returns the current directory if the user enters nothing.
func PromptForDirectory() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Printf("Slide folder [%s]: ", cwd)
	input := readLine(stdin)
	if input == "" {
		return cwd
	}
	return input
}

// PromptForText asks for one line of free text; an empty answer is allowed.
func PromptForText(label, hint string) string {
	if hint != "" {
		fmt.Printf("%s (e.g., %s): ", label, hint)
	} else {
		fmt.Printf("%s: ", label)
	}
	return readLine(stdin)
}

func readLine(r *bufio.Reader) string {
	input, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		log.Warn().Err(err).Msg("Failed to read input")
	}
	return strings.TrimSpace(input)
}
