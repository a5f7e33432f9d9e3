package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// LoadEnvFiles loads .env and .env.local from the working directory. Missing
// files are ignored, variables that are already set are kept.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// AddConfigFlag adds the --config flag to cmd
func AddConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", common.ConfigName, WrapString("Path of the configuration file. The extension selects the format (.json, .toml, .yaml)"))
}

// ConfigKey returns the configuration key of a flag name (read-timeout -> read_timeout)
func ConfigKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// BindFlags binds the named flags of cmd to their configuration keys in v.
// Flags that were not set on the command line do not override the
// environment or the configuration file.
func BindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag '%s'", name)
		}
		if err := v.BindPFlag(ConfigKey(name), flag); err != nil {
			return err
		}
	}
	return nil
}
