// Package cmd implements the feedcast command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/config"
	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoConfigFile = errors.New("no config file to delete")

func configFile() string {
	return filepath.Join(where.Config(), constant.Feedcast+".toml")
}

// lookupField returns the registered field for key, suggesting the nearest key otherwise.
func lookupField(key string) (config.Field, error) {
	if field, ok := config.Default[key]; ok {
		return field, nil
	}

	nearest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})

	return config.Field{}, fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(nearest),
	)
}

// parseValue converts raw command line input to the type of field's default.
func parseValue(field config.Field, raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no value given for %s", field.Key)
	}

	var (
		value any
		err   error
	)

	switch field.Value.(type) {
	case string:
		value = raw[0]
	case int:
		value, err = strconv.Atoi(raw[0])
	case float64:
		value, err = strconv.ParseFloat(raw[0], 64)
	case bool:
		value, err = strconv.ParseBool(raw[0])
	case []string:
		value = raw
	default:
		return nil, fmt.Errorf("%s cannot be set from the command line", field.Key)
	}

	if err != nil {
		return nil, fmt.Errorf("%s expects a %T, got %q", field.Key, field.Value, strings.Join(raw, " "))
	}
	return value, nil
}

// keyArg takes the key from the first argument, falling back to the --key flag.
func keyArg(cmd *cobra.Command, args []string) (string, bool) {
	if len(args) > 0 {
		return args[0], true
	}

	flag := lo.Must(cmd.Flags().GetString("key"))
	return flag, flag != ""
}

func saveConfig() error {
	var notFound viper.ConfigFileNotFoundError

	err := viper.WriteConfig()
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func completeKeys(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	keys := lo.Keys(config.Default)
	sort.Strings(keys)
	return keys, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Describe only these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print fields as json")
	lo.Must0(configInfoCmd.RegisterFlagCompletionFunc("key", completeKeys))
	configInfoCmd.SetOut(os.Stdout)
}

var configInfoCmd = &cobra.Command{
	Use:     "info",
	Aliases: []string{"show"},
	Short:   "Describe settings with their current values",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		if len(keys) == 0 {
			keys = lo.Keys(config.Default)
		}
		sort.Strings(keys)

		fields := lo.Map(keys, func(key string, _ int) config.Field {
			field, err := lookupField(key)
			handleErr(err)
			return field
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			printJSON(cmd, fields)
			return
		}

		pretty := lo.Map(fields, func(field config.Field, _ int) string {
			return field.Pretty()
		})
		cmd.Println(strings.Join(pretty, "\n\n"))
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().StringP("key", "k", "", "Key to print")
	lo.Must0(configGetCmd.RegisterFlagCompletionFunc("key", completeKeys))
	configGetCmd.SetOut(os.Stdout)
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the value of a setting, or every setting when no key is given",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key, ok := keyArg(cmd, args)
		if ok {
			_, err := lookupField(key)
			handleErr(err)
			cmd.Println(viper.Get(key))
			return
		}

		keys, _ := completeKeys(cmd, args, "")
		for _, key := range keys {
			cmd.Printf("%s = %v\n", style.Fg(color.Purple)(key), viper.Get(key))
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configSetCmd.Flags().StringP("key", "k", "", "Key to change")
	configSetCmd.Flags().StringSliceP("value", "v", nil, "New value")
	lo.Must0(configSetCmd.RegisterFlagCompletionFunc("key", completeKeys))
	configSetCmd.SetOut(os.Stdout)
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value...]",
	Short:             "Change a setting and save it to the config file",
	Example:           "  feedcast config set player.seek_step 30\n  feedcast config set --key icons.variant --value nerd",
	ValidArgsFunction: completeKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key, ok := keyArg(cmd, args)
		if !ok {
			handleErr(errors.New("which key? pass it as the first argument or with --key"))
		}

		field, err := lookupField(key)
		handleErr(err)

		raw := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) > 1 {
			raw = args[1:]
		}

		value, err := parseValue(field, raw)
		handleErr(err)

		viper.Set(key, value)
		handleErr(saveConfig())

		cmd.Printf("%s %s is now %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(key),
			style.Fg(color.Yellow)(fmt.Sprint(value)),
		)
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().StringP("key", "k", "", "Key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	configResetCmd.MarkFlagsOneRequired("key", "all")
	lo.Must0(configResetCmd.RegisterFlagCompletionFunc("key", completeKeys))
	configResetCmd.SetOut(os.Stdout)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Put one or every setting back to its default",
	Run: func(cmd *cobra.Command, args []string) {
		fields := lo.Values(config.Default)

		if !lo.Must(cmd.Flags().GetBool("all")) {
			field, err := lookupField(lo.Must(cmd.Flags().GetString("key")))
			handleErr(err)
			fields = []config.Field{field}
		}

		for _, field := range fields {
			viper.Set(field.Key, field.Value)
		}
		handleErr(saveConfig())

		if len(fields) == 1 {
			cmd.Printf("%s %s is back to %s\n",
				style.Fg(color.Green)(icon.Get(icon.Success)),
				style.Fg(color.Purple)(fields[0].Key),
				style.Fg(color.Yellow)(fmt.Sprint(fields[0].Value)),
			)
			return
		}

		cmd.Printf("%s %d settings reset\n", style.Fg(color.Green)(icon.Get(icon.Success)), len(fields))
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Replace an existing config file")
	configWriteCmd.SetOut(os.Stdout)
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Save the effective settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFile()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		cmd.Printf("%s Settings saved to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
	configDeleteCmd.SetOut(os.Stdout)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file so every setting falls back to its default",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFile()

		exists, err := afero.Exists(filesystem.API(), path)
		handleErr(err)
		if !exists {
			handleErr(errNoConfigFile)
		}

		handleErr(filesystem.API().Remove(path))
		cmd.Printf("%s Deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}
